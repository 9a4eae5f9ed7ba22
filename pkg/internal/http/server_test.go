package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	localCache "github.com/deadlybird/deadlybird/pkg/internal/cache"
	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/services"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/glebarez/sqlite"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSiteHost = "https://social.test"

func setupServer(t *testing.T) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigration(db))
	database.C = db

	services.Di = services.NewDomain(services.DeploymentConfig{SiteHost: testSiteHost})
	require.NoError(t, localCache.NewStore())

	viper.Set("federation.incoming_username", "node-inbound")
	viper.Set("federation.incoming_password", "node-secret")

	return NewServer()
}

func TestInboxRequiresAuthentication(t *testing.T) {
	server := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/authors/someone/inbox", nil)
	resp, err := server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInboxAcceptsNodeCredentials(t *testing.T) {
	server := setupServer(t)

	target, err := services.CreateLocalAuthor("alice", "alice@social.test", "open sesame")
	require.NoError(t, err)

	activity := wire.FollowActivity{
		Type: wire.TypeFollow,
		Actor: wire.AuthorRef{
			Type:        "author",
			ID:          "https://peer.test/api/authors/r1",
			Host:        "https://peer.test",
			DisplayName: "peer-r1",
			URL:         "https://peer.test/api/authors/r1",
		},
		Object: services.LocalAuthorRef(target),
	}
	body, err := jsoniter.Marshal(activity)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/authors/"+target.ID+"/inbox", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("node-inbound", "node-secret")
	resp, err := server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	_, err = services.GetAuthor("r1")
	assert.NoError(t, err)
}

func TestInboxRejectsWrongNodeCredentials(t *testing.T) {
	server := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/authors/someone/inbox", nil)
	req.SetBasicAuth("node-inbound", "wrong")
	resp, err := server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterLoginAndReadInbox(t *testing.T) {
	server := setupServer(t)

	register := httptest.NewRequest(http.MethodPost, "/api/register",
		bytes.NewReader([]byte(`{"username":"alice","password":"open sesame","email":"alice@social.test"}`)))
	register.Header.Set("Content-Type", "application/json")
	resp, err := server.app.Test(register)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ref wire.AuthorRef
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&ref))

	login := httptest.NewRequest(http.MethodPost, "/api/login",
		bytes.NewReader([]byte(`{"username":"alice","password":"open sesame"}`)))
	login.Header.Set("Content-Type", "application/json")
	resp, err = server.app.Test(login)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session_token" {
			token = cookie.Value
		}
	}
	require.NotEmpty(t, token)

	inbox := httptest.NewRequest(http.MethodGet, "/api/authors/"+ref.LocalID()+"/inbox", nil)
	inbox.AddCookie(&http.Cookie{Name: "session_token", Value: token})

	// Session lookups go through ristretto, which admits writes
	// asynchronously; retry until the cookie resolves.
	require.Eventually(t, func() bool {
		resp, err := server.app.Test(inbox)
		return err == nil && resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAdminRequiresOperatorCredentials(t *testing.T) {
	server := setupServer(t)
	viper.Set("admin.username", "admin")
	viper.Set("admin.password", "operator-secret")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/nodes", nil)
	resp, err := server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/nodes", nil)
	req.SetBasicAuth("admin", "operator-secret")
	resp, err = server.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
