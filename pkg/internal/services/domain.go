package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// DeploymentConfig carries the deployment-dependent pieces of identity
// resolution: which host this node answers as, and the loopback alias pair
// used so self-comparison works the same inside and outside the container
// network.
type DeploymentConfig struct {
	SiteHost string
	// AliasFrom is the loopback label a host may carry (e.g. "localhost"),
	// AliasTo the address peer containers actually reach it at.
	AliasFrom string
	AliasTo   string
}

type Domain struct {
	cfg DeploymentConfig
}

// Di is the process-wide domain resolver, set up during boot.
var Di *Domain

func NewDomain(cfg DeploymentConfig) *Domain {
	return &Domain{cfg: cfg}
}

func SetupDomain() {
	Di = NewDomain(DeploymentConfig{
		SiteHost:  viper.GetString("federation.site_host"),
		AliasFrom: viper.GetString("federation.alias_from"),
		AliasTo:   viper.GetString("federation.alias_to"),
	})
}

// Route templates for every cross-node call. Params are substituted by name.
var routeTemplates = map[string]string{
	"authors":       "/api/authors/",
	"author":        "/api/authors/{author_id}",
	"inbox":         "/api/authors/{author_id}/inbox",
	"posts":         "/api/authors/{author_id}/posts/",
	"post":          "/api/authors/{author_id}/posts/{post_id}",
	"comments":      "/api/authors/{author_id}/posts/{post_id}/comments",
	"post_likes":    "/api/authors/{author_id}/posts/{post_id}/likes",
	"comment_likes": "/api/authors/{author_id}/posts/{post_id}/comments/{comment_id}/likes",
	"liked":         "/api/authors/{author_id}/liked",
	"followers":     "/api/authors/{author_id}/followers",
}

func (d *Domain) rewriteAlias(host string) string {
	if len(d.cfg.AliasFrom) == 0 || len(d.cfg.AliasTo) == 0 {
		return host
	}
	return strings.Replace(host, d.cfg.AliasFrom, d.cfg.AliasTo, 1)
}

// Canonicalize reduces a host to scheme://netloc, dropping any path and
// trailing slash.
func (d *Domain) Canonicalize(host string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(host))
	if err != nil || len(parsed.Scheme) == 0 || len(parsed.Host) == 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidHost, host)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

// IsSame reports whether two hosts name the same node. Ports are only
// compared when both sides carry one.
func (d *Domain) IsSame(hostA, hostB string) bool {
	a, errA := url.Parse(d.rewriteAlias(strings.TrimSpace(hostA)))
	b, errB := url.Parse(d.rewriteAlias(strings.TrimSpace(hostB)))
	if errA != nil || errB != nil {
		return false
	}
	if a.Hostname() != b.Hostname() {
		return false
	}
	if len(a.Port()) > 0 && len(b.Port()) > 0 && a.Port() != b.Port() {
		return false
	}
	return true
}

// IsLocal reports whether a host is this node itself.
func (d *Domain) IsLocal(host string) bool {
	return d.IsSame(host, d.cfg.SiteHost)
}

func (d *Domain) SiteHost() string {
	return d.cfg.SiteHost
}

// ResolveRoute joins a canonicalized host with a named route template,
// substituting params. Every cross-node URL is built through here.
func (d *Domain) ResolveRoute(host, routeName string, params map[string]string) (string, error) {
	base, err := d.Canonicalize(host)
	if err != nil {
		return "", err
	}
	template, ok := routeTemplates[routeName]
	if !ok {
		return "", fmt.Errorf("unknown route: %s", routeName)
	}
	for key, value := range params {
		template = strings.ReplaceAll(template, "{"+key+"}", value)
	}
	return base + template, nil
}

// FullAPIURL resolves a route against this node's own host.
func (d *Domain) FullAPIURL(routeName string, params map[string]string) string {
	out, err := d.ResolveRoute(d.cfg.SiteHost, routeName, params)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(out, "/")
}
