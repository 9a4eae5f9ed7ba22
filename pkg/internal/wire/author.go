package wire

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func Validate(payload any) error {
	return validate.Struct(payload)
}

// AuthorRef is the single author representation used on the wire, whether the
// author lives here or on a peer node. Its id field is the author's full URL.
type AuthorRef struct {
	Type         string `json:"type"`
	ID           string `json:"id" validate:"required,url"`
	Host         string `json:"host" validate:"required,url"`
	DisplayName  string `json:"displayName" validate:"required"`
	URL          string `json:"url" validate:"required"`
	ProfileImage string `json:"profileImage"`
	Github       string `json:"github"`
}

// LocalID extracts the row identifier from the full author URL.
func (r AuthorRef) LocalID() string {
	return TrailingSegment(r.ID)
}

// NormalizedGithub strips the profile URL prefix some peers send so only the
// bare username is stored.
func (r AuthorRef) NormalizedGithub() string {
	return strings.TrimPrefix(r.Github, "https://github.com/")
}

// TrailingSegment returns the last path segment of a URL, ignoring a
// trailing slash.
func TrailingSegment(url string) string {
	url = strings.TrimSuffix(url, "/")
	idx := strings.LastIndex(url, "/")
	if idx < 0 {
		return url
	}
	return url[idx+1:]
}

// PathSegments splits a URL path into its segments, scheme and host removed.
func PathSegments(url string) []string {
	url = strings.TrimSuffix(url, "/")
	if idx := strings.Index(url, "://"); idx >= 0 {
		url = url[idx+3:]
	}
	parts := strings.Split(url, "/")
	if len(parts) <= 1 {
		return nil
	}
	return parts[1:]
}
