package models

import "time"

// Account is the login credential behind an author. Shadow authors mirrored
// from peer nodes carry a disabled account that can never authenticate.
type Account struct {
	BaseModel

	Username     string `json:"username" gorm:"uniqueIndex"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Disabled     bool   `json:"disabled"`
}

// Author is a profile, local or mirrored. Host decides which: a local
// author's host is this node's own site host.
type Author struct {
	BaseModel

	AccountID string  `json:"account_id" gorm:"index"`
	Account   Account `json:"account"`

	Host           string `json:"host" gorm:"index"`
	DisplayName    string `json:"display_name"`
	ProfileURL     string `json:"profile_url"`
	ProfilePicture string `json:"profile_picture"`
	Github         string `json:"github"`
	Bio            string `json:"bio"`

	// Watermark for the github activity poller.
	LastGithubCheck *time.Time `json:"last_github_check"`
	LastGithubID    string     `json:"last_github_id"`
}
