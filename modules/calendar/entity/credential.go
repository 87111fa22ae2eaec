package entity

import (
	"fmt"
	"time"

	"smart-schedule/core/entity"

	"github.com/google/uuid"
)

// Provider identifies a calendar integration.
type Provider string

const (
	ProviderGoogle  Provider = "google"
	ProviderOutlook Provider = "outlook"
	ProviderCalDAV  Provider = "caldav"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderOutlook, ProviderCalDAV:
		return true
	}
	return false
}

func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown calendar provider %q", s)
	}
	return p, nil
}

// Credential is a host's connection to one external calendar. Tokens are
// maintained by the connection flow; the engine only reads them.
type Credential struct {
	entity.BaseEntity
	HostID         uuid.UUID  `db:"host_id" json:"host_id"`
	Provider       Provider   `db:"provider" json:"provider"`
	AccessToken    string     `db:"access_token" json:"-"`
	RefreshToken   string     `db:"refresh_token" json:"-"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"token_expires_at,omitempty"`
	CalendarEmail  string     `db:"calendar_email" json:"calendar_email"`
	ServerURL      string     `db:"server_url" json:"server_url,omitempty"`
	CalendarPath   string     `db:"calendar_path" json:"calendar_path,omitempty"`
	Username       string     `db:"username" json:"-"`
	Password       string     `db:"password" json:"-"`
	IsActive       bool       `db:"is_active" json:"is_active"`
}

func (Credential) TableName() string {
	return "calendar_credentials"
}
