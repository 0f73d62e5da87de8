package models

import "time"

// Share is a bearer capability granting scoped access to one File.
// Possession of the token plus the active/expiry/permission checks is the
// entire authorization story; no identity check happens on redemption.
type Share struct {
	ID        string
	Token     string
	FileID    string
	CreatorID string

	CanView     bool
	CanDownload bool

	ExpiresAt   *time.Time
	IsActive    bool
	AccessCount int64
	LastAccess  *time.Time

	// RecipientHint is a display label only, never used for authorization.
	RecipientHint string

	CreatedAt time.Time
}

// Expired reports whether the optional expiry has passed.
func (s *Share) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// SharePatch carries owner-scoped mutations for a share. Nil fields are
// left unchanged.
type SharePatch struct {
	CanView     *bool
	CanDownload *bool
	ExpiresAt   *time.Time
	ClearExpiry bool
	IsActive    *bool
}
