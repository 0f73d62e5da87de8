// Package models defines the entities persisted by the vault engine.
package models

import "time"

// File is one uploaded artifact. The encrypted bytes are immutable once
// written: a "changed" file is a new File plus deletion of the old one.
type File struct {
	ID         string
	OwnerID    string
	TeamID     string // empty for personal files
	Name       string // display name
	StoredName string // opaque name of the ciphertext artifact in the work dir
	Size       int64  // plaintext byte size, the quota-charged amount
	MediaType  string

	// IV is the per-file initialization vector, generated exactly once at
	// encryption time and never reused across files. The stored value is
	// authoritative; it is not embedded in the ciphertext.
	IV []byte

	// Digest is the SHA-256 of the encrypted bytes, computed once after
	// encryption and recomputed only for verification.
	Digest string

	IsDeleted bool
	IsTeam    bool
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Expired reports whether the file's optional expiry has passed.
func (f *File) Expired(now time.Time) bool {
	return f.ExpiresAt != nil && now.After(*f.ExpiresAt)
}
