package models

import "time"

// VaultState is the state of a vault entry, computed at read time from the
// self-destruct flag and deadline. Destroyed entries do not exist as rows,
// so reads after destruction surface NotFound.
type VaultState string

const (
	VaultActive          VaultState = "active"
	VaultPendingDestruct VaultState = "pending_destruct"
)

// VaultEntry is the PIN-gated protection state wrapping exactly one File.
type VaultEntry struct {
	ID     string
	FileID string
	UserID string

	// PinHash/PinSalt hold the Argon2id hash of the 6-digit PIN; the PIN
	// itself is never persisted or logged.
	PinHash []byte
	PinSalt []byte

	// KeyMaterial is reserved for future re-encryption; opaque today.
	KeyMaterial []byte

	LastAccessed  *time.Time
	AccessCount   int64
	SelfDestruct  bool
	DestructAfter *time.Time
	CreatedAt     time.Time
}

// State computes the entry's tagged state at now. The actual destruction
// transition happens only inside an access critical section, after PIN
// verification.
func (v *VaultEntry) State(now time.Time) VaultState {
	if v.SelfDestruct && v.DestructAfter != nil && now.After(*v.DestructAfter) {
		return VaultPendingDestruct
	}
	return VaultActive
}
