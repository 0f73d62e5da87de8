// Package common defines shared constants and sentinel errors used across
// the vault engine. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors. ErrorNotFound also covers resources owned by
	// another principal: owner-scoped queries filter at the data-access
	// boundary, so "not mine" and "doesn't exist" are indistinguishable.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal  = errors.New("internal error")
	ErrorForbidden = errors.New("forbidden")

	// Cipher pipeline: ciphertext cannot be transformed with the stored IV.
	// A format-level failure, distinct from a digest mismatch.
	ErrCipherKey = errors.New("ciphertext unreadable")

	// Processing failure during encrypt/decrypt I/O; partial artifacts are
	// cleaned up before this is returned.
	ErrProcessing = errors.New("processing failure")

	// Upload rejected before any ciphertext is produced.
	ErrFileTooLarge = errors.New("file too large")

	// Vault layer.
	ErrAlreadyVaulted = errors.New("file already vaulted")
	ErrInvalidPin     = errors.New("invalid pin")
	ErrPinRequired    = errors.New("pin required")

	// Share layer.
	ErrorExpired  = errors.New("expired")
	ErrorFileGone = errors.New("file gone")

	// Session boundary.
	ErrInvalidToken = errors.New("invalid token")
)

// QuotaExceededError is returned when a reservation would push usage past the
// effective ceiling. It carries the numbers a client needs to render the
// failure.
type QuotaExceededError struct {
	Usage     int64 // current committed usage, bytes
	Ceiling   int64 // effective ceiling at check time, bytes
	Requested int64 // size of the rejected reservation, bytes
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: usage %d + requested %d > ceiling %d",
		e.Usage, e.Requested, e.Ceiling)
}

// Remaining returns the free space left under the ceiling, clamped at zero.
func (e *QuotaExceededError) Remaining() int64 {
	if r := e.Ceiling - e.Usage; r > 0 {
		return r
	}
	return 0
}
