package vaults

import (
	"context"
	"time"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
)

// Repository persists VaultEntry records. User-scoped reads filter at the
// query layer so foreign entries surface as ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, v *models.VaultEntry) error

	GetForUser(ctx context.Context, id, userID string) (*models.VaultEntry, error)

	// GetByFileID serves the at-most-one-entry-per-file invariant and the
	// delete cascade.
	GetByFileID(ctx context.Context, fileID string) (*models.VaultEntry, error)

	// Delete removes the entry and reports whether this call won the
	// deletion; under concurrent self-destruct evaluation only one caller
	// sees true.
	Delete(ctx context.Context, id string) (bool, error)

	// RecordAccess increments the access counter and stamps last_accessed.
	RecordAccess(ctx context.Context, id string, at time.Time) error
}
