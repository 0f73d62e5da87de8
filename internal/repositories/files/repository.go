package files

import (
	"context"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
)

// Repository persists File records. Owner-scoped reads filter at the query
// layer, so a foreign file and a missing file are both ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, f *models.File) error

	// GetForOwner returns the file only when owned by ownerID (personally
	// or through the file's team) and not soft-deleted.
	GetForOwner(ctx context.Context, id, ownerID string) (*models.File, error)

	// Get returns the file regardless of owner or deletion state; used by
	// capability redemption, which authorizes by token instead of identity.
	Get(ctx context.Context, id string) (*models.File, error)

	ListActiveForOwner(ctx context.Context, ownerID string) ([]*models.File, error)
	ListActiveForTeam(ctx context.Context, teamID string) ([]*models.File, error)

	// MarkDeleted soft-deletes the file. It reports whether this call did
	// the flip, making delete-triggered quota refunds idempotent per file.
	MarkDeleted(ctx context.Context, id string) (bool, error)
}
