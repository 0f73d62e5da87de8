package shares

import (
	"context"
	"time"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
)

// Repository persists Share capabilities. Redemption reads by token only;
// mutation reads are creator-scoped so foreign shares surface as
// ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, s *models.Share) error

	// GetByToken is the single consistent read the four redemption checks
	// are evaluated against.
	GetByToken(ctx context.Context, token string) (*models.Share, error)

	GetForCreator(ctx context.Context, id, creatorID string) (*models.Share, error)
	ListForCreator(ctx context.Context, creatorID string) ([]*models.Share, error)

	// Update persists the mutable fields (permissions, expiry, active flag).
	Update(ctx context.Context, s *models.Share) error

	Delete(ctx context.Context, id string) (bool, error)

	// RecordAccess bumps the audit counter; best-effort under concurrency.
	RecordAccess(ctx context.Context, id string, at time.Time) error
}
