package audit

import (
	"context"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
)

// Repository appends audit events. The engine never reads them back.
type Repository interface {
	Insert(ctx context.Context, ev *models.AuditEvent) error
}
