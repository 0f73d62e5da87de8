// Package audit provides the PostgreSQL-backed, append-only audit trail.
package audit

import (
	"context"
	"fmt"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/dbx"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
)

// PostgresRepository implements audit storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, ev *models.AuditEvent) error {
	query := `
		INSERT INTO audit_events (id, actor_id, file_id, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		ev.ID, ev.ActorID, ev.FileID, ev.Action, ev.Detail, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
