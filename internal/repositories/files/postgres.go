// Package files provides the PostgreSQL-backed repository for file metadata.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/dbx"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
)

const fileColumns = `id, owner_id, team_id, name, stored_name, size, media_type, iv, digest, is_deleted, is_team, expires_at, created_at`

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.File) error {
	query := `
		INSERT INTO files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	var expires sql.NullTime
	if f.ExpiresAt != nil {
		expires = sql.NullTime{Time: *f.ExpiresAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.OwnerID, f.TeamID, f.Name, f.StoredName, f.Size, f.MediaType,
		f.IV, f.Digest, f.IsDeleted, f.IsTeam, expires, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func scanFile(row interface{ Scan(...any) error }) (*models.File, error) {
	var f models.File
	var expires sql.NullTime
	err := row.Scan(&f.ID, &f.OwnerID, &f.TeamID, &f.Name, &f.StoredName, &f.Size,
		&f.MediaType, &f.IV, &f.Digest, &f.IsDeleted, &f.IsTeam, &expires, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		f.ExpiresAt = &t
	}
	return &f, nil
}

func (r *PostgresRepository) GetForOwner(ctx context.Context, id, ownerID string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id=$1 AND owner_id=$2 AND is_deleted=FALSE`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id=$1`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg string) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListActiveForOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id=$1 AND is_deleted=FALSE ORDER BY created_at`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) ListActiveForTeam(ctx context.Context, teamID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE team_id=$1 AND is_deleted=FALSE ORDER BY created_at`
	return r.list(ctx, query, teamID)
}

// MarkDeleted flips is_deleted once. The is_deleted=FALSE guard makes the
// flip (and any refund keyed to it) happen at most once per file.
func (r *PostgresRepository) MarkDeleted(ctx context.Context, id string) (bool, error) {
	query := `UPDATE files SET is_deleted=TRUE WHERE id=$1 AND is_deleted=FALSE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}
