// Package shares provides the PostgreSQL-backed repository for bearer
// share capabilities.
package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/dbx"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
)

const shareColumns = `id, token, file_id, creator_id, can_view, can_download, expires_at, is_active, access_count, last_access, recipient_hint, created_at`

// PostgresRepository implements share storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Share) error {
	query := `
		INSERT INTO shares (` + shareColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	var expires, lastAccess sql.NullTime
	if s.ExpiresAt != nil {
		expires = sql.NullTime{Time: *s.ExpiresAt, Valid: true}
	}
	if s.LastAccess != nil {
		lastAccess = sql.NullTime{Time: *s.LastAccess, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Token, s.FileID, s.CreatorID, s.CanView, s.CanDownload,
		expires, s.IsActive, s.AccessCount, lastAccess, s.RecipientHint, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func scanShare(row interface{ Scan(...any) error }) (*models.Share, error) {
	var s models.Share
	var expires, lastAccess sql.NullTime
	err := row.Scan(&s.ID, &s.Token, &s.FileID, &s.CreatorID, &s.CanView, &s.CanDownload,
		&expires, &s.IsActive, &s.AccessCount, &lastAccess, &s.RecipientHint, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		s.ExpiresAt = &t
	}
	if lastAccess.Valid {
		t := lastAccess.Time
		s.LastAccess = &t
	}
	return &s, nil
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE token=$1`
	s, err := scanShare(r.db.QueryRowContext(ctx, query, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select share: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetForCreator(ctx context.Context, id, creatorID string) (*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE id=$1 AND creator_id=$2`
	s, err := scanShare(r.db.QueryRowContext(ctx, query, id, creatorID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select share: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListForCreator(ctx context.Context, creatorID string) ([]*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE creator_id=$1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to select shares: %w", err)
	}
	defer rows.Close()

	var result []*models.Share
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, s *models.Share) error {
	query := `
		UPDATE shares SET can_view=$1, can_download=$2, expires_at=$3, is_active=$4
		WHERE id=$5
	`
	var expires sql.NullTime
	if s.ExpiresAt != nil {
		expires = sql.NullTime{Time: *s.ExpiresAt, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, query, s.CanView, s.CanDownload, expires, s.IsActive, s.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shares WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) RecordAccess(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE shares SET access_count = access_count + 1, last_access = $1 WHERE id=$2`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
