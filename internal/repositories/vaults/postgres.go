// Package vaults provides the PostgreSQL-backed repository for PIN-gated
// vault entries.
package vaults

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

const vaultColumns = `id, file_id, user_id, pin_hash, pin_salt, key_material, last_accessed, access_count, self_destruct, destruct_after, created_at`

// PostgresRepository implements vault-entry storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.VaultEntry) error {
	query := `
		INSERT INTO vault_entries (` + vaultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	var lastAccessed, destructAfter sql.NullTime
	if v.LastAccessed != nil {
		lastAccessed = sql.NullTime{Time: *v.LastAccessed, Valid: true}
	}
	if v.DestructAfter != nil {
		destructAfter = sql.NullTime{Time: *v.DestructAfter, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.FileID, v.UserID, v.PinHash, v.PinSalt, v.KeyMaterial,
		lastAccessed, v.AccessCount, v.SelfDestruct, destructAfter, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func scanEntry(row interface{ Scan(...any) error }) (*models.VaultEntry, error) {
	var v models.VaultEntry
	var lastAccessed, destructAfter sql.NullTime
	err := row.Scan(&v.ID, &v.FileID, &v.UserID, &v.PinHash, &v.PinSalt, &v.KeyMaterial,
		&lastAccessed, &v.AccessCount, &v.SelfDestruct, &destructAfter, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastAccessed.Valid {
		t := lastAccessed.Time
		v.LastAccessed = &t
	}
	if destructAfter.Valid {
		t := destructAfter.Time
		v.DestructAfter = &t
	}
	return &v, nil
}

func (r *PostgresRepository) GetForUser(ctx context.Context, id, userID string) (*models.VaultEntry, error) {
	query := `SELECT ` + vaultColumns + ` FROM vault_entries WHERE id=$1 AND user_id=$2`
	v, err := scanEntry(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select vault entry: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) GetByFileID(ctx context.Context, fileID string) (*models.VaultEntry, error) {
	query := `SELECT ` + vaultColumns + ` FROM vault_entries WHERE file_id=$1`
	v, err := scanEntry(r.db.QueryRowContext(ctx, query, fileID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select vault entry: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vault_entries WHERE id=$1`, id)
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
	query := `UPDATE vault_entries SET access_count = access_count + 1, last_accessed = $1 WHERE id=$2`
	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}
