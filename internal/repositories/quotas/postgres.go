// Package quotas provides the PostgreSQL-backed repository for the usage
// ledgers backing quota accounting.
package quotas

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/dbx"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
)

// PostgresRepository implements the ledger over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Ensure(ctx context.Context, owner models.OwnerRef, kind models.LedgerKind, ceiling int64) error {
	query := `
		INSERT INTO quota_accounts (owner_kind, owner_id, kind, usage_bytes, ceiling)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (owner_kind, owner_id, kind) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, owner.Kind, owner.ID, kind, ceiling); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, owner models.OwnerRef, kind models.LedgerKind) (*models.QuotaAccount, error) {
	query := `
		SELECT owner_kind, owner_id, kind, usage_bytes, ceiling FROM quota_accounts
		WHERE owner_kind=$1 AND owner_id=$2 AND kind=$3
	`
	a := &models.QuotaAccount{}
	err := r.db.QueryRowContext(ctx, query, owner.Kind, owner.ID, kind).
		Scan(&a.OwnerKind, &a.OwnerID, &a.Kind, &a.Usage, &a.Ceiling)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select account: %w", err)
	}
	return a, nil
}

// TryReserve is the compare-and-commit step of the ledger: the guard and the
// increment execute as one statement, so two concurrent reserves can never
// both pass against the same stale usage snapshot.
func (r *PostgresRepository) TryReserve(ctx context.Context, owner models.OwnerRef, kind models.LedgerKind, n, effectiveCeiling int64) (bool, error) {
	var res sql.Result
	var err error
	if effectiveCeiling == common.UnlimitedQuota {
		query := `
			UPDATE quota_accounts SET usage_bytes = usage_bytes + $1
			WHERE owner_kind=$2 AND owner_id=$3 AND kind=$4
		`
		res, err = r.db.ExecContext(ctx, query, n, owner.Kind, owner.ID, kind)
	} else {
		query := `
			UPDATE quota_accounts SET usage_bytes = usage_bytes + $1
			WHERE owner_kind=$2 AND owner_id=$3 AND kind=$4 AND usage_bytes + $5 <= $6
		`
		res, err = r.db.ExecContext(ctx, query, n, owner.Kind, owner.ID, kind, n, effectiveCeiling)
	}
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return rows == 1, nil
}

func (r *PostgresRepository) ReleaseExact(ctx context.Context, owner models.OwnerRef, kind models.LedgerKind, n int64) (bool, error) {
	query := `
		UPDATE quota_accounts SET usage_bytes = usage_bytes - $1
		WHERE owner_kind=$2 AND owner_id=$3 AND kind=$4 AND usage_bytes >= $5
	`
	res, err := r.db.ExecContext(ctx, query, n, owner.Kind, owner.ID, kind, n)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return rows == 1, nil
}

func (r *PostgresRepository) ClampZero(ctx context.Context, owner models.OwnerRef, kind models.LedgerKind) error {
	query := `
		UPDATE quota_accounts SET usage_bytes = 0
		WHERE owner_kind=$1 AND owner_id=$2 AND kind=$3
	`
	if _, err := r.db.ExecContext(ctx, query, owner.Kind, owner.ID, kind); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
