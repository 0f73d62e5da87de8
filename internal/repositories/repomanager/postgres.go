package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/dbx"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/migrations"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/audit"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/files"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/quotas"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/shares"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/vaults"
)

// PostgresRepositoryManager builds the pgx-backed repositories.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager returns a manager for PostgreSQL repositories.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Quotas(db dbx.DBTX) quotas.Repository {
	return quotas.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Vaults(db dbx.DBTX) vaults.Repository {
	return vaults.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Shares(db dbx.DBTX) shares.Repository {
	return shares.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Audit(db dbx.DBTX) audit.Repository {
	return audit.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
