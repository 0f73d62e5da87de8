// Package repomanager hands out repository instances bound to a DB handle or
// transaction, so services can run multi-repository writes inside one
// dbx.WithTx scope.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/dbx"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/audit"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/files"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/quotas"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/shares"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/vaults"
)

// RepositoryManager builds repositories over the given DBTX (either the DB
// itself or an open transaction).
type RepositoryManager interface {
	Files(db dbx.DBTX) files.Repository
	Quotas(db dbx.DBTX) quotas.Repository
	Vaults(db dbx.DBTX) vaults.Repository
	Shares(db dbx.DBTX) shares.Repository
	Audit(db dbx.DBTX) audit.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
