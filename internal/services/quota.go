// Package services implements the vault engine's use cases on top of the
// repositories: the cipher pipeline, quota accounting, the PIN-gated vault
// layer and capability shares.
package services

import (
	"context"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/config"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/dbx"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/logging"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/repomanager"
)

// QuotaLedger wraps the ledger repository with ceiling resolution and the
// clamp-on-over-release recovery. Reserve and Release run against whatever
// DBTX the caller passes, so they participate in the caller's transaction.
type QuotaLedger struct {
	repos repomanager.RepositoryManager
	cfg   *config.Config
	log   logging.Logger
}

func NewQuotaLedger(repos repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *QuotaLedger {
	return &QuotaLedger{repos: repos, cfg: cfg, log: log}
}

// EffectiveCeiling resolves the ceiling a reservation is checked against:
// the account's stored ceiling, replaced by the role override when that is
// larger or unlimited, plus the department bonus unless the result is
// already unlimited.
func (l *QuotaLedger) EffectiveCeiling(stored int64, role, department string) int64 {
	eff := stored
	if override, ok := l.cfg.RoleStorageQuotas[role]; ok {
		if override == common.UnlimitedQuota || (eff != common.UnlimitedQuota && override > eff) {
			eff = override
		}
	}
	if eff == common.UnlimitedQuota {
		return eff
	}
	if bonus, ok := l.cfg.DepartmentBonuses[department]; ok {
		eff += bonus
	}
	return eff
}

// VaultCeiling resolves the vault ledger ceiling for a role.
func (l *QuotaLedger) VaultCeiling(role string) int64 {
	if c, ok := l.cfg.VaultPermissions[role]; ok {
		return c
	}
	return l.cfg.DefaultVaultQuota
}

// vaultEffective resolves the vault ceiling at check time. The stored value
// only seeds the account; a role ceiling raised in settings takes effect on
// the next reservation, never frozen at first use.
func (l *QuotaLedger) vaultEffective(stored int64, role string) int64 {
	roleCeiling := l.VaultCeiling(role)
	if stored == common.UnlimitedQuota || roleCeiling == common.UnlimitedQuota {
		return common.UnlimitedQuota
	}
	if roleCeiling > stored {
		return roleCeiling
	}
	return stored
}

// Reserve charges n bytes to the owner's ledger. The account is created on
// first use with defaultCeiling. Personal storage accounts resolve role and
// department adjustments at check time; vault accounts resolve the role
// ceiling at check time; team accounts use their stored ceiling as-is.
//
// A rejected reservation returns *common.QuotaExceededError and leaves usage
// untouched.
func (l *QuotaLedger) Reserve(ctx context.Context, db dbx.DBTX, owner models.OwnerRef, kind models.LedgerKind, n, defaultCeiling int64, role, department string) error {
	q := l.repos.Quotas(db)

	if err := q.Ensure(ctx, owner, kind, defaultCeiling); err != nil {
		return err
	}
	acct, err := q.Get(ctx, owner, kind)
	if err != nil {
		return err
	}

	effective := acct.Ceiling
	switch {
	case kind == models.LedgerStorage && owner.Kind == models.OwnerUser:
		effective = l.EffectiveCeiling(acct.Ceiling, role, department)
	case kind == models.LedgerVault:
		effective = l.vaultEffective(acct.Ceiling, role)
	}

	ok, err := q.TryReserve(ctx, owner, kind, n, effective)
	if err != nil {
		return err
	}
	if !ok {
		acct, err = q.Get(ctx, owner, kind)
		if err != nil {
			return err
		}
		return &common.QuotaExceededError{Usage: acct.Usage, Ceiling: effective, Requested: n}
	}
	return nil
}

// Release refunds n bytes. A refund that would drive usage negative clamps
// to zero instead; that indicates a double refund upstream, so it is logged.
func (l *QuotaLedger) Release(ctx context.Context, db dbx.DBTX, owner models.OwnerRef, kind models.LedgerKind, n int64) error {
	q := l.repos.Quotas(db)

	ok, err := q.ReleaseExact(ctx, owner, kind, n)
	if err != nil {
		return err
	}
	if !ok {
		l.log.Warn(ctx, "quota release exceeds usage, clamping to zero",
			"ownerKind", owner.Kind, "ownerID", owner.ID, "ledger", kind, "bytes", n)
		return q.ClampZero(ctx, owner, kind)
	}
	return nil
}
