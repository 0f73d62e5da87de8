package quotas

import (
	"context"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
)

// Repository persists quota ledger rows. The reservation primitive is a
// single conditional UPDATE so the usage-vs-ceiling check and the commit are
// one atomic step with respect to concurrent reserves on the same account.
type Repository interface {
	// Ensure creates the account with the given ceiling if it does not
	// exist yet; an existing row is left untouched.
	Ensure(ctx context.Context, owner models.OwnerRef, kind models.LedgerKind, ceiling int64) error

	Get(ctx context.Context, owner models.OwnerRef, kind models.LedgerKind) (*models.QuotaAccount, error)

	// TryReserve atomically adds n to usage when usage+n stays within
	// effectiveCeiling (common.UnlimitedQuota skips the comparison).
	// Returns false when the guard rejected the update.
	TryReserve(ctx context.Context, owner models.OwnerRef, kind models.LedgerKind, n, effectiveCeiling int64) (bool, error)

	// ReleaseExact subtracts n from usage when usage >= n; returns false
	// when the guard rejected (caller clamps to zero instead).
	ReleaseExact(ctx context.Context, owner models.OwnerRef, kind models.LedgerKind, n int64) (bool, error)

	// ClampZero forces usage to zero; the recovery path when a release
	// would have driven usage negative.
	ClampZero(ctx context.Context, owner models.OwnerRef, kind models.LedgerKind) error
}
