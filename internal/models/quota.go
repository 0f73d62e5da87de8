package models

// OwnerKind distinguishes the two account holders of the base ledger.
type OwnerKind string

const (
	OwnerUser OwnerKind = "user"
	OwnerTeam OwnerKind = "team"
)

// LedgerKind distinguishes the base storage ledger from the vault ledger.
// A file's size is charged to base storage on upload; vaulting layers an
// additional, independent vault charge on top without touching the base one.
type LedgerKind string

const (
	LedgerStorage LedgerKind = "storage"
	LedgerVault   LedgerKind = "vault"
)

// OwnerRef identifies one ledger account holder.
type OwnerRef struct {
	Kind OwnerKind
	ID   string
}

// UserRef is shorthand for a personal account reference.
func UserRef(id string) OwnerRef { return OwnerRef{Kind: OwnerUser, ID: id} }

// TeamRef is shorthand for a team account reference.
func TeamRef(id string) OwnerRef { return OwnerRef{Kind: OwnerTeam, ID: id} }

// QuotaAccount is one usage ledger row. Usage is never observed negative and
// never exceeds the effective ceiling past a committed reserve.
type QuotaAccount struct {
	OwnerKind OwnerKind
	OwnerID   string
	Kind      LedgerKind
	Usage     int64
	Ceiling   int64 // common.UnlimitedQuota means unlimited
}
