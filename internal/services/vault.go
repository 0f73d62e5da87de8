package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/blobstore"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/config"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/cryptox"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/dbx"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/identity"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/logging"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/repomanager"
)

// VaultService layers PIN-gated protection over files. Every state change
// runs inside one transaction so the PIN check, the destruct evaluation and
// the ledger movements commit or vanish together.
type VaultService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	cfg    *config.Config
	ledger *QuotaLedger
	store  *blobstore.DiskStore
	log    logging.Logger
}

func NewVaultService(db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config,
	ledger *QuotaLedger, store *blobstore.DiskStore, log logging.Logger) *VaultService {
	return &VaultService{db: db, repos: repos, cfg: cfg, ledger: ledger, store: store, log: log}
}

// AccessResult is what a successful PIN-verified access yields. When the
// entry had crossed its self-destruct deadline, Destroyed is true and File
// describes what was just removed; otherwise File is the protected file's
// metadata. Ciphertext never crosses this boundary.
type AccessResult struct {
	Destroyed bool
	Entry     *models.VaultEntry
	File      *models.File
}

// Add places an owned file under vault protection. The file's size is
// charged to the caller's vault ledger on top of its base storage charge.
func (s *VaultService) Add(ctx context.Context, p *identity.Principal, fileID, pin string, selfDestruct bool, destructAfter *time.Time) (*models.VaultEntry, error) {
	if !cryptox.ValidPinFormat(pin) {
		return nil, common.ErrInvalidPin
	}

	salt := cryptox.NewPinSalt()
	entry := &models.VaultEntry{
		ID:            uuid.New().String(),
		FileID:        fileID,
		UserID:        p.UserID,
		PinHash:       cryptox.HashPin(pin, salt),
		PinSalt:       salt,
		KeyMaterial:   common.GenerateRandByteArray(32),
		SelfDestruct:  selfDestruct,
		DestructAfter: destructAfter,
		CreatedAt:     time.Now().UTC(),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		f, err := s.repos.Files(tx).GetForOwner(ctx, fileID, p.UserID)
		if err != nil {
			return err
		}

		_, err = s.repos.Vaults(tx).GetByFileID(ctx, fileID)
		switch {
		case err == nil:
			return common.ErrAlreadyVaulted
		case errors.Is(err, common.ErrorNotFound):
		default:
			return err
		}

		vaultCeiling := s.ledger.VaultCeiling(p.Role)
		if err := s.ledger.Reserve(ctx, tx, models.UserRef(p.UserID), models.LedgerVault, f.Size, vaultCeiling, p.Role, p.Department); err != nil {
			return err
		}

		if err := s.repos.Vaults(tx).Create(ctx, entry); err != nil {
			return err
		}
		return s.repos.Audit(tx).Insert(ctx, newAuditEvent(p.UserID, fileID, models.AuditVaultAdd, ""))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "file vaulted", "fileID", fileID, "selfDestruct", selfDestruct)
	return entry, nil
}

// Access verifies the PIN and either returns the protected file's metadata
// or, when the self-destruct deadline has passed, destroys the entry and the
// file. Destruction happens only after a correct PIN; a wrong PIN returns
// ErrInvalidPin without touching any counter or deadline state.
//
// Concurrent accesses past the deadline race on the entry's row delete;
// exactly one wins and performs the refunds.
func (s *VaultService) Access(ctx context.Context, p *identity.Principal, vaultID, pin string) (*AccessResult, error) {
	if pin == "" {
		return nil, common.ErrPinRequired
	}

	var res *AccessResult
	var removeStored string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entry, err := s.repos.Vaults(tx).GetForUser(ctx, vaultID, p.UserID)
		if err != nil {
			return err
		}

		if !cryptox.VerifyPin(pin, entry.PinSalt, entry.PinHash) {
			return common.ErrInvalidPin
		}

		f, err := s.repos.Files(tx).Get(ctx, entry.FileID)
		if err != nil {
			return err
		}

		if entry.State(time.Now()) == models.VaultPendingDestruct {
			won, err := s.repos.Vaults(tx).Delete(ctx, entry.ID)
			if err != nil {
				return err
			}
			if won {
				flipped, err := s.repos.Files(tx).MarkDeleted(ctx, f.ID)
				if err != nil {
					return err
				}
				if flipped {
					owner := models.UserRef(f.OwnerID)
					if f.IsTeam {
						owner = models.TeamRef(f.TeamID)
					}
					if err := s.ledger.Release(ctx, tx, owner, models.LedgerStorage, f.Size); err != nil {
						return err
					}
				}
				if err := s.ledger.Release(ctx, tx, models.UserRef(entry.UserID), models.LedgerVault, f.Size); err != nil {
					return err
				}
				removeStored = f.StoredName
				if err := s.repos.Audit(tx).Insert(ctx, newAuditEvent(p.UserID, f.ID, models.AuditVaultDestruct, "")); err != nil {
					return err
				}
			}
			res = &AccessResult{Destroyed: true, Entry: entry, File: f}
			return nil
		}

		if err := s.repos.Vaults(tx).RecordAccess(ctx, entry.ID, time.Now().UTC()); err != nil {
			return err
		}
		if err := s.repos.Audit(tx).Insert(ctx, newAuditEvent(p.UserID, f.ID, models.AuditVaultAccess, "")); err != nil {
			return err
		}
		res = &AccessResult{Entry: entry, File: f}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if removeStored != "" {
		_ = s.store.Remove(removeStored)
		s.log.Info(ctx, "vault entry self-destructed", "vaultID", vaultID)
	}
	return res, nil
}

// Remove lifts vault protection without touching the file, refunding the
// vault ledger charge.
func (s *VaultService) Remove(ctx context.Context, p *identity.Principal, vaultID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entry, err := s.repos.Vaults(tx).GetForUser(ctx, vaultID, p.UserID)
		if err != nil {
			return err
		}
		f, err := s.repos.Files(tx).Get(ctx, entry.FileID)
		if err != nil {
			return err
		}

		won, err := s.repos.Vaults(tx).Delete(ctx, entry.ID)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}

		if err := s.ledger.Release(ctx, tx, models.UserRef(entry.UserID), models.LedgerVault, f.Size); err != nil {
			return err
		}
		return s.repos.Audit(tx).Insert(ctx, newAuditEvent(p.UserID, f.ID, models.AuditVaultRemove, ""))
	})
}
