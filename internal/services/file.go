package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/blobstore"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/config"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/cryptox"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/dbx"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/filex"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/identity"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/logging"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/repomanager"
)

// FileService runs the encrypt-store-record pipeline and its inverse.
// Plaintext only ever exists at the user-supplied source path and in the
// scratch dir; everything at rest in the work dir is ciphertext.
type FileService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	cfg     *config.Config
	ledger  *QuotaLedger
	store   *blobstore.DiskStore
	replica *blobstore.S3Replica // nil when the offsite replica is disabled
	key     []byte
	log     logging.Logger
}

func NewFileService(db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config,
	ledger *QuotaLedger, store *blobstore.DiskStore, replica *blobstore.S3Replica,
	key []byte, log logging.Logger) *FileService {
	return &FileService{
		db: db, repos: repos, cfg: cfg, ledger: ledger,
		store: store, replica: replica, key: key, log: log,
	}
}

// UploadRequest describes one upload. TeamID switches the quota charge to
// the team ledger; ExpiresAt is honored only when expiration is enabled.
type UploadRequest struct {
	Path      string
	Name      string
	MediaType string
	TeamID    string
	ExpiresAt *time.Time
}

// DownloadResult hands the caller a decrypted scratch copy. Close removes
// the plaintext; callers must not skip it.
type DownloadResult struct {
	File *models.File

	// Path is the decrypted plaintext in the scratch dir.
	Path string

	// Verified reports whether the stored digest matched the ciphertext
	// before decryption. A false value means the artifact was tampered with
	// or corrupted; the plaintext is still produced so the caller can decide
	// what to salvage.
	Verified bool
}

func (r *DownloadResult) Close() error {
	return filex.RemoveQuietly(r.Path)
}

func (s *FileService) storageOwner(f *models.File) (models.OwnerRef, int64) {
	if f.IsTeam {
		return models.TeamRef(f.TeamID), s.cfg.DefaultTeamQuota
	}
	return models.UserRef(f.OwnerID), s.cfg.DefaultStorageQuota
}

// Upload encrypts the source file into the work dir, digests the ciphertext
// and commits the metadata row together with the quota charge. The artifact
// is removed again if the transaction does not commit.
func (s *FileService) Upload(ctx context.Context, p *identity.Principal, req UploadRequest) (*models.File, error) {
	info, err := os.Stat(req.Path)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if s.cfg.MaxFileSize > 0 && info.Size() > s.cfg.MaxFileSize {
		return nil, common.ErrFileTooLarge
	}

	f := &models.File{
		ID:         uuid.New().String(),
		OwnerID:    p.UserID,
		TeamID:     req.TeamID,
		Name:       req.Name,
		StoredName: uuid.New().String(),
		Size:       info.Size(),
		MediaType:  req.MediaType,
		IsTeam:     req.TeamID != "",
		CreatedAt:  time.Now().UTC(),
	}
	if s.cfg.FileExpirationEnabled {
		f.ExpiresAt = req.ExpiresAt
	}

	// encrypt into scratch, then move the finished artifact into the store
	staged := filex.ScratchPath(s.cfg.ScratchDir, ".enc")
	iv, err := cryptox.EncryptFile(req.Path, staged, s.key)
	if err != nil {
		return nil, err
	}
	f.IV = iv

	digest, err := cryptox.Digest(staged)
	if err != nil {
		_ = filex.RemoveQuietly(staged)
		return nil, err
	}
	f.Digest = digest

	if err := s.store.Save(staged, f.StoredName); err != nil {
		_ = filex.RemoveQuietly(staged)
		return nil, err
	}

	owner, defaultCeiling := s.storageOwner(f)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.ledger.Reserve(ctx, tx, owner, models.LedgerStorage, f.Size, defaultCeiling, p.Role, p.Department); err != nil {
			return err
		}
		if err := s.repos.Files(tx).Create(ctx, f); err != nil {
			return err
		}
		return s.repos.Audit(tx).Insert(ctx, newAuditEvent(p.UserID, f.ID, models.AuditFileUpload, f.Name))
	})
	if err != nil {
		_ = s.store.Remove(f.StoredName)
		return nil, err
	}

	if s.replica != nil {
		if err := s.replicate(ctx, f.StoredName); err != nil {
			// the disk copy is the system of record; replication is advisory
			s.log.Warn(ctx, "replica upload failed", "fileID", f.ID, "error", err.Error())
		}
	}

	s.log.Info(ctx, "file uploaded", "fileID", f.ID, "size", f.Size, "team", f.IsTeam)
	return f, nil
}

// Download verifies the ciphertext digest and decrypts into the scratch dir.
// An expired file is lazily deleted and reported as expired.
func (s *FileService) Download(ctx context.Context, p *identity.Principal, fileID string) (*DownloadResult, error) {
	f, err := s.repos.Files(s.db).GetForOwner(ctx, fileID, p.UserID)
	if err != nil {
		return nil, err
	}

	if s.cfg.FileExpirationEnabled && f.Expired(time.Now()) {
		if err := s.Delete(ctx, p, f.ID); err != nil {
			s.log.Warn(ctx, "lazy expiry delete failed", "fileID", f.ID, "error", err.Error())
		}
		return nil, common.ErrorExpired
	}

	verified, err := cryptox.VerifyDigest(s.store.Path(f.StoredName), f.Digest)
	if err != nil {
		return nil, err
	}

	out := filex.ScratchPath(s.cfg.ScratchDir, f.Name)
	if err := cryptox.DecryptFile(s.store.Path(f.StoredName), out, s.key, f.IV); err != nil {
		return nil, err
	}

	if err := s.repos.Audit(s.db).Insert(ctx, newAuditEvent(p.UserID, f.ID, models.AuditFileDownload, "")); err != nil {
		s.log.Warn(ctx, "audit insert failed", "fileID", f.ID, "error", err.Error())
	}

	return &DownloadResult{File: f, Path: out, Verified: verified}, nil
}

// VerifyFile recomputes the ciphertext digest and compares it to the stored
// one without producing any plaintext.
func (s *FileService) VerifyFile(ctx context.Context, p *identity.Principal, fileID string) (bool, error) {
	f, err := s.repos.Files(s.db).GetForOwner(ctx, fileID, p.UserID)
	if err != nil {
		return false, err
	}
	return cryptox.VerifyDigest(s.store.Path(f.StoredName), f.Digest)
}

// Delete soft-deletes the file and refunds its quota charge exactly once.
// A vault entry wrapping the file is removed in the same transaction, with
// its vault charge refunded to the entry's owner.
func (s *FileService) Delete(ctx context.Context, p *identity.Principal, fileID string) error {
	var storedName string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		f, err := s.repos.Files(tx).GetForOwner(ctx, fileID, p.UserID)
		if err != nil {
			return err
		}
		storedName = f.StoredName

		flipped, err := s.repos.Files(tx).MarkDeleted(ctx, f.ID)
		if err != nil {
			return err
		}
		if !flipped {
			// lost the race with a concurrent delete; the winner refunded
			return nil
		}

		owner, _ := s.storageOwner(f)
		if err := s.ledger.Release(ctx, tx, owner, models.LedgerStorage, f.Size); err != nil {
			return err
		}

		if err := s.cascadeVaultEntry(ctx, tx, f); err != nil {
			return err
		}

		return s.repos.Audit(tx).Insert(ctx, newAuditEvent(p.UserID, f.ID, models.AuditFileDelete, ""))
	})
	if err != nil {
		return err
	}

	if storedName != "" {
		_ = s.store.Remove(storedName)
	}
	return nil
}

// DeleteTeamFiles soft-deletes every active file of a team and refunds the
// team ledger, one transaction per file so a failure mid-way leaves the
// survivors consistent.
func (s *FileService) DeleteTeamFiles(ctx context.Context, p *identity.Principal, teamID string) error {
	list, err := s.repos.Files(s.db).ListActiveForTeam(ctx, teamID)
	if err != nil {
		return err
	}

	for _, f := range list {
		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			flipped, err := s.repos.Files(tx).MarkDeleted(ctx, f.ID)
			if err != nil {
				return err
			}
			if !flipped {
				return nil
			}
			if err := s.ledger.Release(ctx, tx, models.TeamRef(teamID), models.LedgerStorage, f.Size); err != nil {
				return err
			}
			if err := s.cascadeVaultEntry(ctx, tx, f); err != nil {
				return err
			}
			return s.repos.Audit(tx).Insert(ctx, newAuditEvent(p.UserID, f.ID, models.AuditFileDelete, "team cascade"))
		})
		if err != nil {
			return err
		}
		_ = s.store.Remove(f.StoredName)
	}
	return nil
}

// List returns the caller's active files, hiding expired ones.
func (s *FileService) List(ctx context.Context, p *identity.Principal) ([]*models.File, error) {
	list, err := s.repos.Files(s.db).ListActiveForOwner(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !s.cfg.FileExpirationEnabled {
		return list, nil
	}

	now := time.Now()
	out := list[:0]
	for _, f := range list {
		if !f.Expired(now) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *FileService) replicate(ctx context.Context, storedName string) error {
	blob, err := s.store.Open(storedName)
	if err != nil {
		return err
	}
	defer blob.Close()
	return s.replica.Upload(ctx, storedName, blob)
}

// cascadeVaultEntry removes the vault entry wrapping a file being deleted
// and refunds its vault charge to the entry's owner, at most once.
func (s *FileService) cascadeVaultEntry(ctx context.Context, tx dbx.DBTX, f *models.File) error {
	entry, err := s.repos.Vaults(tx).GetByFileID(ctx, f.ID)
	switch {
	case err == nil:
		won, err := s.repos.Vaults(tx).Delete(ctx, entry.ID)
		if err != nil {
			return err
		}
		if won {
			return s.ledger.Release(ctx, tx, models.UserRef(entry.UserID), models.LedgerVault, f.Size)
		}
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return err
	}
}

func newAuditEvent(actorID, fileID, action, detail string) *models.AuditEvent {
	return &models.AuditEvent{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		FileID:    fileID,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
}
