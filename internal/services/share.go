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
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/filex"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/identity"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/logging"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/repomanager"
)

// ShareOp is the operation a redeemer attempts against a share.
type ShareOp string

const (
	ShareOpView     ShareOp = "view"
	ShareOpDownload ShareOp = "download"
)

// ReplicaPresigner mints short-lived download URLs for replicated
// ciphertext blobs.
type ReplicaPresigner interface {
	PresignGet(ctx context.Context, storedName string) (string, error)
}

// ShareService manages bearer-token capabilities over files. Redemption
// authorizes by token possession alone; creation and mutation are
// creator-scoped.
type ShareService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	cfg     *config.Config
	store   *blobstore.DiskStore
	replica ReplicaPresigner // nil when the offsite replica is disabled
	key     []byte
	log     logging.Logger
}

func NewShareService(db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config,
	store *blobstore.DiskStore, replica ReplicaPresigner, key []byte, log logging.Logger) *ShareService {
	return &ShareService{db: db, repos: repos, cfg: cfg, store: store, replica: replica, key: key, log: log}
}

// RedeemResult is a successful redemption. Path is set only for downloads
// and points at decrypted plaintext in the scratch dir; Close removes it.
// ReplicaURL carries a presigned ciphertext GET URL when the offsite
// replica is enabled.
type RedeemResult struct {
	File       *models.File
	Path       string
	Verified   bool
	ReplicaURL string
}

func (r *RedeemResult) Close() error {
	if r.Path == "" {
		return nil
	}
	return filex.RemoveQuietly(r.Path)
}

// Create mints a share for an owned file. ttlDays <= 0 means no expiry.
func (s *ShareService) Create(ctx context.Context, p *identity.Principal, fileID string, canView, canDownload bool, ttlDays int, recipientHint string) (*models.Share, error) {
	f, err := s.repos.Files(s.db).GetForOwner(ctx, fileID, p.UserID)
	if err != nil {
		return nil, err
	}

	token, err := cryptox.NewShareToken()
	if err != nil {
		return nil, err
	}

	share := &models.Share{
		ID:            uuid.New().String(),
		Token:         token,
		FileID:        f.ID,
		CreatorID:     p.UserID,
		CanView:       canView,
		CanDownload:   canDownload,
		IsActive:      true,
		RecipientHint: recipientHint,
		CreatedAt:     time.Now().UTC(),
	}
	if ttlDays > 0 {
		exp := share.CreatedAt.Add(time.Duration(ttlDays) * 24 * time.Hour)
		share.ExpiresAt = &exp
	}

	if err := s.repos.Shares(s.db).Create(ctx, share); err != nil {
		return nil, err
	}
	if err := s.repos.Audit(s.db).Insert(ctx, newAuditEvent(p.UserID, f.ID, models.AuditShareCreate, recipientHint)); err != nil {
		s.log.Warn(ctx, "audit insert failed", "shareID", share.ID, "error", err.Error())
	}
	return share, nil
}

// Redeem evaluates the checks against one consistent read of the share, in
// order: existence and active flag (both surface as not-found so a revoked
// token is indistinguishable from one that never existed), expiry, the
// requested permission, and finally the file's presence. The access counter
// moves exactly once per success.
func (s *ShareService) Redeem(ctx context.Context, token string, op ShareOp) (*RedeemResult, error) {
	share, err := s.repos.Shares(s.db).GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !share.IsActive {
		return nil, common.ErrorNotFound
	}
	if share.Expired(time.Now()) {
		return nil, common.ErrorExpired
	}
	allowed := (op == ShareOpView && share.CanView) || (op == ShareOpDownload && share.CanDownload)
	if !allowed {
		return nil, common.ErrorForbidden
	}

	f, err := s.repos.Files(s.db).Get(ctx, share.FileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorFileGone
		}
		return nil, err
	}
	if f.IsDeleted || (s.cfg.FileExpirationEnabled && f.Expired(time.Now())) {
		return nil, common.ErrorFileGone
	}

	res := &RedeemResult{File: f}
	if op == ShareOpDownload {
		verified, err := cryptox.VerifyDigest(s.store.Path(f.StoredName), f.Digest)
		if err != nil {
			return nil, err
		}
		out := filex.ScratchPath(s.cfg.ScratchDir, f.Name)
		if err := cryptox.DecryptFile(s.store.Path(f.StoredName), out, s.key, f.IV); err != nil {
			return nil, err
		}
		res.Path = out
		res.Verified = verified

		if s.replica != nil {
			url, err := s.replica.PresignGet(ctx, f.StoredName)
			if err != nil {
				// the local plaintext already satisfies the redemption
				s.log.Warn(ctx, "replica presign failed", "fileID", f.ID, "error", err.Error())
			} else {
				res.ReplicaURL = url
			}
		}
	}

	if err := s.repos.Shares(s.db).RecordAccess(ctx, share.ID, time.Now().UTC()); err != nil {
		s.log.Warn(ctx, "share access record failed", "shareID", share.ID, "error", err.Error())
	}
	if err := s.repos.Audit(s.db).Insert(ctx, newAuditEvent(share.CreatorID, f.ID, models.AuditShareRedeem, string(op))); err != nil {
		s.log.Warn(ctx, "audit insert failed", "shareID", share.ID, "error", err.Error())
	}
	return res, nil
}

// Update applies a creator-scoped patch. Deactivating is reversible, unlike
// Revoke.
func (s *ShareService) Update(ctx context.Context, p *identity.Principal, shareID string, patch models.SharePatch) (*models.Share, error) {
	share, err := s.repos.Shares(s.db).GetForCreator(ctx, shareID, p.UserID)
	if err != nil {
		return nil, err
	}

	if patch.CanView != nil {
		share.CanView = *patch.CanView
	}
	if patch.CanDownload != nil {
		share.CanDownload = *patch.CanDownload
	}
	if patch.ClearExpiry {
		share.ExpiresAt = nil
	} else if patch.ExpiresAt != nil {
		share.ExpiresAt = patch.ExpiresAt
	}
	if patch.IsActive != nil {
		share.IsActive = *patch.IsActive
	}

	if err := s.repos.Shares(s.db).Update(ctx, share); err != nil {
		return nil, err
	}
	if err := s.repos.Audit(s.db).Insert(ctx, newAuditEvent(p.UserID, share.FileID, models.AuditShareUpdate, "")); err != nil {
		s.log.Warn(ctx, "audit insert failed", "shareID", share.ID, "error", err.Error())
	}
	return share, nil
}

// Revoke permanently deletes the share; its token can never authorize again.
func (s *ShareService) Revoke(ctx context.Context, p *identity.Principal, shareID string) error {
	share, err := s.repos.Shares(s.db).GetForCreator(ctx, shareID, p.UserID)
	if err != nil {
		return err
	}

	if _, err := s.repos.Shares(s.db).Delete(ctx, share.ID); err != nil {
		return err
	}
	if err := s.repos.Audit(s.db).Insert(ctx, newAuditEvent(p.UserID, share.FileID, models.AuditShareRevoke, "")); err != nil {
		s.log.Warn(ctx, "audit insert failed", "shareID", share.ID, "error", err.Error())
	}
	return nil
}

// ListByCreator returns the caller's shares.
func (s *ShareService) ListByCreator(ctx context.Context, p *identity.Principal) ([]*models.Share, error) {
	return s.repos.Shares(s.db).ListForCreator(ctx, p.UserID)
}
