package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/blobstore"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/config"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/filex"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/identity"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/logging"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/repomanager"
)

// The engine's SQL is portable, so the full upload/vault/share flows are
// exercised end to end against a real database file.
const testSchema = `
CREATE TABLE files (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	team_id     TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL,
	stored_name TEXT NOT NULL,
	size        INTEGER NOT NULL,
	media_type  TEXT NOT NULL DEFAULT '',
	iv          BLOB NOT NULL,
	digest      TEXT NOT NULL,
	is_deleted  BOOLEAN NOT NULL DEFAULT FALSE,
	is_team     BOOLEAN NOT NULL DEFAULT FALSE,
	expires_at  TIMESTAMP,
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE quota_accounts (
	owner_kind  TEXT NOT NULL,
	owner_id    TEXT NOT NULL,
	kind        TEXT NOT NULL,
	usage_bytes INTEGER NOT NULL DEFAULT 0,
	ceiling     INTEGER NOT NULL,
	PRIMARY KEY (owner_kind, owner_id, kind)
);

CREATE TABLE vault_entries (
	id             TEXT PRIMARY KEY,
	file_id        TEXT NOT NULL UNIQUE,
	user_id        TEXT NOT NULL,
	pin_hash       BLOB NOT NULL,
	pin_salt       BLOB NOT NULL,
	key_material   BLOB NOT NULL,
	last_accessed  TIMESTAMP,
	access_count   INTEGER NOT NULL DEFAULT 0,
	self_destruct  BOOLEAN NOT NULL DEFAULT FALSE,
	destruct_after TIMESTAMP,
	created_at     TIMESTAMP NOT NULL
);

CREATE TABLE shares (
	id             TEXT PRIMARY KEY,
	token          TEXT NOT NULL UNIQUE,
	file_id        TEXT NOT NULL,
	creator_id     TEXT NOT NULL,
	can_view       BOOLEAN NOT NULL DEFAULT TRUE,
	can_download   BOOLEAN NOT NULL DEFAULT FALSE,
	expires_at     TIMESTAMP,
	is_active      BOOLEAN NOT NULL DEFAULT TRUE,
	access_count   INTEGER NOT NULL DEFAULT 0,
	last_access    TIMESTAMP,
	recipient_hint TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMP NOT NULL
);

CREATE TABLE audit_events (
	id         TEXT PRIMARY KEY,
	actor_id   TEXT NOT NULL,
	file_id    TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
`

type testEnv struct {
	db     *sql.DB
	cfg    *config.Config
	repos  repomanager.RepositoryManager
	ledger *QuotaLedger
	store  *blobstore.DiskStore
	key    []byte
	log    logging.Logger

	files  *FileService
	vaults *VaultService
	shares *ShareService
}

func testMasterKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open("sqlite", "file:"+t.TempDir()+"/vault.db?_pragma=busy_timeout(10000)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	base := t.TempDir()
	cfg := &config.Config{
		WorkDir:               filepath.Join(base, "work"),
		ScratchDir:            filepath.Join(base, "scratch"),
		MaxFileSize:           1 << 20,
		FileExpirationEnabled: true,
		DefaultStorageQuota:   1000,
		DefaultTeamQuota:      1000,
		DefaultVaultQuota:     1000,
		RoleStorageQuotas:     map[string]int64{"admin": common.UnlimitedQuota},
		VaultPermissions:      map[string]int64{"admin": common.UnlimitedQuota},
		DepartmentBonuses:     map[string]int64{"research": 500},
	}
	_, err = filex.EnsureDir(cfg.ScratchDir)
	require.NoError(t, err)

	store, err := blobstore.NewDiskStore(cfg.WorkDir)
	require.NoError(t, err)

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	repos := repomanager.NewPostgresRepositoryManager()
	ledger := NewQuotaLedger(repos, cfg, log)
	key := testMasterKey()

	return &testEnv{
		db:     db,
		cfg:    cfg,
		repos:  repos,
		ledger: ledger,
		store:  store,
		key:    key,
		log:    log,
		files:  NewFileService(db, repos, cfg, ledger, store, nil, key, log),
		vaults: NewVaultService(db, repos, cfg, ledger, store, log),
		shares: NewShareService(db, repos, cfg, store, nil, key, log),
	}
}

func member(id string) *identity.Principal {
	return &identity.Principal{UserID: id, Role: "member"}
}

func (e *testEnv) usage(t *testing.T, owner models.OwnerRef, kind models.LedgerKind) int64 {
	t.Helper()
	a, err := e.repos.Quotas(e.db).Get(context.Background(), owner, kind)
	if errors.Is(err, common.ErrorNotFound) {
		return 0
	}
	require.NoError(t, err)
	return a.Usage
}

func (e *testEnv) writeSource(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func (e *testEnv) upload(t *testing.T, p *identity.Principal, content []byte) *models.File {
	t.Helper()
	f, err := e.files.Upload(context.Background(), p, UploadRequest{
		Path:      e.writeSource(t, content),
		Name:      "doc.txt",
		MediaType: "text/plain",
	})
	require.NoError(t, err)
	return f
}

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }
