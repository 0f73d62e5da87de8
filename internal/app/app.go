// Package app assembles the vault engine: database, migrations, blob
// storage and the services, wired from one Config snapshot.
package app

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/blobstore"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/config"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/cryptox"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/filex"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/logging"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/repositories/repomanager"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/services"
)

type App struct {
	Config *config.Config
	Logger logging.Logger
	DB     *sql.DB
	Repos  repomanager.RepositoryManager

	Ledger *services.QuotaLedger
	Files  *services.FileService
	Vaults *services.VaultService
	Shares *services.ShareService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	key, err := hex.DecodeString(cfg.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("master key is not hex: %w", err)
	}
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", cryptox.KeySize, len(key))
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	if _, err := filex.EnsureDir(cfg.ScratchDir); err != nil {
		return nil, err
	}
	store, err := blobstore.NewDiskStore(cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	var replica *blobstore.S3Replica
	var presigner services.ReplicaPresigner
	if cfg.S3Enabled {
		replica = blobstore.NewS3Replica(blobstore.S3ReplicaConfig{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		presigner = replica
	}

	ledger := services.NewQuotaLedger(repos, cfg, logger)

	return &App{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Repos:  repos,
		Ledger: ledger,
		Files:  services.NewFileService(db, repos, cfg, ledger, store, replica, key, logger),
		Vaults: services.NewVaultService(db, repos, cfg, ledger, store, logger),
		Shares: services.NewShareService(db, repos, cfg, store, presigner, key, logger),
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
