package vaults

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func entryRows(v *models.VaultEntry) *sqlmock.Rows {
	var lastAccessed, destructAfter any
	if v.LastAccessed != nil {
		lastAccessed = *v.LastAccessed
	}
	if v.DestructAfter != nil {
		destructAfter = *v.DestructAfter
	}
	return sqlmock.NewRows([]string{
		"id", "file_id", "user_id", "pin_hash", "pin_salt", "key_material",
		"last_accessed", "access_count", "self_destruct", "destruct_after", "created_at",
	}).AddRow(v.ID, v.FileID, v.UserID, v.PinHash, v.PinSalt, v.KeyMaterial,
		lastAccessed, v.AccessCount, v.SelfDestruct, destructAfter, v.CreatedAt)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+vault_entries\b`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.VaultEntry{
		ID: "v1", FileID: "f1", UserID: "u1",
		PinHash: []byte("h"), PinSalt: []byte("s"), KeyMaterial: []byte("k"),
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetForUser_CrossUserIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT .+ FROM vault_entries WHERE id=\$1 AND user_id=\$2`).
		WithArgs("v1", "intruder").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetForUser(context.Background(), "v1", "intruder")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestGetByFileID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	deadline := time.Now().Add(-time.Hour).UTC()
	v := &models.VaultEntry{
		ID: "v1", FileID: "f1", UserID: "u1",
		PinHash: []byte("h"), PinSalt: []byte("s"), KeyMaterial: []byte("k"),
		SelfDestruct: true, DestructAfter: &deadline, CreatedAt: time.Now().UTC(),
	}
	mock.ExpectQuery(`(?s)SELECT .+ FROM vault_entries WHERE file_id=\$1`).
		WithArgs("f1").
		WillReturnRows(entryRows(v))

	got, err := repo.GetByFileID(context.Background(), "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.SelfDestruct || got.DestructAfter == nil || !got.DestructAfter.Equal(deadline) {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if got.State(time.Now()) != models.VaultPendingDestruct {
		t.Fatalf("expected pending destruct state")
	}
}

func TestDelete_SingleWinner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM vault_entries WHERE id=\$1`).
		WithArgs("v1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	won, err := repo.Delete(context.Background(), "v1")
	if err != nil || !won {
		t.Fatalf("first delete must win: %v %v", won, err)
	}

	mock.ExpectExec(`DELETE FROM vault_entries WHERE id=\$1`).
		WithArgs("v1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	won, err = repo.Delete(context.Background(), "v1")
	if err != nil || won {
		t.Fatalf("second delete must not win: %v %v", won, err)
	}
}

func TestRecordAccess(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec(`UPDATE vault_entries SET access_count = access_count \+ 1, last_accessed = \$1 WHERE id=\$2`).
		WithArgs(at, "v1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordAccess(context.Background(), "v1", at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(`UPDATE vault_entries SET access_count = access_count \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.RecordAccess(context.Background(), "gone", at); err == nil {
		t.Fatalf("expected error for missing entry")
	}
}
