package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
)

func TestShare_ViewOnlyLifecycle(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	p := member("u1")
	plaintext := []byte("shared content")
	f := e.upload(t, p, plaintext)

	share, err := e.shares.Create(ctx, p, f.ID, true, false, 0, "for alex")
	require.NoError(t, err)
	require.Len(t, share.Token, 64, "token must be 256 bits of hex")
	require.True(t, share.IsActive)
	require.Nil(t, share.ExpiresAt)

	// view succeeds and yields metadata only
	res, err := e.shares.Redeem(ctx, share.Token, ShareOpView)
	require.NoError(t, err)
	require.Equal(t, f.ID, res.File.ID)
	require.Empty(t, res.Path)

	// download is not granted
	_, err = e.shares.Redeem(ctx, share.Token, ShareOpDownload)
	require.ErrorIs(t, err, common.ErrorForbidden)

	// exactly one counted access so far: the forbidden attempt must not count
	got, err := e.repos.Shares(e.db).GetByToken(ctx, share.Token)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.AccessCount)
	require.NotNil(t, got.LastAccess)

	// grant download, then redeem the plaintext
	updated, err := e.shares.Update(ctx, p, share.ID, models.SharePatch{CanDownload: boolPtr(true)})
	require.NoError(t, err)
	require.True(t, updated.CanDownload)
	require.True(t, updated.CanView, "unpatched fields keep their values")

	res, err = e.shares.Redeem(ctx, share.Token, ShareOpDownload)
	require.NoError(t, err)
	require.True(t, res.Verified)
	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Equal(t, plaintext, data)
	require.NoError(t, res.Close())

	// deactivation is reversible and hides the token completely
	_, err = e.shares.Update(ctx, p, share.ID, models.SharePatch{IsActive: boolPtr(false)})
	require.NoError(t, err)
	_, err = e.shares.Redeem(ctx, share.Token, ShareOpView)
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = e.shares.Update(ctx, p, share.ID, models.SharePatch{IsActive: boolPtr(true)})
	require.NoError(t, err)
	_, err = e.shares.Redeem(ctx, share.Token, ShareOpView)
	require.NoError(t, err)

	// revocation is permanent
	require.NoError(t, e.shares.Revoke(ctx, p, share.ID))
	_, err = e.shares.Redeem(ctx, share.Token, ShareOpView)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestShare_UnknownToken(t *testing.T) {
	e := setupEnv(t)
	_, err := e.shares.Redeem(context.Background(), "no-such-token", ShareOpView)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestShare_Expired(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	p := member("u1")
	f := e.upload(t, p, []byte("content"))

	share, err := e.shares.Create(ctx, p, f.ID, true, true, 7, "")
	require.NoError(t, err)
	require.NotNil(t, share.ExpiresAt)

	// push the expiry into the past
	_, err = e.shares.Update(ctx, p, share.ID,
		models.SharePatch{ExpiresAt: timePtr(time.Now().Add(-time.Minute))})
	require.NoError(t, err)

	_, err = e.shares.Redeem(ctx, share.Token, ShareOpView)
	require.ErrorIs(t, err, common.ErrorExpired)

	// clearing the expiry revives the share
	_, err = e.shares.Update(ctx, p, share.ID, models.SharePatch{ClearExpiry: true})
	require.NoError(t, err)
	_, err = e.shares.Redeem(ctx, share.Token, ShareOpView)
	require.NoError(t, err)
}

func TestShare_FileGone(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	p := member("u1")
	f := e.upload(t, p, []byte("content"))

	share, err := e.shares.Create(ctx, p, f.ID, true, true, 0, "")
	require.NoError(t, err)

	require.NoError(t, e.files.Delete(ctx, p, f.ID))

	_, err = e.shares.Redeem(ctx, share.Token, ShareOpDownload)
	require.ErrorIs(t, err, common.ErrorFileGone)
}

func TestShare_CreateForForeignFile(t *testing.T) {
	e := setupEnv(t)
	f := e.upload(t, member("owner"), []byte("content"))

	_, err := e.shares.Create(context.Background(), member("intruder"), f.ID, true, false, 0, "")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestShare_MutationIsCreatorScoped(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	p := member("u1")
	f := e.upload(t, p, []byte("content"))

	share, err := e.shares.Create(ctx, p, f.ID, true, false, 0, "")
	require.NoError(t, err)

	_, err = e.shares.Update(ctx, member("intruder"), share.ID, models.SharePatch{IsActive: boolPtr(false)})
	require.ErrorIs(t, err, common.ErrorNotFound)

	err = e.shares.Revoke(ctx, member("intruder"), share.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	// the share is untouched
	got, err := e.repos.Shares(e.db).GetByToken(ctx, share.Token)
	require.NoError(t, err)
	require.True(t, got.IsActive)
}

func TestShare_ListByCreator(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	p := member("u1")
	f := e.upload(t, p, []byte("content"))

	_, err := e.shares.Create(ctx, p, f.ID, true, false, 0, "a")
	require.NoError(t, err)
	_, err = e.shares.Create(ctx, p, f.ID, false, true, 0, "b")
	require.NoError(t, err)

	list, err := e.shares.ListByCreator(ctx, p)
	require.NoError(t, err)
	require.Len(t, list, 2)

	other, err := e.shares.ListByCreator(ctx, member("other"))
	require.NoError(t, err)
	require.Empty(t, other)
}

type fakePresigner struct {
	url string
	err error
}

func (f *fakePresigner) PresignGet(ctx context.Context, storedName string) (string, error) {
	return f.url, f.err
}

func TestShare_RedeemCarriesReplicaURL(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	p := member("u1")
	f := e.upload(t, p, []byte("replicated"))

	shares := NewShareService(e.db, e.repos, e.cfg, e.store,
		&fakePresigner{url: "http://replica.example/blob"}, e.key, e.log)

	share, err := shares.Create(ctx, p, f.ID, true, true, 0, "")
	require.NoError(t, err)

	res, err := shares.Redeem(ctx, share.Token, ShareOpDownload)
	require.NoError(t, err)
	require.Equal(t, "http://replica.example/blob", res.ReplicaURL)
	require.NoError(t, res.Close())

	// view redemptions never touch the replica
	res, err = shares.Redeem(ctx, share.Token, ShareOpView)
	require.NoError(t, err)
	require.Empty(t, res.ReplicaURL)
}

func TestShare_RedeemSurvivesPresignFailure(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	p := member("u1")
	plaintext := []byte("still served")
	f := e.upload(t, p, plaintext)

	shares := NewShareService(e.db, e.repos, e.cfg, e.store,
		&fakePresigner{err: errors.New("replica down")}, e.key, e.log)

	share, err := shares.Create(ctx, p, f.ID, true, true, 0, "")
	require.NoError(t, err)

	res, err := shares.Redeem(ctx, share.Token, ShareOpDownload)
	require.NoError(t, err, "the local plaintext must satisfy the redemption")
	require.Empty(t, res.ReplicaURL)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Equal(t, plaintext, data)
	require.NoError(t, res.Close())
}

func TestShare_RedeemDoesNotTouchQuota(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	p := member("u1")
	f := e.upload(t, p, []byte("ten bytes!"))

	share, err := e.shares.Create(ctx, p, f.ID, true, true, 0, "")
	require.NoError(t, err)

	res, err := e.shares.Redeem(ctx, share.Token, ShareOpDownload)
	require.NoError(t, err)
	require.NoError(t, res.Close())

	require.Equal(t, int64(10), e.usage(t, models.UserRef("u1"), models.LedgerStorage))
}
