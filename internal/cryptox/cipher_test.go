package cryptox

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
)

func testKey() []byte {
	key, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	return key
}

func writeTemp(t *testing.T, dir string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, "plain.bin")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	content := []byte("the quick brown fox jumps over the lazy dog")
	src := writeTemp(t, dir, content)
	enc := filepath.Join(dir, "cipher.bin")
	dec := filepath.Join(dir, "roundtrip.bin")

	iv, err := EncryptFile(src, enc, testKey())
	require.NoError(t, err)
	require.Len(t, iv, IVSize)

	ciphertext, err := os.ReadFile(enc)
	require.NoError(t, err)
	require.NotEqual(t, content, ciphertext, "ciphertext must differ from plaintext")
	require.Len(t, ciphertext, len(content), "CTR keeps length")

	require.NoError(t, DecryptFile(enc, dec, testKey(), iv))
	back, err := os.ReadFile(dec)
	require.NoError(t, err)
	require.Equal(t, content, back)
}

func TestEncryptFile_EmptyInput(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, nil)
	enc := filepath.Join(dir, "cipher.bin")
	dec := filepath.Join(dir, "back.bin")

	iv, err := EncryptFile(src, enc, testKey())
	require.NoError(t, err)
	require.NoError(t, DecryptFile(enc, dec, testKey(), iv))
	back, err := os.ReadFile(dec)
	require.NoError(t, err)
	require.Empty(t, back)
}

func TestEncryptFile_FreshIVPerCall(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, []byte("identical content"))
	enc := filepath.Join(dir, "cipher.bin")

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		iv, err := EncryptFile(src, enc, testKey())
		require.NoError(t, err)
		key := string(iv)
		if _, dup := seen[key]; dup {
			t.Fatalf("IV reused after %d encryptions", i)
		}
		seen[key] = struct{}{}
	}
}

func TestEncryptFile_SameContentDifferentCiphertext(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, []byte("identical content"))
	encA := filepath.Join(dir, "a.bin")
	encB := filepath.Join(dir, "b.bin")

	_, err := EncryptFile(src, encA, testKey())
	require.NoError(t, err)
	_, err = EncryptFile(src, encB, testKey())
	require.NoError(t, err)

	a, _ := os.ReadFile(encA)
	b, _ := os.ReadFile(encB)
	require.False(t, bytes.Equal(a, b), "fresh IVs must give distinct ciphertexts")
}

func TestDecryptFile_BadIVLength(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, []byte("x"))
	enc := filepath.Join(dir, "cipher.bin")
	_, err := EncryptFile(src, enc, testKey())
	require.NoError(t, err)

	err = DecryptFile(enc, filepath.Join(dir, "out.bin"), testKey(), []byte("short"))
	require.ErrorIs(t, err, common.ErrCipherKey)
}

func TestDecryptFile_WrongIVCorruptsPlaintext(t *testing.T) {
	dir := t.TempDir()
	content := []byte("sixteen byte blk plus some tail")
	src := writeTemp(t, dir, content)
	enc := filepath.Join(dir, "cipher.bin")
	dec := filepath.Join(dir, "out.bin")

	_, err := EncryptFile(src, enc, testKey())
	require.NoError(t, err)

	wrongIV := common.GenerateRandByteArray(IVSize)
	require.NoError(t, DecryptFile(enc, dec, testKey(), wrongIV))
	back, err := os.ReadFile(dec)
	require.NoError(t, err)
	require.NotEqual(t, content, back, "wrong IV must not reproduce plaintext")
}

func TestEncryptFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := EncryptFile(filepath.Join(dir, "nope"), filepath.Join(dir, "out"), testKey())
	require.ErrorIs(t, err, common.ErrProcessing)
}

func TestEncryptFile_BadKey(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, []byte("x"))
	_, err := EncryptFile(src, filepath.Join(dir, "out"), []byte("too-short"))
	require.Error(t, err)
	require.False(t, errors.Is(err, common.ErrProcessing), "key error is not an I/O failure")
}
