package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
)

// Digest computes the hex-encoded SHA-256 of the file at path, streaming so
// file size is not bounded by memory. It is always run over encrypted bytes,
// so verification never needs the key.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open for digest: %v", common.ErrProcessing, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%w: digest: %v", common.ErrProcessing, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyDigest recomputes the digest of path and compares it to expected.
// A mismatch is a tamper signal the caller must surface, not an error.
func VerifyDigest(path, expected string) (bool, error) {
	actual, err := Digest(path)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1, nil
}
