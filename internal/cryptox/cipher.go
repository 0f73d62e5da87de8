// Package cryptox implements the cryptographic primitives of the vault:
// the streaming file cipher, the ciphertext content digest, the salted PIN
// hash and the share-token generator. The digest and the PIN hash are
// deliberately separate primitives: the digest is fast and deterministic for
// tamper detection, the PIN hash is slow and salted for brute-force
// resistance.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"
	"os"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/filex"
)

const (
	// KeySize is the length of the process-wide AES-256 key.
	KeySize = 32
	// IVSize is the per-file initialization vector length (one AES block).
	IVSize = aes.BlockSize
)

// EncryptFile streams srcPath through AES-256-CTR into dstPath and returns
// the fresh random IV used. The IV is generated exactly once per file and
// must be persisted by the caller alongside the file record. Partial output
// is removed on any failure.
func EncryptFile(srcPath, dstPath string, key []byte) (iv []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open source: %v", common.ErrProcessing, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: create ciphertext: %v", common.ErrProcessing, err)
	}

	iv = common.GenerateRandByteArray(IVSize)
	w := &cipher.StreamWriter{S: cipher.NewCTR(block, iv), W: dst}

	if _, err := io.Copy(w, src); err != nil {
		_ = dst.Close()
		_ = filex.RemoveQuietly(dstPath)
		return nil, fmt.Errorf("%w: encrypt: %v", common.ErrProcessing, err)
	}
	if err := dst.Close(); err != nil {
		_ = filex.RemoveQuietly(dstPath)
		return nil, fmt.Errorf("%w: close ciphertext: %v", common.ErrProcessing, err)
	}
	return iv, nil
}

// DecryptFile streams the ciphertext at srcPath into a plaintext file at
// dstPath using the stored IV. A malformed IV is ErrCipherKey (the ciphertext
// cannot be transformed), which is distinct from a digest mismatch. Partial
// output is removed on any failure; the caller owns the plaintext artifact
// afterwards and must guarantee its cleanup on every exit path.
func DecryptFile(srcPath, dstPath string, key, iv []byte) error {
	if len(iv) != IVSize {
		return fmt.Errorf("%w: iv length %d", common.ErrCipherKey, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCipherKey, err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("%w: open ciphertext: %v", common.ErrProcessing, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("%w: create plaintext: %v", common.ErrProcessing, err)
	}

	r := &cipher.StreamReader{S: cipher.NewCTR(block, iv), R: src}

	if _, err := io.Copy(dst, r); err != nil {
		_ = dst.Close()
		_ = filex.RemoveQuietly(dstPath)
		return fmt.Errorf("%w: decrypt: %v", common.ErrProcessing, err)
	}
	if err := dst.Close(); err != nil {
		_ = filex.RemoveQuietly(dstPath)
		return fmt.Errorf("%w: close plaintext: %v", common.ErrProcessing, err)
	}
	return nil
}
