// Package blobstore keeps ciphertext artifacts: a local disk store as
// the system of record and an optional S3-compatible replica.
package blobstore

import (
	"io"
	"os"
	"path/filepath"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/filex"
)

// DiskStore places each blob in a flat directory under its stored name.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &DiskStore{dir: abs}, nil
}

// Path returns the absolute location a blob occupies or would occupy.
func (s *DiskStore) Path(storedName string) string {
	return filepath.Join(s.dir, storedName)
}

// Save moves the file at src into the store. A cross-device rename
// falls back to copy-then-remove.
func (s *DiskStore) Save(src, storedName string) error {
	dst := s.Path(storedName)
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = filex.RemoveQuietly(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = filex.RemoveQuietly(dst)
		return err
	}
	return filex.RemoveQuietly(src)
}

func (s *DiskStore) Open(storedName string) (*os.File, error) {
	return os.Open(s.Path(storedName))
}

func (s *DiskStore) Remove(storedName string) error {
	return filex.RemoveQuietly(s.Path(storedName))
}
