package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/config"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/identity"
)

func sessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".elysian-vault")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "session"), nil
}

func saveSession(token string) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

// currentPrincipal verifies the stored session token against the configured
// secret and returns the caller it identifies.
func currentPrincipal(cfg *config.Config) (*identity.Principal, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return identity.FromToken(strings.TrimSpace(string(raw)), []byte(cfg.SessionSecret))
}
