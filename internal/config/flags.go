package config

import (
	"flag"
	"os"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-w string   ciphertext working directory
//	-x string   scratch directory for ephemeral plaintext
//	-k string   hex-encoded master key
//	-s string   session token HMAC secret
//	-m int      max file size, bytes
//	-q int      default personal storage quota, bytes
//	-v int      default personal vault quota, bytes
//
// Quota maps and toggles live in the JSON overlay only. The function filters
// os.Args through flagx.FilterArgs first so it never collides with flags
// owned by other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-w", "-x", "-k", "-s", "-m", "-q", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.WorkDir, "w", config.WorkDir, "ciphertext working directory")
	fs.StringVar(&config.ScratchDir, "x", config.ScratchDir, "scratch directory")
	fs.StringVar(&config.MasterKey, "k", config.MasterKey, "hex master key")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret")
	fs.Int64Var(&config.MaxFileSize, "m", config.MaxFileSize, "max file size (bytes)")
	fs.Int64Var(&config.DefaultStorageQuota, "q", config.DefaultStorageQuota, "default storage quota (bytes)")
	fs.Int64Var(&config.DefaultVaultQuota, "v", config.DefaultVaultQuota, "default vault quota (bytes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
