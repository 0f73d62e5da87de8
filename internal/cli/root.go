// Package cli implements the vaultctl command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/app"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/config"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/identity"
)

var rootCmd = &cobra.Command{
	Use:   "vaultctl",
	Short: "vaultctl - encrypted file vault with quotas, PIN protection and shares",
	Long: `vaultctl manages an encrypted file vault.

Files are encrypted at rest with a per-file IV, charged against quota
ledgers, optionally locked behind a PIN with self-destruct, and shareable
through bearer capability tokens.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(vaultCmd)
	rootCmd.AddCommand(shareCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp loads config, boots the engine and resolves the stored session
// before handing control to the command body.
func withApp(fn func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.LoadConfig()

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := currentPrincipal(cfg)
		if err != nil {
			return fmt.Errorf("no valid session, run 'vaultctl login' first: %w", err)
		}
		return fn(ctx, a, p, args)
	}
}
