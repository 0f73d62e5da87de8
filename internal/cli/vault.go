package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/app"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/identity"
)

var (
	vaultSelfDestruct bool
	vaultDestructIn   time.Duration
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage PIN-protected files",
}

func init() {
	vaultAddCmd.Flags().BoolVar(&vaultSelfDestruct, "self-destruct", false, "destroy the file on first access past the deadline")
	vaultAddCmd.Flags().DurationVar(&vaultDestructIn, "destruct-in", 0, "self-destruct deadline, e.g. 72h")

	vaultCmd.AddCommand(vaultAddCmd)
	vaultCmd.AddCommand(vaultOpenCmd)
	vaultCmd.AddCommand(vaultRemoveCmd)
}

// promptPin reads the PIN without echoing it.
func promptPin() (string, error) {
	fmt.Print("PIN: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

var vaultAddCmd = &cobra.Command{
	Use:   "add <file-id>",
	Short: "Place a file under PIN protection",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		pin, err := promptPin()
		if err != nil {
			return err
		}

		var deadline *time.Time
		if vaultSelfDestruct && vaultDestructIn > 0 {
			t := time.Now().Add(vaultDestructIn)
			deadline = &t
		}

		entry, err := a.Vaults.Add(ctx, p, args[0], pin, vaultSelfDestruct, deadline)
		if err != nil {
			return err
		}
		fmt.Println(color.GreenString("✓") + " vaulted, entry " + entry.ID)
		return nil
	}),
}

var vaultOpenCmd = &cobra.Command{
	Use:   "open <vault-id>",
	Short: "Access a vaulted file's metadata",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		pin, err := promptPin()
		if err != nil {
			return err
		}

		res, err := a.Vaults.Access(ctx, p, args[0], pin)
		if err != nil {
			return err
		}
		if res.Destroyed {
			fmt.Println(color.RedString("✗") + " entry had passed its self-destruct deadline; file destroyed")
			return nil
		}
		fmt.Printf("%s  %10d  %s  accesses=%d\n",
			res.File.ID, res.File.Size, res.File.Name, res.Entry.AccessCount+1)
		return nil
	}),
}

var vaultRemoveCmd = &cobra.Command{
	Use:   "remove <vault-id>",
	Short: "Lift PIN protection without touching the file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		if err := a.Vaults.Remove(ctx, p, args[0]); err != nil {
			return err
		}
		fmt.Println(color.GreenString("✓") + " protection removed")
		return nil
	}),
}
