package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/app"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/identity"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/models"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/services"
)

var (
	shareView     bool
	shareDownload bool
	shareTTLDays  int
	shareHint     string

	shareSetView     string
	shareSetDownload string
	shareSetActive   string

	redeemDownload bool
	redeemOut      string
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Manage capability tokens",
}

func init() {
	shareCreateCmd.Flags().BoolVar(&shareView, "view", true, "allow metadata view")
	shareCreateCmd.Flags().BoolVar(&shareDownload, "download", false, "allow download")
	shareCreateCmd.Flags().IntVar(&shareTTLDays, "ttl-days", 0, "days until expiry, 0 for none")
	shareCreateCmd.Flags().StringVar(&shareHint, "hint", "", "recipient hint label")

	shareUpdateCmd.Flags().StringVar(&shareSetView, "view", "", "set view permission (true/false)")
	shareUpdateCmd.Flags().StringVar(&shareSetDownload, "download", "", "set download permission (true/false)")
	shareUpdateCmd.Flags().StringVar(&shareSetActive, "active", "", "activate or deactivate (true/false)")

	shareRedeemCmd.Flags().BoolVar(&redeemDownload, "download", false, "download instead of viewing metadata")
	shareRedeemCmd.Flags().StringVarP(&redeemOut, "out", "o", "", "output path for downloads")

	shareCmd.AddCommand(shareCreateCmd)
	shareCmd.AddCommand(shareRedeemCmd)
	shareCmd.AddCommand(shareUpdateCmd)
	shareCmd.AddCommand(shareRevokeCmd)
	shareCmd.AddCommand(shareLsCmd)
}

func parseBoolFlag(v string) (*bool, error) {
	switch v {
	case "":
		return nil, nil
	case "true":
		t := true
		return &t, nil
	case "false":
		f := false
		return &f, nil
	default:
		return nil, fmt.Errorf("expected true or false, got %q", v)
	}
}

var shareCreateCmd = &cobra.Command{
	Use:   "create <file-id>",
	Short: "Mint a capability token for a file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		s, err := a.Shares.Create(ctx, p, args[0], shareView, shareDownload, shareTTLDays, shareHint)
		if err != nil {
			return err
		}
		fmt.Println(color.GreenString("✓") + " share " + s.ID)
		fmt.Println("token: " + color.YellowString(s.Token))
		return nil
	}),
}

var shareRedeemCmd = &cobra.Command{
	Use:   "redeem <token>",
	Short: "Redeem a capability token",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		op := services.ShareOpView
		if redeemDownload {
			op = services.ShareOpDownload
		}

		res, err := a.Shares.Redeem(ctx, args[0], op)
		if err != nil {
			return err
		}
		defer res.Close()

		if op == services.ShareOpView {
			fmt.Printf("%s  %10d  %s\n", res.File.ID, res.File.Size, res.File.Name)
			return nil
		}

		if !res.Verified {
			fmt.Println(color.RedString("✗") + " integrity check failed, ciphertext was modified")
		}
		out := redeemOut
		if out == "" {
			out = res.File.Name
		}
		if err := copyFile(res.Path, out); err != nil {
			return err
		}
		fmt.Println(color.GreenString("✓") + " wrote " + color.YellowString(out))
		if res.ReplicaURL != "" {
			fmt.Println("replica: " + res.ReplicaURL)
		}
		return nil
	}),
}

var shareUpdateCmd = &cobra.Command{
	Use:   "update <share-id>",
	Short: "Change a share's permissions or active flag",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		var patch models.SharePatch
		var err error
		if patch.CanView, err = parseBoolFlag(shareSetView); err != nil {
			return err
		}
		if patch.CanDownload, err = parseBoolFlag(shareSetDownload); err != nil {
			return err
		}
		if patch.IsActive, err = parseBoolFlag(shareSetActive); err != nil {
			return err
		}

		if _, err := a.Shares.Update(ctx, p, args[0], patch); err != nil {
			return err
		}
		fmt.Println(color.GreenString("✓") + " updated")
		return nil
	}),
}

var shareRevokeCmd = &cobra.Command{
	Use:   "revoke <share-id>",
	Short: "Permanently revoke a share",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		if err := a.Shares.Revoke(ctx, p, args[0]); err != nil {
			return err
		}
		fmt.Println(color.GreenString("✓") + " revoked")
		return nil
	}),
}

var shareLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List your shares",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		list, err := a.Shares.ListByCreator(ctx, p)
		if err != nil {
			return err
		}
		for _, s := range list {
			state := color.GreenString("active")
			if !s.IsActive {
				state = color.RedString("inactive")
			}
			fmt.Printf("%s  file=%s  view=%t download=%t  %s\n",
				s.ID, s.FileID, s.CanView, s.CanDownload, state)
		}
		return nil
	}),
}
