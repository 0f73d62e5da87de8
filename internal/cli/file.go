package cli

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/app"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/identity"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/services"
)

var (
	uploadTeam    string
	uploadExpires string
	downloadOut   string
)

func init() {
	uploadCmd.Flags().StringVarP(&uploadTeam, "team", "t", "", "charge the upload to a team")
	uploadCmd.Flags().StringVarP(&uploadExpires, "expires", "e", "", "expiry, RFC 3339")
	downloadCmd.Flags().StringVarP(&downloadOut, "out", "o", "", "output path (default: original name)")
}

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Encrypt and store a file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		src := args[0]
		req := services.UploadRequest{
			Path:      src,
			Name:      filepath.Base(src),
			MediaType: mime.TypeByExtension(filepath.Ext(src)),
			TeamID:    uploadTeam,
		}
		if uploadExpires != "" {
			t, err := time.Parse(time.RFC3339, uploadExpires)
			if err != nil {
				return fmt.Errorf("bad expiry: %w", err)
			}
			req.ExpiresAt = &t
		}

		f, err := a.Files.Upload(ctx, p, req)
		if err != nil {
			return err
		}
		fmt.Println(color.GreenString("✓") + " stored " + color.YellowString(f.Name) + " as " + f.ID)
		return nil
	}),
}

var downloadCmd = &cobra.Command{
	Use:   "download <file-id>",
	Short: "Decrypt a stored file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		res, err := a.Files.Download(ctx, p, args[0])
		if err != nil {
			return err
		}
		defer res.Close()

		if !res.Verified {
			fmt.Println(color.RedString("✗") + " integrity check failed, ciphertext was modified")
		}

		out := downloadOut
		if out == "" {
			out = res.File.Name
		}
		if err := copyFile(res.Path, out); err != nil {
			return err
		}
		fmt.Println(color.GreenString("✓") + " wrote " + color.YellowString(out))
		return nil
	}),
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List your files",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		list, err := a.Files.List(ctx, p)
		if err != nil {
			return err
		}
		for _, f := range list {
			fmt.Printf("%s  %10d  %s\n", f.ID, f.Size, f.Name)
		}
		return nil
	}),
}

var rmCmd = &cobra.Command{
	Use:   "rm <file-id>",
	Short: "Delete a file and refund its quota",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		if err := a.Files.Delete(ctx, p, args[0]); err != nil {
			return err
		}
		fmt.Println(color.GreenString("✓") + " deleted")
		return nil
	}),
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file-id>",
	Short: "Check a file's ciphertext against its stored digest",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app.App, p *identity.Principal, args []string) error {
		ok, err := a.Files.VerifyFile(ctx, p, args[0])
		if err != nil {
			return err
		}
		if ok {
			fmt.Println(color.GreenString("✓") + " intact")
		} else {
			fmt.Println(color.RedString("✗") + " digest mismatch")
		}
		return nil
	}),
}

func copyFile(src, dst string) error {
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
		return err
	}
	return out.Close()
}
