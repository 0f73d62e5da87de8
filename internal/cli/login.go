package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/config"
	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/identity"
)

var (
	loginUser       string
	loginRole       string
	loginDepartment string
)

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "", "user id")
	loginCmd.Flags().StringVarP(&loginRole, "role", "r", "member", "role")
	loginCmd.Flags().StringVarP(&loginDepartment, "department", "D", "", "department")
	_ = loginCmd.MarkFlagRequired("user")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Create a local session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		token, err := identity.GenerateToken(identity.Principal{
			UserID:     loginUser,
			Role:       loginRole,
			Department: loginDepartment,
		}, []byte(cfg.SessionSecret), cfg.SessionTTL)
		if err != nil {
			return err
		}
		if err := saveSession(token); err != nil {
			return err
		}

		fmt.Println(color.GreenString("✓") + " logged in as " + color.YellowString(loginUser))
		return nil
	},
}
