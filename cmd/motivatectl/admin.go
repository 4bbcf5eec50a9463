package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/motivatem3/server/internal/repository"
	"github.com/motivatem3/server/internal/service"
)

var revokeAdmin bool

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin <email>",
	Short: "Grant or revoke admin access for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		admin := service.NewAdminService(
			repository.NewAccountRepository(db.DB),
			repository.NewMotivationRepository(db.DB),
		)
		if err := admin.Promote(cmd.Context(), args[0], !revokeAdmin); err != nil {
			return err
		}

		if revokeAdmin {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is no longer an admin\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", args[0])
		}
		return nil
	},
}

func init() {
	promoteAdminCmd.Flags().BoolVar(&revokeAdmin, "revoke", false, "remove admin access instead of granting it")
	rootCmd.AddCommand(promoteAdminCmd)
}
