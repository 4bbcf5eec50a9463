package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/motivatem3/server/internal/util"
)

// hashPasswordCmd prints a hash compatible with the accounts table, for
// seeding fixtures or repairing an account by hand.
var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash for a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := util.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}
