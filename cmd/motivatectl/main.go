package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/motivatem3/server/internal/config"
	"github.com/motivatem3/server/internal/database"
)

var (
	envFile string
	verbose bool
)

// rootCmd is the operator CLI. Subcommands share the server's environment.
var rootCmd = &cobra.Command{
	Use:   "motivatectl",
	Short: "Operate a MotivateM3 deployment",
	Long: `Operator tooling for MotivateM3.

Available subcommands:
  migrate        - Apply or inspect database migrations
  hash-password  - Print a bcrypt hash for a password
  promote-admin  - Grant or revoke admin access for an account
  safety-check   - Run the safety gate against sample input`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load variables from this file before the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if envFile != "" {
		return config.Load(envFile)
	}
	return config.Load()
}

// openDatabase connects with the server's pool settings. The caller closes
// the handle.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	return database.Connect(ctx, cfg.DatabaseURL)
}
