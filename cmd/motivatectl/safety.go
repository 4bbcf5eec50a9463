package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/motivatem3/server/internal/config"
	"github.com/motivatem3/server/internal/inference"
	"github.com/motivatem3/server/internal/safety"
)

var (
	checkFeeling string
	checkGoal    string
)

// safetyCheckCmd runs one input through the live gate so operators can see
// which branch it takes and what the model would be asked.
var safetyCheckCmd = &cobra.Command{
	Use:   "safety-check",
	Short: "Run the safety gate against sample input",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(checkFeeling) == "" && strings.TrimSpace(checkGoal) == "" {
			return fmt.Errorf("provide --feeling or --goal")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		provider, err := inference.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		gate := safety.NewGate(provider, provider, provider,
			safety.NewReferenceCache(safety.HarmfulPhrases), cfg.HarmThreshold)

		ctx, cancel := context.WithTimeout(cmd.Context(), config.SafetyWarmTimeout)
		defer cancel()

		prompt := gate.Reframe(ctx, checkFeeling, checkGoal)
		fmt.Fprintf(cmd.OutOrStdout(), "provider: %s\n", provider.Name())
		fmt.Fprintf(cmd.OutOrStdout(), "emotion:  %s (%.2f)", prompt.Emotion.Label, prompt.Emotion.Score)
		if prompt.Emotion.Fallback {
			fmt.Fprint(cmd.OutOrStdout(), " [fallback]")
		}
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintf(cmd.OutOrStdout(), "mood:     %s\n", safety.MapToMood(prompt.Emotion.Label))
		fmt.Fprintf(cmd.OutOrStdout(), "harmful:  %t\n", prompt.Harmful)
		fmt.Fprintf(cmd.OutOrStdout(), "branch:   %s\n", prompt.Branch)
		fmt.Fprintf(cmd.OutOrStdout(), "prompt:\n%s\n", prompt.Text)
		return nil
	},
}

func init() {
	safetyCheckCmd.Flags().StringVar(&checkFeeling, "feeling", "", "how the user says they feel")
	safetyCheckCmd.Flags().StringVar(&checkGoal, "goal", "", "what the user wants to achieve")
	rootCmd.AddCommand(safetyCheckCmd)
}
