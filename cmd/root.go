package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prelims",
	Short: "Timed practice with previous-year questions",
	Long:  "Prelims is a terminal app for practising previous-year exam questions against the clock and tracking accuracy by subject and topic.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

// Execute runs the command line with ctx, which commands use for
// cancellation.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PRELIMS_DB env var)")
	rootCmd.PersistentFlags().String("store", "", "Profile store backend: sqlite, postgres, mongo or memory (overrides PRELIMS_STORE)")
	rootCmd.PersistentFlags().String("corpus", "", "Directory with a question corpus to use instead of the built-in one")

	rootCmd.Flags().Bool("skip-welcome", false, "Start on the home screen")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(corpusCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}
