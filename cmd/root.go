package cmd

import (
	"github.com/abhisek/skillscope/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "skillscope",
	Short:        "Adaptive skill profiles for students",
	Long:         "Skillscope records exercise attempts and keeps a per-student skill profile: mastery per skill, trend, and a recommended difficulty.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SKILLSCOPE_DB env var)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress pipeline logs on stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(windowCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then SKILLSCOPE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
