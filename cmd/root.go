package cmd

import (
	"socratic/internal/session"
	"socratic/internal/store"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "socratic",
	Short: "Socratic coding tutor server",
	Long:  "Socratic — a tutoring server that never reveals answers, guiding students with targeted questions while tracking their misconceptions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SOCRATIC_DB env var)")
	rootCmd.PersistentFlags().String("addr", "", "Listen address (overrides SOCRATIC_ADDR, default :3000)")
	rootCmd.PersistentFlags().Duration("session-ttl", session.DefaultIdleTTL, "Idle session eviction timeout (0 disables)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then SOCRATIC_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
