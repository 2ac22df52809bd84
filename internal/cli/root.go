// Package cli implements the irl command-line interface using Cobra.
// Commands run against the local database directly; `irl serve` exposes the
// same services over HTTP.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagUser string
	flagJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "irl",
	Short: "irl — level up your real life",
	Long: `irl turns everyday tasks into RPG progression.
Complete tasks to earn points in six stats, keep daily streaks for bonus
points, unlock achievements and titles, and challenge other players.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", envOr("IRL_USER", "local"), "Player id to act as")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of text")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
