package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sololeveling-irl/irl/internal/api"
	"github.com/sololeveling-irl/irl/internal/daemon"
)

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenName, "name", "", "Display name carried in the token")
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "Token lifetime")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

var (
	tokenName string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue PLAYER",
	Short: "Sign a bearer token for a player with auth.jwt_secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := daemon.LoadConfig()
		if err != nil {
			return err
		}
		auth := api.NewAuthenticator(cfg.Auth.JWTSecret)
		if auth.HeaderMode() {
			return fmt.Errorf("auth.jwt_secret is not set in %s/config.toml", daemon.Home())
		}
		tok, err := auth.Issue(args[0], tokenName, tokenTTL, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}
