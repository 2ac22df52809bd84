package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sololeveling-irl/irl/internal/daemon"
	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/infra/redisbus"
	"github.com/sololeveling-irl/irl/internal/logger"
)

func init() {
	watchCmd.Flags().BoolVar(&watchAll, "all", false, "Show notifications for every player")
	rootCmd.AddCommand(watchCmd)
}

var watchAll bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live notifications from a running server over Redis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := daemon.LoadConfig()
		if err != nil {
			return err
		}
		if !cfg.Redis.Enabled {
			return fmt.Errorf("redis is disabled; set [redis] enabled = true in %s/config.toml", daemon.Home())
		}
		log, err := logger.New(cfg.Logging.Mode, "warn")
		if err != nil {
			return err
		}
		bus, err := redisbus.New(cfg.Redis.Addr, cfg.Redis.Channel, log)
		if err != nil {
			return err
		}
		defer bus.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		err = bus.Subscribe(ctx, func(n domain.Notification) {
			if watchAll || n.UserID == flagUser {
				renderNotification(out, n)
			}
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", bus.Channel())
		<-ctx.Done()
		return nil
	},
}
