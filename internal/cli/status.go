package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sololeveling-irl/irl/internal/app/engagement"
	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/ui"
)

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm the reset")
	rootCmd.AddCommand(statusCmd, renameCmd, resetCmd)
}

var resetYes bool

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"st"},
	Short:   "Show level, rank, streak and stats",
	Args:    cobra.NoArgs,
	RunE:    runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, _, err := openPlayer()
	if err != nil {
		return err
	}
	defer d.Close()

	// Like opening the app: today's recurring tasks appear first.
	if _, err := d.Planner.RunDaily(context.Background(), flagUser); err != nil {
		return err
	}
	state, err := d.Players.State(flagUser)
	if err != nil {
		return err
	}
	sum := engagement.Summarize(state, domain.DateOf(d.Clock.Now()))
	rec, err := d.Titles.Record(flagUser)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), struct {
			engagement.PlayerSummary
			SelectedTitle string `json:"selected_title,omitempty"`
		}{sum, rec.Selected})
	}
	title := ""
	if def, ok := engagement.FindTitle(rec.Selected); ok {
		title = ui.Rarity(def.Name, def.Rarity.Color)
	}
	renderSummary(cmd.OutOrStdout(), sum, title)
	return nil
}

func renderSummary(w io.Writer, sum engagement.PlayerSummary, title string) {
	name := sum.PlayerName
	if title != "" {
		name += " · " + title
	}
	fmt.Fprintln(w, ui.Heading(ui.IconSword, name))
	fmt.Fprintf(w, "%s  %s\n", ui.LabelValue("Level", sum.OverallLevel), ui.Rank(sum.Rank))

	streak := fmt.Sprintf("%d day(s) (best %d)", sum.Streak.Current, sum.Streak.Longest)
	if sum.BonusPct > 0 {
		streak += ui.Gold.Render(fmt.Sprintf("  +%d%% bonus", sum.BonusPct))
	}
	fmt.Fprintln(w, ui.LabelValue(ui.IconFire+" Streak", streak))
	fmt.Fprintln(w, ui.LabelValue("Tasks", fmt.Sprintf("%d pending, %d done", sum.PendingTasks, sum.CompletedTasks)))
	fmt.Fprintln(w)

	var b strings.Builder
	for _, s := range sum.Stats {
		fmt.Fprintf(&b, "%-14s Lv %-3d %s %d/%d\n", s.Name, s.Level, ui.Bar(s.ProgressPct), s.Points, s.PointsToNext)
	}
	fmt.Fprint(w, ui.Panel.Render(strings.TrimRight(b.String(), "\n")))
	fmt.Fprintln(w)
}

var renameCmd = &cobra.Command{
	Use:   "rename NAME",
	Short: "Change the player name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		res, err := d.Players.Rename(context.Background(), flagUser, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed to %s\n", res.State.PlayerName)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset all progression (keeps name, achievements and titles)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("this wipes stats, tasks and streak; re-run with --yes")
		}
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := d.Players.Reset(context.Background(), flagUser); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render("Progress reset."))
		return nil
	},
}
