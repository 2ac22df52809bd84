package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sololeveling-irl/irl/internal/app/engagement"
	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/ui"
)

func init() {
	taskAddCmd.Flags().StringVarP(&taskStat, "stat", "s", "", "Stat the task trains (required)")
	taskAddCmd.Flags().StringVarP(&taskType, "type", "t", "REGULAR", "SIMPLE, REGULAR, CHALLENGE, MAJOR or MILESTONE")
	_ = taskAddCmd.MarkFlagRequired("stat")
	taskHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of completions to show")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskDoneCmd, taskRmCmd, taskHistoryCmd)
	rootCmd.AddCommand(taskCmd, dailyCmd)
}

var (
	taskStat     string
	taskType     string
	historyLimit int
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"t"},
	Short:   "Add, list and complete tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a pending task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stat, err := parseStat(taskStat)
		if err != nil {
			return err
		}
		typ, err := parseTaskType(taskType)
		if err != nil {
			return err
		}
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		res, err := d.Players.AddTask(context.Background(), flagUser, strings.Join(args, " "), stat, typ, "")
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), res.Added)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s [%s] %s (+%d)\n", ui.IconPlus, res.Added.Name,
			shortID(res.Added.ID), stat.DisplayName(), engagement.BasePoints(typ))
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List pending tasks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := d.Planner.RunDaily(context.Background(), flagUser); err != nil {
			return err
		}
		state, err := d.Players.State(flagUser)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), state.Tasks)
		}
		if len(state.Tasks) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No pending tasks. Add one with 'irl task add NAME --stat strength'.")
			return nil
		}
		renderTasks(cmd.OutOrStdout(), state.Tasks)
		return nil
	},
}

func renderTasks(out io.Writer, tasks []domain.PendingTask) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTAT\tTYPE\tPOINTS")
	for _, t := range tasks {
		name := t.Name
		if t.FromRecurring != "" {
			name = ui.IconLoop + " " + name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", shortID(t.ID), name, t.Stat.DisplayName(), t.Type, engagement.BasePoints(t.Type))
	}
	w.Flush()
}

var taskDoneCmd = &cobra.Command{
	Use:   "done ID",
	Short: "Complete a pending task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, state, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		id, err := resolveID(args[0], pendingIDs(state))
		if err != nil {
			return err
		}
		res, err := d.Players.CompleteTask(context.Background(), flagUser, id)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		renderCompletion(cmd.OutOrStdout(), res)
		return nil
	},
}

func renderCompletion(w io.Writer, res engagement.Result) {
	c := res.Completion
	if c == nil {
		return
	}
	pts := fmt.Sprintf("+%d %s", c.Task.Points, c.Task.Stat.DisplayName())
	if c.Task.BonusPoints > 0 {
		pts += ui.Gold.Render(fmt.Sprintf(" (incl. +%d streak bonus)", c.Task.BonusPoints))
	}
	fmt.Fprintf(w, "%s %s  %s\n", ui.IconDone, c.Task.Name, ui.Good.Render(pts))
	if c.LeveledUp {
		fmt.Fprintf(w, "%s %s Lv %d → %d\n", ui.BadgeLevelUp, c.Task.Stat.DisplayName(), c.OldLevel, c.NewLevel)
	}
	fmt.Fprintln(w, ui.LabelValue(ui.IconFire+" Streak", c.Streak.Current))
	for _, a := range res.Unlocked {
		fmt.Fprintf(w, "%s Achievement unlocked: %s %s\n", ui.IconTrophy, a.Icon, ui.Gold.Render(a.Title))
	}
	for _, t := range res.Titles {
		fmt.Fprintf(w, "%s Title earned: %s\n", ui.IconCrown, ui.Rarity(t.Name, t.Rarity.Color))
	}
}

var taskRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a pending task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, state, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		id, err := resolveID(args[0], pendingIDs(state))
		if err != nil {
			return err
		}
		if _, err := d.Players.DeleteTask(context.Background(), flagUser, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", shortID(id))
		return nil
	},
}

var taskHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent completions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, state, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		done := state.CompletedTasks
		if historyLimit > 0 && len(done) > historyLimit {
			done = done[len(done)-historyLimit:]
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), done)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "COMPLETED\tNAME\tSTAT\tPOINTS")
		for i := len(done) - 1; i >= 0; i-- {
			t := done[i]
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", t.CompletedAt.Format("2006-01-02 15:04"), t.Name, t.Stat.DisplayName(), t.Points)
		}
		return w.Flush()
	},
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Generate today's recurring and scheduled tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		added, err := d.Planner.RunDaily(context.Background(), flagUser)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), added)
		}
		if len(added) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing new today.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d task(s) added for today\n", ui.IconCal, len(added))
		renderTasks(cmd.OutOrStdout(), added)
		return nil
	},
}

func pendingIDs(state domain.PlayerState) []string {
	ids := make([]string, len(state.Tasks))
	for i, t := range state.Tasks {
		ids[i] = t.ID
	}
	return ids
}
