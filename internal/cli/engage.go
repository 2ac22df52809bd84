package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/ui"
)

func init() {
	achievementsCmd.Flags().BoolVar(&achLocked, "all", false, "Include locked achievements with progress")
	inboxCmd.Flags().IntVarP(&inboxLimit, "limit", "n", 20, "Number of notifications to show")
	inboxCmd.Flags().BoolVar(&inboxKeep, "keep", false, "Do not mark shown notifications as read")

	titlesCmd.AddCommand(titlesSelectCmd, titlesClearCmd)
	rootCmd.AddCommand(achievementsCmd, titlesCmd, inboxCmd)
}

var (
	achLocked  bool
	inboxLimit int
	inboxKeep  bool
)

// ─── Achievements ───────────────────────────────────────────────────────────

var achievementsCmd = &cobra.Command{
	Use:     "achievements",
	Aliases: []string{"ach"},
	Short:   "Show unlocked achievements and progress",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, state, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		statuses, err := d.Achievements.Statuses(flagUser, state, domain.DateOf(d.Clock.Now()))
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), statuses)
		}
		renderAchievements(cmd.OutOrStdout(), statuses, achLocked, d.Achievements.TotalCount())

		// Mark every unread popup as seen: the list just showed them.
		notes, err := d.Achievements.Notifications(flagUser)
		if err != nil {
			return err
		}
		for _, n := range notes {
			if !n.Read {
				_ = d.Achievements.MarkRead(flagUser, n.ID)
			}
		}
		return nil
	},
}

func renderAchievements(out io.Writer, statuses []domain.AchievementStatus, all bool, total int) {
	unlocked := 0
	for _, s := range statuses {
		if s.Unlocked {
			unlocked++
		}
	}
	fmt.Fprintln(out, ui.Heading(ui.IconTrophy, fmt.Sprintf("Achievements %d/%d", unlocked, total)))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, s := range statuses {
		switch {
		case s.Unlocked:
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Icon, ui.Gold.Render(s.Title), s.Description, s.UnlockedAt.Format("2006-01-02"))
		case all:
			fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\n", "🔒", ui.Muted.Render(s.Title), s.Description, s.Progress.Current, s.Progress.Target)
		}
	}
	w.Flush()
}

// ─── Titles ─────────────────────────────────────────────────────────────────

var titlesCmd = &cobra.Command{
	Use:   "titles",
	Short: "List titles and which ones you hold",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		rec, err := d.Titles.Record(flagUser)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), rec)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\tID\tTITLE\tRARITY\tREQUIREMENT")
		for _, def := range d.Titles.Definitions() {
			if !rec.Has(def.ID) && def.Category == domain.TitleCatChallenge {
				continue
			}
			mark := " "
			switch {
			case rec.Selected == def.ID:
				mark = "★"
			case rec.Has(def.ID):
				mark = "✓"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, def.ID, ui.Rarity(def.Name, def.Rarity.Color), def.Rarity.Name, def.Description)
		}
		return w.Flush()
	},
}

var titlesSelectCmd = &cobra.Command{
	Use:   "select ID",
	Short: "Display an earned title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := d.Titles.Select(flagUser, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Now displaying %s\n", ui.IconCrown, args[0])
		return nil
	},
}

var titlesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Stop displaying a title",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := d.Titles.Deselect(flagUser); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Title cleared")
		return nil
	},
}

// ─── Inbox ──────────────────────────────────────────────────────────────────

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Show unseen notifications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		notes, err := d.Notifications.Pending(flagUser, inboxLimit)
		if err != nil {
			return err
		}
		if flagJSON {
			if err := printJSON(cmd.OutOrStdout(), notes); err != nil {
				return err
			}
		} else if len(notes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Inbox empty.")
		} else {
			for _, n := range notes {
				renderNotification(cmd.OutOrStdout(), n)
			}
		}
		if inboxKeep {
			return nil
		}
		for _, n := range notes {
			if err := d.Notifications.MarkShown(flagUser, n.ID); err != nil {
				return err
			}
		}
		return nil
	},
}

func renderNotification(w io.Writer, n domain.Notification) {
	icon := ui.IconBell
	switch n.Type {
	case domain.NotifyAchievement:
		icon = ui.IconTrophy
	case domain.NotifyTitle:
		icon = ui.IconCrown
	case domain.NotifyLevelUp:
		icon = ui.IconBolt
	case domain.NotifyChallengeCreated, domain.NotifyChallengeAccepted, domain.NotifyChallengeComplete,
		domain.NotifyChallengeDeclined, domain.NotifyChallengeCanceled:
		icon = ui.IconVersus
	}
	fmt.Fprintf(w, "%s %s %s\n   %s\n", icon, ui.H2.Render(n.Title), ui.Muted.Render(n.CreatedAt.Format("Jan 2 15:04")), n.Message)
}
