package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sololeveling-irl/irl/internal/app/challenge"
	"github.com/sololeveling-irl/irl/internal/daemon"
	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/ui"
)

func init() {
	challengeCreateCmd.Flags().StringVarP(&chType, "type", "t", "streak", "streak, level or weekly")
	challengeCreateCmd.Flags().StringVarP(&chStat, "stat", "s", "", "Stat to race (level)")
	challengeCreateCmd.Flags().IntVar(&chTarget, "target", 0, "Target level (level) or streak (streak)")
	challengeListCmd.Flags().BoolVar(&chAll, "all", false, "Include finished challenges")
	leaderboardCmd.Flags().IntVarP(&boardLimit, "limit", "n", 10, "Number of players to show")

	challengeCmd.AddCommand(challengeCreateCmd, challengeListCmd, challengeShowCmd,
		challengeAcceptCmd, challengeDeclineCmd, challengeCancelCmd, challengeSyncCmd)
	rootCmd.AddCommand(challengeCmd, leaderboardCmd)
}

var (
	chType     string
	chStat     string
	chTarget   int
	chAll      bool
	boardLimit int
)

var challengeCmd = &cobra.Command{
	Use:     "challenge",
	Aliases: []string{"ch"},
	Short:   "Compete with other players",
}

// parseChallengeType maps the short CLI names onto challenge types.
func parseChallengeType(s string) (domain.ChallengeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "streak", "streak_competition":
		return domain.ChallengeStreak, nil
	case "level", "race", "level_race":
		return domain.ChallengeLevel, nil
	case "weekly", "weekly_leaderboard":
		return domain.ChallengeWeekly, nil
	}
	return "", &domain.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown challenge type %q", s)}
}

var challengeCreateCmd = &cobra.Command{
	Use:   "create PLAYER",
	Short: "Challenge another player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := parseChallengeType(chType)
		if err != nil {
			return err
		}
		params := domain.ChallengeParams{}
		switch typ {
		case domain.ChallengeLevel:
			if params.Stat, err = parseStat(chStat); err != nil {
				return err
			}
			params.TargetLevel = chTarget
		case domain.ChallengeStreak:
			params.TargetStreak = chTarget
		}

		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		c, err := d.Challenges.Create(context.Background(), flagUser, args[0], typ, params)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), c)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s sent to %s [%s]\n", ui.IconVersus, c.Title, c.RecipientID, shortID(c.ID))
		return nil
	},
}

var challengeListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your challenges",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		list, err := d.Challenges.List(flagUser)
		if err != nil {
			return err
		}
		if !chAll {
			open := list[:0]
			for _, c := range list {
				if !c.Status.IsTerminal() {
					open = append(open, c)
				}
			}
			list = open
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), list)
		}
		renderChallenges(cmd.OutOrStdout(), list)
		return nil
	},
}

func renderChallenges(out io.Writer, list []domain.Challenge) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No challenges. Start one with 'irl challenge create PLAYER'.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tVS\tSTATUS\tWINNER")
	for _, c := range list {
		winner := c.Winner
		if winner == "" {
			winner = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortID(c.ID), c.Title, c.Opponent(flagUser), ui.ChallengeStatus(string(c.Status)), winner)
	}
	w.Flush()
}

func renderChallenge(w io.Writer, c domain.Challenge) {
	fmt.Fprintln(w, ui.Heading(ui.IconVersus, c.Title))
	fmt.Fprintln(w, ui.LabelValue("Status", ui.ChallengeStatus(string(c.Status))))
	fmt.Fprintln(w, ui.LabelValue("Players", strings.Join(c.Participants, " vs ")))
	if !c.Params.EndDate.IsZero() {
		fmt.Fprintln(w, ui.LabelValue("Ends", c.Params.EndDate.Format("2006-01-02 15:04")))
	}
	for _, uid := range c.Participants {
		p := c.Progress[uid]
		var v string
		switch c.Type {
		case domain.ChallengeStreak:
			v = fmt.Sprintf("streak %d", p.Streak)
		case domain.ChallengeLevel:
			v = fmt.Sprintf("Lv %d → %d / %d", p.StartLevel, p.CurrentLevel, c.Params.TargetLevel)
		case domain.ChallengeWeekly:
			v = fmt.Sprintf("%d pts", p.Points)
		}
		fmt.Fprintf(w, "  %-12s %s\n", uid, v)
	}
	if c.Status == domain.ChallengeCompleted {
		if c.Winner == "" {
			fmt.Fprintln(w, ui.Muted.Render("  Tie."))
		} else {
			fmt.Fprintln(w, ui.Gold.Render(fmt.Sprintf("  %s %s wins", ui.IconTrophy, c.Winner)))
		}
	}
}

// findChallenge resolves an id suffix among the user's challenges.
func findChallenge(d *daemon.Daemon, ref string) (string, error) {
	list, err := d.Challenges.List(flagUser)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}
	return resolveID(ref, ids)
}

// challengeAction builds a subcommand that applies one transition.
func challengeAction(use, short string, fn func(*challenge.Service, context.Context, string, string) (domain.Challenge, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := openPlayer()
			if err != nil {
				return err
			}
			defer d.Close()

			id, err := findChallenge(d, args[0])
			if err != nil {
				return err
			}
			c, err := fn(d.Challenges, context.Background(), id, flagUser)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), c)
			}
			renderChallenge(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

var (
	challengeAcceptCmd  = challengeAction("accept", "Accept a pending challenge", (*challenge.Service).Accept)
	challengeDeclineCmd = challengeAction("decline", "Decline a pending challenge", (*challenge.Service).Decline)
	challengeCancelCmd  = challengeAction("cancel", "Cancel a challenge", (*challenge.Service).Cancel)
	challengeSyncCmd    = challengeAction("sync", "Report your current progress", (*challenge.Service).Sync)
)

var challengeShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		id, err := findChallenge(d, args[0])
		if err != nil {
			return err
		}
		c, err := d.Challenges.Get(flagUser, id)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), c)
		}
		renderChallenge(cmd.OutOrStdout(), c)
		return nil
	},
}

// ─── Leaderboard ────────────────────────────────────────────────────────────

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"lb"},
	Short:   "Rank players by lifetime points",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		board, err := d.Challenges.Leaderboard(boardLimit)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), board)
		}
		renderLeaderboard(cmd.OutOrStdout(), board)
		return nil
	},
}

func renderLeaderboard(out io.Writer, board []challenge.LeaderboardEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPLAYER\tLEVEL\tPOINTS\tSTREAK")
	for _, e := range board {
		name := e.PlayerName
		if e.UserID == flagUser {
			name = ui.Gold.Render(name + " (you)")
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\n", e.Rank, name, e.OverallLevel, e.LifetimePoints, e.Streak)
	}
	w.Flush()
}
