package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sololeveling-irl/irl/internal/app/schedule"
	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/ui"
)

func init() {
	ruleAddCmd.Flags().StringVarP(&planStat, "stat", "s", "", "Stat the task trains (required)")
	ruleAddCmd.Flags().StringVarP(&planType, "type", "t", "REGULAR", "Task type")
	ruleAddCmd.Flags().StringVar(&ruleEvery, "every", "day", `"day", a weekday ("mon") or a list ("mon,wed,fri")`)
	_ = ruleAddCmd.MarkFlagRequired("stat")
	ruleCmd.AddCommand(ruleAddCmd, ruleListCmd, ruleRmCmd)

	scheduleAddCmd.Flags().StringVarP(&planStat, "stat", "s", "", "Stat the task trains (required)")
	scheduleAddCmd.Flags().StringVarP(&planType, "type", "t", "REGULAR", "Task type")
	scheduleAddCmd.Flags().StringVarP(&scheduleDate, "date", "d", "", "Date as YYYY-MM-DD (required)")
	_ = scheduleAddCmd.MarkFlagRequired("stat")
	_ = scheduleAddCmd.MarkFlagRequired("date")
	scheduleCmd.AddCommand(scheduleAddCmd, scheduleListCmd, scheduleRmCmd)

	calendarCmd.Flags().BoolVarP(&calendarWeek, "week", "w", false, "Show the whole week")

	suggestCmd.Flags().IntVarP(&suggestCount, "count", "n", 0, "Number of suggestions (default from config)")

	templateAddCmd.Flags().StringVarP(&planStat, "stat", "s", "", "Stat the task trains (required)")
	templateAddCmd.Flags().StringVarP(&planType, "type", "t", "REGULAR", "Task type")
	templateAddCmd.Flags().BoolVar(&templateFavorite, "favorite", false, "Save as a favorite instead of personal")
	_ = templateAddCmd.MarkFlagRequired("stat")
	templateCmd.AddCommand(templateAddCmd, templateListCmd, templateRmCmd)

	rootCmd.AddCommand(ruleCmd, scheduleCmd, calendarCmd, suggestCmd, templateCmd)
}

var (
	planStat         string
	planType         string
	ruleEvery        string
	scheduleDate     string
	calendarWeek     bool
	suggestCount     int
	templateFavorite bool
)

// ─── Rules ──────────────────────────────────────────────────────────────────

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage recurring tasks",
}

// parseEvery turns --every into a rule frequency and its days.
func parseEvery(s string) (domain.Frequency, int, []int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "day", "daily":
		return domain.FrequencyDaily, 0, nil, nil
	}
	if strings.Contains(s, ",") {
		days, err := parseWeekdays(s)
		if err != nil {
			return "", 0, nil, err
		}
		return domain.FrequencySpecificDays, 0, days, nil
	}
	day, err := parseWeekday(s)
	if err != nil {
		return "", 0, nil, err
	}
	return domain.FrequencyWeekly, day, nil, nil
}

var ruleAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a recurring task rule",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stat, err := parseStat(planStat)
		if err != nil {
			return err
		}
		typ, err := parseTaskType(planType)
		if err != nil {
			return err
		}
		freq, day, days, err := parseEvery(ruleEvery)
		if err != nil {
			return err
		}
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		rule, err := d.Planner.AddRule(flagUser, schedule.RuleInput{
			Name:       strings.Join(args, " "),
			Stat:       stat,
			Type:       typ,
			Frequency:  freq,
			DayOfWeek:  day,
			DaysOfWeek: days,
		})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), rule)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s [%s] %s\n", ui.IconLoop, rule.Name, shortID(rule.ID), describeRule(rule))
		return nil
	},
}

func describeRule(r domain.RecurringRule) string {
	switch r.Frequency {
	case domain.FrequencyWeekly:
		return "every " + r.DayOfWeek.String()
	case domain.FrequencySpecificDays:
		names := make([]string, len(r.DaysOfWeek))
		for i, d := range r.DaysOfWeek {
			names[i] = d.String()[:3]
		}
		return "on " + strings.Join(names, ", ")
	default:
		return "every day"
	}
}

var ruleListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recurring rules",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		rules, err := d.Planner.Rules(flagUser)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), rules)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTAT\tTYPE\tWHEN\tLAST")
		for _, r := range rules {
			last := string(r.LastGenerated)
			if last == "" {
				last = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", shortID(r.ID), r.Name, r.Stat.DisplayName(), r.Type, describeRule(r), last)
		}
		return w.Flush()
	},
}

var ruleRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a recurring rule (generated tasks stay)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		rules, err := d.Planner.Rules(flagUser)
		if err != nil {
			return err
		}
		ids := make([]string, len(rules))
		for i, r := range rules {
			ids[i] = r.ID
		}
		id, err := resolveID(args[0], ids)
		if err != nil {
			return err
		}
		if err := d.Planner.DeleteRule(flagUser, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed rule %s\n", shortID(id))
		return nil
	},
}

// ─── Scheduled ──────────────────────────────────────────────────────────────

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage one-off tasks for a date",
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Schedule a task for a date",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stat, err := parseStat(planStat)
		if err != nil {
			return err
		}
		typ, err := parseTaskType(planType)
		if err != nil {
			return err
		}
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		s, err := d.Planner.AddScheduled(flagUser, schedule.ScheduleInput{
			Name: strings.Join(args, " "),
			Stat: stat,
			Type: typ,
			Date: scheduleDate,
		})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), s)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s [%s] on %s\n", ui.IconCal, s.Name, shortID(s.ID), s.ScheduledDate)
		return nil
	},
}

var scheduleListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List scheduled tasks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		items, err := d.Planner.Scheduled(flagUser)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), items)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tNAME\tSTAT\tTYPE")
		for _, s := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortID(s.ID), s.ScheduledDate, s.Name, s.Stat.DisplayName(), s.Type)
		}
		return w.Flush()
	},
}

var scheduleRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a scheduled task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		items, err := d.Planner.Scheduled(flagUser)
		if err != nil {
			return err
		}
		ids := make([]string, len(items))
		for i, s := range items {
			ids[i] = s.ID
		}
		id, err := resolveID(args[0], ids)
		if err != nil {
			return err
		}
		if err := d.Planner.DeleteScheduled(flagUser, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed scheduled task %s\n", shortID(id))
		return nil
	},
}

// ─── Calendar ───────────────────────────────────────────────────────────────

var calendarCmd = &cobra.Command{
	Use:     "calendar [DATE]",
	Aliases: []string{"cal"},
	Short:   "Show what is planned for a day or week",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		day := domain.DateOf(d.Clock.Now())
		if len(args) == 1 {
			if day, err = domain.ParseDate(args[0]); err != nil {
				return err
			}
		}

		if calendarWeek {
			week, err := d.Planner.Week(flagUser, day)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), week)
			}
			renderWeek(cmd.OutOrStdout(), week)
			return nil
		}

		entries, err := d.Planner.Day(flagUser, day)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), entries)
		}
		renderDay(cmd.OutOrStdout(), day, entries)
		return nil
	},
}

func renderDay(w io.Writer, day domain.Date, entries []domain.CalendarEntry) {
	fmt.Fprintln(w, ui.H2.Render(fmt.Sprintf("%s %s", day.Weekday().String()[:3], day)))
	if len(entries) == 0 {
		fmt.Fprintln(w, ui.Muted.Render("  nothing planned"))
		return
	}
	for _, e := range entries {
		icon := ui.IconCal
		if e.Recurring {
			icon = ui.IconLoop
		}
		fmt.Fprintf(w, "  %s %s %s\n", icon, e.Name, ui.Muted.Render(fmt.Sprintf("(%s, %s)", e.Stat.DisplayName(), e.Type)))
	}
}

func renderWeek(w io.Writer, week map[domain.Date][]domain.CalendarEntry) {
	days := make([]domain.Date, 0, len(week))
	for d := range week {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	if len(days) > 0 {
		fmt.Fprintln(w, ui.Heading(ui.IconCal, weekLabel(days[0])))
	}
	for _, d := range days {
		renderDay(w, d, week[d])
	}
}

// ─── Suggestions and templates ──────────────────────────────────────────────

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest tasks, favoring your weakest stat",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		n := suggestCount
		if n <= 0 {
			n = d.Config.Game.SuggestionCount
		}
		got, err := d.Planner.Suggest(flagUser, n)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), got)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconSparkle, "Suggested quests"))
		renderTemplates(cmd.OutOrStdout(), got)
		return nil
	},
}

func renderTemplates(out io.Writer, ts []domain.TaskTemplate) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTAT\tTYPE\tCATEGORY")
	for _, t := range ts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortID(t.ID), t.Name, t.Stat.DisplayName(), t.Type, t.Category)
	}
	w.Flush()
}

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"tpl"},
	Short:   "Manage task templates",
}

var templateAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Save a personal or favorite template",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stat, err := parseStat(planStat)
		if err != nil {
			return err
		}
		typ, err := parseTaskType(planType)
		if err != nil {
			return err
		}
		cat := domain.TemplatePersonal
		if templateFavorite {
			cat = domain.TemplateFavorites
		}
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		t, err := d.Planner.AddTemplate(flagUser, schedule.TemplateInput{
			Name:     strings.Join(args, " "),
			Stat:     stat,
			Type:     typ,
			Category: cat,
		})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), t)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Saved template %s [%s]\n", ui.IconPlus, t.Name, shortID(t.ID))
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recommended and saved templates",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		ts, err := d.Planner.Templates(flagUser)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), ts)
		}
		renderTemplates(cmd.OutOrStdout(), ts)
		return nil
	},
}

var templateRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a saved template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := openPlayer()
		if err != nil {
			return err
		}
		defer d.Close()

		ts, err := d.Planner.Templates(flagUser)
		if err != nil {
			return err
		}
		var ids []string
		for _, t := range ts {
			if t.Category != domain.TemplateRecommended {
				ids = append(ids, t.ID)
			}
		}
		id, err := resolveID(args[0], ids)
		if err != nil {
			return err
		}
		if err := d.Planner.DeleteTemplate(flagUser, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed template %s\n", shortID(id))
		return nil
	},
}

func weekLabel(day domain.Date) string {
	start := schedule.WeekStart(day)
	return fmt.Sprintf("Week of %s", start.Time().Format(time.DateOnly))
}
