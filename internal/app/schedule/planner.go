package schedule

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sololeveling-irl/irl/internal/app/engagement"
	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/infra/metrics"
	"github.com/sololeveling-irl/irl/internal/infra/sqlite"
	"github.com/sololeveling-irl/irl/internal/logger"
)

// Planner stores rules, scheduled tasks and templates and runs the daily
// evaluation into the player service.
type Planner struct {
	db      *sqlite.DB
	players *engagement.PlayerService
	log     *logger.Logger

	mu  sync.Mutex // serializes RunDaily so re-entry cannot double-generate
	rng *rand.Rand
}

// NewPlanner creates a planner. rng may be nil for the global source.
func NewPlanner(db *sqlite.DB, players *engagement.PlayerService, log *logger.Logger, rng *rand.Rand) *Planner {
	if log == nil {
		log = logger.Nop()
	}
	return &Planner{db: db, players: players, log: log, rng: rng}
}

func (p *Planner) today() domain.Date {
	return domain.DateOf(p.players.Clock().Now())
}

// ─── Rules ──────────────────────────────────────────────────────────────────

// RuleInput describes a recurring rule to create.
type RuleInput struct {
	Name       string
	Stat       domain.StatID
	Type       domain.TaskType
	Frequency  domain.Frequency
	DayOfWeek  int
	DaysOfWeek []int
}

// AddRule validates and stores a recurring rule.
func (p *Planner) AddRule(userID string, in RuleInput) (domain.RecurringRule, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.RecurringRule{}, fmt.Errorf("rule id: %w", err)
	}
	rule := domain.RecurringRule{
		ID:        id.String(),
		Name:      strings.TrimSpace(in.Name),
		Stat:      in.Stat,
		Type:      in.Type,
		Frequency: in.Frequency,
		DayOfWeek: weekday(in.DayOfWeek),
		CreatedAt: p.players.Clock().Now(),
	}
	for _, d := range in.DaysOfWeek {
		rule.DaysOfWeek = append(rule.DaysOfWeek, weekday(d))
	}
	if err := rule.Validate(); err != nil {
		return domain.RecurringRule{}, err
	}
	if err := p.db.InsertRule(userID, rule); err != nil {
		return domain.RecurringRule{}, fmt.Errorf("insert rule: %w", err)
	}
	return rule, nil
}

// Rules lists a user's recurring rules.
func (p *Planner) Rules(userID string) ([]domain.RecurringRule, error) {
	return p.db.ListRules(userID)
}

// DeleteRule removes a rule. Tasks it generated stay pending.
func (p *Planner) DeleteRule(userID, ruleID string) error {
	return p.db.DeleteRule(userID, ruleID)
}

// ─── Scheduled Tasks ────────────────────────────────────────────────────────

// ScheduleInput describes a one-shot task for a date.
type ScheduleInput struct {
	Name string
	Stat domain.StatID
	Type domain.TaskType
	Date string
}

// AddScheduled validates and stores a scheduled task.
func (p *Planner) AddScheduled(userID string, in ScheduleInput) (domain.ScheduledTask, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.ScheduledTask{}, fmt.Errorf("schedule id: %w", err)
	}
	s := domain.ScheduledTask{
		ID:            id.String(),
		Name:          strings.TrimSpace(in.Name),
		Stat:          in.Stat,
		Type:          in.Type,
		ScheduledDate: domain.Date(in.Date),
		CreatedAt:     p.players.Clock().Now(),
	}
	if err := s.Validate(); err != nil {
		return domain.ScheduledTask{}, err
	}
	if err := p.db.InsertScheduled(userID, s); err != nil {
		return domain.ScheduledTask{}, fmt.Errorf("insert scheduled: %w", err)
	}
	return s, nil
}

// Scheduled lists a user's pending scheduled tasks.
func (p *Planner) Scheduled(userID string) ([]domain.ScheduledTask, error) {
	return p.db.ListScheduled(userID)
}

// DeleteScheduled removes a scheduled task before it fires.
func (p *Planner) DeleteScheduled(userID, id string) error {
	return p.db.DeleteScheduled(userID, id)
}

// Plan loads the user's rules and scheduled tasks.
func (p *Planner) Plan(userID string) (Plan, error) {
	rules, err := p.db.ListRules(userID)
	if err != nil {
		return Plan{}, fmt.Errorf("list rules: %w", err)
	}
	scheduled, err := p.db.ListScheduled(userID)
	if err != nil {
		return Plan{}, fmt.Errorf("list scheduled: %w", err)
	}
	return Plan{Rules: rules, Scheduled: scheduled}, nil
}

// ─── Daily Evaluation ───────────────────────────────────────────────────────

// RunDaily materializes today's due rules and scheduled tasks into the
// player's pending list. Calling it again the same day adds nothing.
//
// The evaluated plan is committed before any task is added, so a failed
// write leaves both the plan and the player untouched.
func (p *Planner) RunDaily(ctx context.Context, userID string) ([]domain.PendingTask, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	plan, err := p.Plan(userID)
	if err != nil {
		return nil, err
	}
	today := p.today()
	eval := Evaluate(plan, today)
	if len(eval.Generated) == 0 {
		return nil, nil
	}

	state, err := p.players.State(userID)
	if err != nil {
		return nil, err
	}
	already := generatedOn(state, today)

	var ruleIDs []string
	var pending []Generated
	for _, g := range eval.Generated {
		if g.FromRecurring != "" {
			ruleIDs = append(ruleIDs, g.FromRecurring)
			if already[g.FromRecurring] {
				continue
			}
		}
		pending = append(pending, g)
	}
	if err := p.db.CommitDaily(userID, today, ruleIDs, eval.Fired); err != nil {
		return nil, fmt.Errorf("commit daily plan: %w", err)
	}

	var added []domain.PendingTask
	for _, g := range pending {
		res, err := p.players.AddTask(ctx, userID, g.Name, g.Stat, g.Type, g.FromRecurring)
		if err != nil {
			return added, fmt.Errorf("materialize %q: %w", g.Name, err)
		}
		source := "scheduled"
		if g.FromRecurring != "" {
			source = "rule"
		}
		metrics.RecurringGenerated.WithLabelValues(source).Inc()
		added = append(added, *res.Added)
	}

	if len(added) > 0 {
		p.log.Info("daily tasks generated", "user_id", userID, "date", today, "count", len(added))
	}
	return added, nil
}

// generatedOn returns the rule ids that already have a pending task created on day.
func generatedOn(state domain.PlayerState, day domain.Date) map[string]bool {
	out := make(map[string]bool)
	for _, t := range state.Tasks {
		if t.FromRecurring != "" && domain.DateOf(t.CreatedAt) == day {
			out[t.FromRecurring] = true
		}
	}
	return out
}

// ─── Calendar ───────────────────────────────────────────────────────────────

// Day returns the calendar entries for date.
func (p *Planner) Day(userID string, date domain.Date) ([]domain.CalendarEntry, error) {
	plan, err := p.Plan(userID)
	if err != nil {
		return nil, err
	}
	return TasksForDate(plan, date), nil
}

// Week returns the calendar entries for the week containing date.
func (p *Planner) Week(userID string, date domain.Date) (map[domain.Date][]domain.CalendarEntry, error) {
	plan, err := p.Plan(userID)
	if err != nil {
		return nil, err
	}
	return TasksForWeek(plan, date), nil
}

// ─── Templates ──────────────────────────────────────────────────────────────

// Templates returns the recommended catalog followed by the user's own templates.
func (p *Planner) Templates(userID string) ([]domain.TaskTemplate, error) {
	all, err := Recommended()
	if err != nil {
		return nil, err
	}
	own, err := p.db.ListTemplates(userID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return append(all, own...), nil
}

// TemplateInput describes a user template.
type TemplateInput struct {
	Name     string
	Stat     domain.StatID
	Type     domain.TaskType
	Category domain.TemplateCategory
}

// AddTemplate stores a favourite or personal template.
func (p *Planner) AddTemplate(userID string, in TemplateInput) (domain.TaskTemplate, error) {
	if in.Category == "" {
		in.Category = domain.TemplatePersonal
	}
	if in.Category == domain.TemplateRecommended {
		return domain.TaskTemplate{}, &domain.ValidationError{Field: "category", Reason: "recommended templates are built in"}
	}
	id, err := uuid.NewV7()
	if err != nil {
		return domain.TaskTemplate{}, fmt.Errorf("template id: %w", err)
	}
	t := domain.TaskTemplate{
		ID:       id.String(),
		Name:     strings.TrimSpace(in.Name),
		Stat:     in.Stat,
		Type:     in.Type,
		Category: in.Category,
	}
	if err := validateTemplate(t); err != nil {
		return domain.TaskTemplate{}, err
	}
	if err := p.db.InsertTemplate(userID, t); err != nil {
		return domain.TaskTemplate{}, fmt.Errorf("insert template: %w", err)
	}
	return t, nil
}

// DeleteTemplate removes a user template.
func (p *Planner) DeleteTemplate(userID, id string) error {
	return p.db.DeleteTemplate(userID, id)
}

// Suggest returns up to count templates for the user's weakest stats.
func (p *Planner) Suggest(userID string, count int) ([]domain.TaskTemplate, error) {
	state, err := p.players.State(userID)
	if err != nil {
		return nil, err
	}
	templates, err := p.Templates(userID)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return Suggest(state.Stats, templates, count, p.rng), nil
}

// weekday maps an out-of-range index to -1 so Validate rejects it.
func weekday(i int) time.Weekday {
	if i < 0 || i > 6 {
		return -1
	}
	return time.Weekday(i)
}
