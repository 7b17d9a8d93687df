// Package series turns an event form with a repeat rule into the concrete
// events of a recurring series.
//
// It is the caller-side composition of the validator and the generator: an
// end date is validated against the event date first, then bounds
// generation; without an end date the series gets a fixed count.
package series

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cyp0633/recurdate/calerr"
	"github.com/cyp0633/recurdate/daterange"
	"github.com/cyp0633/recurdate/recurrence"
	"github.com/google/uuid"
)

// RepeatNone marks a form that does not recur.
const RepeatNone = "none"

// Repeat is the repeat section of an event form.
type Repeat struct {
	Type     string `json:"type"`
	Interval int    `json:"interval"`
	EndDate  string `json:"endDate,omitempty"`
	// Count bounds a series without an end date. Zero means the default.
	Count int `json:"count,omitempty"`
}

// Form is the event as entered by the user.
type Form struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Repeat      Repeat `json:"repeat"`
}

// Event is one dated member of a series.
type Event struct {
	ID          string `json:"id"`
	SeriesID    string `json:"seriesId,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Repeat      Repeat `json:"repeat"`
}

// Plan is the outcome of planning a form.
type Plan struct {
	SeriesID string  `json:"seriesId,omitempty"`
	Events   []Event `json:"events"`
	// Warning is the validator's advisory for the end date, if any.
	Warning daterange.Warning `json:"warning,omitempty"`
	// Truncated is set when the engine's ceiling cut the series short.
	Truncated bool `json:"truncated,omitempty"`

	Rule   recurrence.Rule   `json:"-"`
	Target recurrence.Target `json:"-"`

	stamp time.Time
}

// Dates returns the dates of the planned events in order.
func (p Plan) Dates() []string {
	dates := make([]string, len(p.Events))
	for i, ev := range p.Events {
		dates[i] = ev.Date
	}
	return dates
}

// Recurring reports whether the plan is a series rather than a single event.
func (p Plan) Recurring() bool {
	return p.SeriesID != ""
}

// Planner builds plans. The zero value is not usable; use NewPlanner.
type Planner struct {
	engine    *recurrence.Engine
	validator *daterange.Validator
	logger    *slog.Logger

	// NewID generates event and series IDs.
	NewID func() string
	// Now stamps exported iCalendar objects.
	Now func() time.Time
}

// NewPlanner creates a planner around engine. Nil arguments get defaults.
func NewPlanner(engine *recurrence.Engine, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if engine == nil {
		engine = recurrence.NewEngineWithConfig(recurrence.DefaultEngineConfig, logger)
	}
	return &Planner{
		engine:    engine,
		validator: daterange.NewValidator(logger),
		logger:    logger,
		NewID:     uuid.NewString,
		Now:       time.Now,
	}
}

// Plan validates form and expands it into events that share one series ID.
func (p *Planner) Plan(form Form) (Plan, error) {
	kind := strings.TrimSpace(form.Repeat.Type)
	if kind == "" || strings.EqualFold(kind, RepeatNone) {
		return p.single(form)
	}

	typ, err := recurrence.ParseRepeatType(kind)
	if err != nil {
		return Plan{}, err
	}
	rule := recurrence.Rule{Type: typ, Interval: form.Repeat.Interval}
	if err := rule.Validate(); err != nil {
		return Plan{}, err
	}

	hasEnd := strings.TrimSpace(form.Repeat.EndDate) != ""
	switch {
	case form.Repeat.Count < 0:
		return Plan{}, calerr.New(calerr.InvalidRuleParameters, calerr.FieldCount,
			fmt.Sprintf("count cannot be negative, got %d", form.Repeat.Count))
	case form.Repeat.Count > 0 && hasEnd:
		return Plan{}, calerr.New(calerr.InvalidRuleParameters, calerr.FieldCount,
			"count and end date are mutually exclusive")
	}

	if hasEnd {
		return p.PlanRule(form, rule, recurrence.Until(""))
	}
	target := recurrence.Count(recurrence.DefaultOpenCount)
	if form.Repeat.Count > 0 {
		target = recurrence.Count(form.Repeat.Count)
	}
	return p.PlanRule(form, rule, target)
}

// PlanRule expands form with an already resolved rule and target, as read
// from an RRULE. An end-date target is replaced by form.Repeat.EndDate when
// the form has one; either way the end date is validated against form.Date.
func (p *Planner) PlanRule(form Form, rule recurrence.Rule, target recurrence.Target) (Plan, error) {
	if err := rule.Validate(); err != nil {
		return Plan{}, err
	}

	plan := Plan{Rule: rule, Target: target, stamp: p.Now()}
	if target.IsUntil() {
		endDate := form.Repeat.EndDate
		if strings.TrimSpace(endDate) == "" {
			endDate = target.UntilDate()
		}
		start := daterange.FromString(form.Date)
		end := daterange.FromString(endDate)
		result := p.validator.Validate(start, end)
		if !result.Valid {
			return Plan{}, result.Err
		}
		plan.Warning = result.Warning

		endAt, err := p.validator.ParseInput(end, calerr.FieldEnd)
		if err != nil {
			return Plan{}, err
		}
		plan.Target = recurrence.UntilTime(endAt)
		form.Repeat.EndDate = endDate
	}

	exp, err := p.engine.Expand(form.Date, rule, plan.Target)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to expand %s: %w", rule, err)
	}
	plan.Truncated = exp.Truncated
	plan.SeriesID = p.NewID()

	repeat := Repeat{Type: string(rule.Type), Interval: rule.Interval}
	if plan.Target.IsUntil() {
		repeat.EndDate = form.Repeat.EndDate
	} else {
		repeat.Count = plan.Target.N()
	}
	plan.Events = make([]Event, 0, len(exp.Dates))
	for _, date := range exp.Dates {
		plan.Events = append(plan.Events, Event{
			ID:          p.NewID(),
			SeriesID:    plan.SeriesID,
			Title:       form.Title,
			Description: form.Description,
			Date:        date,
			Repeat:      repeat,
		})
	}

	p.logger.Info("series planned",
		"series_id", plan.SeriesID,
		"rule", rule.String(),
		"target", plan.Target.String(),
		"events", len(plan.Events),
		"truncated", plan.Truncated,
		"warning", string(plan.Warning))
	return plan, nil
}

func (p *Planner) single(form Form) (Plan, error) {
	// A one-shot expansion validates the date the same way a series anchor is.
	exp, err := p.engine.Expand(form.Date, recurrence.Every(1, recurrence.Daily), recurrence.Count(1))
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Events: []Event{{
			ID:          p.NewID(),
			Title:       form.Title,
			Description: form.Description,
			Date:        exp.Dates[0],
			Repeat:      Repeat{Type: RepeatNone},
		}},
		Target: recurrence.Count(1),
		stamp:  p.Now(),
	}, nil
}
