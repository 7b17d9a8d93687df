package recurrence

import (
	"fmt"
	"log/slog"

	"github.com/cyp0633/recurdate/calerr"
)

// Engine expands repeat rules into occurrence dates
type Engine struct {
	cache  *ExpansionCache
	config EngineConfig
	logger *slog.Logger
}

// NewEngine creates an engine with DefaultEngineConfig and no logging.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig, nil)
}

var defaultEngine = NewEngine()

// Generate returns count occurrences of a repeatType rule with interval 1,
// starting with anchor itself.
func Generate(anchor string, repeatType RepeatType, count int) ([]string, error) {
	return GenerateEvery(anchor, Rule{Type: repeatType, Interval: 1}, Count(count))
}

// GenerateEvery returns the occurrences of rule from anchor until target is
// met. A result shorter than a requested count means a safety ceiling was hit.
func GenerateEvery(anchor string, rule Rule, target Target) ([]string, error) {
	exp, err := defaultEngine.Expand(anchor, rule, target)
	if err != nil {
		return nil, err
	}
	return exp.Dates, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Close releases the cache's cleanup goroutine, if any.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// Expand generates the occurrences of rule anchored at anchor (YYYY-MM-DD).
//
// Monthly rules hold the anchor's day of month and yearly rules hold its month
// and day; a cycle whose candidate does not exist (April 31, Feb 29 in a
// common year) is skipped rather than clamped, and is not counted.
func (e *Engine) Expand(anchor string, rule Rule, target Target) (Expansion, error) {
	if err := rule.Validate(); err != nil {
		return Expansion{}, err
	}
	if !target.bounded && target.count < 0 {
		return Expansion{}, calerr.New(calerr.InvalidRuleParameters, calerr.FieldCount,
			fmt.Sprintf("count cannot be negative, got %d", target.count))
	}
	start, err := parseDate(anchor, calerr.FieldStart, "anchor date")
	if err != nil {
		return Expansion{}, err
	}
	var until calendarDate
	if target.bounded {
		until, err = parseDate(target.until, calerr.FieldEnd, "end date")
		if err != nil {
			return Expansion{}, err
		}
		if start.after(until) {
			return Expansion{}, calerr.New(calerr.InvertedRange, calerr.FieldNone,
				fmt.Sprintf("end date %s is before anchor date %s", until, start))
		}
	} else if target.count == 0 {
		return Expansion{Dates: []string{}}, nil
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(anchor, rule, target); ok {
			return cached, nil
		}
	}

	exp := e.expand(start, rule, target, until)
	if exp.Truncated {
		e.logger.Warn("recurrence expansion truncated",
			"anchor", anchor,
			"rule", rule.String(),
			"target", target.String(),
			"emitted", len(exp.Dates),
			"attempts", exp.Attempts)
	} else {
		e.logger.Debug("recurrence expanded",
			"anchor", anchor,
			"rule", rule.String(),
			"target", target.String(),
			"emitted", len(exp.Dates))
	}

	if e.cache != nil {
		e.cache.Set(anchor, rule, target, exp)
	}
	return exp, nil
}

// expand runs the cycle loop. Inputs are already validated.
func (e *Engine) expand(start calendarDate, rule Rule, target Target, until calendarDate) Expansion {
	want := e.config.MaxOccurrences
	if !target.bounded && target.count < want {
		want = target.count
	}
	maxAttempts := want * e.config.AttemptsPerOccurrence

	exp := Expansion{Dates: make([]string, 0, min(want, 64))}
	for cycle := 0; ; cycle++ {
		if exp.Attempts >= maxAttempts {
			exp.Truncated = true
			break
		}
		exp.Attempts++

		candidate, ok := nextCandidate(start, rule, cycle)
		if !ok {
			// Past the last four-digit year. An end date can never lie there.
			exp.Truncated = !target.bounded
			break
		}
		if target.bounded && candidate.after(until) {
			break
		}
		if !candidate.exists() {
			continue
		}
		if len(exp.Dates) >= e.config.MaxOccurrences {
			exp.Truncated = true
			break
		}
		exp.Dates = append(exp.Dates, candidate.String())
		if !target.bounded && len(exp.Dates) == target.count {
			break
		}
	}
	return exp
}

// nextCandidate returns the date for the given cycle, counted from the anchor
// so that skipped cycles never shift later ones. ok is false once the
// candidate falls beyond MaxYear; later cycles only move further out.
func nextCandidate(start calendarDate, rule Rule, cycle int) (calendarDate, bool) {
	limit := start.unitsToMaxYear(rule.Type)
	if cycle > 0 && rule.Interval > limit/cycle {
		return calendarDate{}, false
	}
	step := cycle * rule.Interval

	var cd calendarDate
	switch rule.Type {
	case Daily:
		cd = start.addDays(step)
	case Weekly:
		cd = start.addDays(7 * step)
	case Monthly:
		cd = start.addMonths(step)
	default:
		cd = start.addYears(step)
	}
	if cd.Year > MaxYear {
		return calendarDate{}, false
	}
	return cd, true
}
