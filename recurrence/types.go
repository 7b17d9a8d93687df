package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/cyp0633/recurdate/calerr"
)

// RepeatType is the unit a rule advances by
type RepeatType string

const (
	Daily   RepeatType = "daily"
	Weekly  RepeatType = "weekly"
	Monthly RepeatType = "monthly"
	Yearly  RepeatType = "yearly"
)

// RepeatTypes lists every supported type in ascending unit size.
var RepeatTypes = []RepeatType{Daily, Weekly, Monthly, Yearly}

// Valid reports whether t is one of the supported types.
func (t RepeatType) Valid() bool {
	switch t {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// ParseRepeatType converts a case-insensitive name into a RepeatType.
func ParseRepeatType(s string) (RepeatType, error) {
	t := RepeatType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", calerr.New(calerr.InvalidRuleParameters, calerr.FieldType,
			fmt.Sprintf("invalid repeat type: %q", s))
	}
	return t, nil
}

// Rule is a repeat rule: advance Interval units of Type per cycle.
type Rule struct {
	Type     RepeatType
	Interval int
}

// Every is shorthand for Rule{Type: t, Interval: interval}.
func Every(interval int, t RepeatType) Rule {
	return Rule{Type: t, Interval: interval}
}

// Validate checks the rule's invariants.
func (r Rule) Validate() error {
	if !r.Type.Valid() {
		return calerr.New(calerr.InvalidRuleParameters, calerr.FieldType,
			fmt.Sprintf("invalid repeat type: %q", string(r.Type)))
	}
	if r.Interval < 1 {
		return calerr.New(calerr.InvalidRuleParameters, calerr.FieldInterval,
			fmt.Sprintf("interval must be at least 1, got %d", r.Interval))
	}
	return nil
}

func (r Rule) String() string {
	return fmt.Sprintf("every %d %s", r.Interval, r.Type)
}

// Target says when generation stops. The zero value is Count(0).
type Target struct {
	count   int
	until   string
	bounded bool
}

// Count stops after n occurrences have been emitted. Skipped cycles do not
// count.
func Count(n int) Target {
	return Target{count: n}
}

// Until stops at the last occurrence on or before date (YYYY-MM-DD).
func Until(date string) Target {
	return Target{until: date, bounded: true}
}

// UntilTime is Until using t's own calendar fields, without zone conversion.
func UntilTime(t time.Time) Target {
	return Until(t.Format(DateLayout))
}

// IsUntil reports whether the target is end-date bounded.
func (t Target) IsUntil() bool {
	return t.bounded
}

// N returns the requested count for a count-bounded target.
func (t Target) N() int {
	return t.count
}

// UntilDate returns the end date for an end-date-bounded target.
func (t Target) UntilDate() string {
	return t.until
}

func (t Target) String() string {
	if t.bounded {
		return "until " + t.until
	}
	return fmt.Sprintf("count %d", t.count)
}

// Expansion is the result of one generation call.
type Expansion struct {
	// Dates are YYYY-MM-DD strings in strictly increasing order.
	Dates []string
	// Truncated is set when a safety ceiling stopped generation before the
	// target was reached.
	Truncated bool
	// Attempts is the number of cycles examined, including skipped ones.
	Attempts int
}
