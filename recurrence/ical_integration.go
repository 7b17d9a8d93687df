package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/cyp0633/recurdate/calerr"
	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
)

var freqNames = map[RepeatType]string{
	Daily:   "DAILY",
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
	Yearly:  "YEARLY",
}

var freqTypes = map[rrule.Frequency]RepeatType{
	rrule.DAILY:   Daily,
	rrule.WEEKLY:  Weekly,
	rrule.MONTHLY: Monthly,
	rrule.YEARLY:  Yearly,
}

// RRule renders the rule and target as an RFC 5545 RRULE value (without the
// "RRULE:" prefix). RFC 5545 ignores recurrences that fall on non-existent
// dates, which is the generator's skip rule, so the two expand identically.
func (r Rule) RRule(target Target) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	parts := []string{
		"FREQ=" + freqNames[r.Type],
		fmt.Sprintf("INTERVAL=%d", r.Interval),
	}
	if target.bounded {
		until, err := parseDate(target.until, calerr.FieldEnd, "end date")
		if err != nil {
			return "", err
		}
		parts = append(parts, "UNTIL="+strings.ReplaceAll(until.String(), "-", ""))
	} else {
		if target.count < 0 {
			return "", calerr.New(calerr.InvalidRuleParameters, calerr.FieldCount,
				fmt.Sprintf("count cannot be negative, got %d", target.count))
		}
		parts = append(parts, fmt.Sprintf("COUNT=%d", target.count))
	}
	return strings.Join(parts, ";"), nil
}

// ParseRRule reads an RRULE value into a rule and target. Only FREQ,
// INTERVAL, COUNT, UNTIL and WKST are accepted; BY* parts change which days
// recur and cannot be expressed by a Rule. INTERVAL defaults to 1 only when
// absent; an INTERVAL below 1 or a negative COUNT is an error. A rule with
// neither COUNT nor UNTIL gets Count(DefaultOpenCount).
func ParseRRule(s string) (Rule, Target, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "RRULE:")
	opt, err := rrule.StrToROption(s)
	if err != nil {
		return Rule{}, Target{}, calerr.Wrap(calerr.InvalidFormat, calerr.FieldNone,
			fmt.Sprintf("failed to parse RRULE '%s'", s), err)
	}

	t, ok := freqTypes[opt.Freq]
	if !ok {
		return Rule{}, Target{}, calerr.New(calerr.InvalidRuleParameters, calerr.FieldType,
			fmt.Sprintf("unsupported frequency %v", opt.Freq))
	}
	if len(opt.Bysetpos) > 0 || len(opt.Bymonth) > 0 || len(opt.Bymonthday) > 0 ||
		len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 || len(opt.Byweekday) > 0 ||
		len(opt.Byhour) > 0 || len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 ||
		len(opt.Byeaster) > 0 {
		return Rule{}, Target{}, calerr.New(calerr.InvalidRuleParameters, calerr.FieldNone,
			fmt.Sprintf("RRULE '%s' uses BY* parts", s))
	}

	parts := rruleParts(s)
	rule := Rule{Type: t, Interval: opt.Interval}
	if _, ok := parts["INTERVAL"]; !ok {
		rule.Interval = 1
	}
	if err := rule.Validate(); err != nil {
		return Rule{}, Target{}, err
	}

	_, hasCount := parts["COUNT"]
	switch {
	case hasCount && opt.Count < 0:
		return Rule{}, Target{}, calerr.New(calerr.InvalidRuleParameters, calerr.FieldCount,
			fmt.Sprintf("count cannot be negative, got %d", opt.Count))
	case hasCount && !opt.Until.IsZero():
		return Rule{}, Target{}, calerr.New(calerr.InvalidRuleParameters, calerr.FieldNone,
			"RRULE must not carry both COUNT and UNTIL")
	case !opt.Until.IsZero():
		return rule, UntilTime(opt.Until), nil
	case hasCount:
		return rule, Count(opt.Count), nil
	default:
		return rule, Count(DefaultOpenCount), nil
	}
}

// rruleParts splits an RRULE value into upper-cased NAME=value pairs.
func rruleParts(s string) map[string]string {
	parts := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		parts[strings.ToUpper(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return parts
}

// FromComponent extracts the anchor date, rule and target of a VEVENT. The
// anchor uses DTSTART's own calendar fields.
func FromComponent(comp *ical.Component) (string, Rule, Target, error) {
	dtstart, err := comp.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	if err != nil {
		return "", Rule{}, Target{}, calerr.Wrap(calerr.InvalidFormat, calerr.FieldStart,
			"invalid DTSTART", err)
	}
	if dtstart.IsZero() {
		return "", Rule{}, Target{}, calerr.New(calerr.MissingInput, calerr.FieldStart,
			"component has no DTSTART")
	}

	prop := comp.Props.Get(ical.PropRecurrenceRule)
	if prop == nil || prop.Value == "" {
		return "", Rule{}, Target{}, calerr.New(calerr.InvalidRuleParameters, calerr.FieldNone,
			"component has no RRULE")
	}
	rule, target, err := ParseRRule(prop.Value)
	if err != nil {
		return "", Rule{}, Target{}, err
	}
	return dtstart.Format(DateLayout), rule, target, nil
}

// ApplyTo writes an all-day DTSTART and the RRULE for rule and target onto
// comp, replacing any existing values.
func (r Rule) ApplyTo(comp *ical.Component, anchor string, target Target) error {
	start, err := parseDate(anchor, calerr.FieldStart, "anchor date")
	if err != nil {
		return err
	}
	value, err := r.RRule(target)
	if err != nil {
		return err
	}

	comp.Props.Set(DateProp(ical.PropDateTimeStart, start.String()))

	rruleProp := ical.NewProp(ical.PropRecurrenceRule)
	rruleProp.Value = value
	comp.Props.Set(rruleProp)
	return nil
}

// DateProp builds a VALUE=DATE property from a YYYY-MM-DD string that the
// caller has already validated.
func DateProp(name, date string) *ical.Prop {
	prop := ical.NewProp(name)
	prop.Params["VALUE"] = []string{"DATE"}
	prop.Value = strings.ReplaceAll(date, "-", "")
	return prop
}

// ExpandWithRRule expands rule and target through rrule-go rather than the
// engine. It exists to cross-check the engine and is not bounded by
// EngineConfig.
func ExpandWithRRule(anchor string, rule Rule, target Target) ([]string, error) {
	start, err := parseDate(anchor, calerr.FieldStart, "anchor date")
	if err != nil {
		return nil, err
	}
	value, err := rule.RRule(target)
	if err != nil {
		return nil, err
	}
	if !target.bounded && target.count == 0 {
		return []string{}, nil
	}
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE '%s': %w", value, err)
	}
	opt.Dtstart = time.Date(start.Year, time.Month(start.Month), start.Day, 0, 0, 0, 0, time.UTC)
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build RRULE '%s': %w", value, err)
	}

	occurrences := r.All()
	dates := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		dates = append(dates, occ.Format(DateLayout))
	}
	return dates, nil
}
