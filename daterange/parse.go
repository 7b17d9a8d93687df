package daterange

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

var (
	errZeroInstant = errors.New("zero instant")
	errNotISO      = errors.New("not an ISO-8601 date")
	errRoundTrip   = errors.New("date does not exist in the calendar")
)

// dateTimeRe accepts YYYY-MM-DD with an optional THH:MM[:SS[.fff]] clock and an
// optional Z or ±HH[:]MM offset. A space may separate date and clock.
var dateTimeRe = regexp.MustCompile(
	`^(\d{4})-(\d{2})-(\d{2})` +
		`(?:[T ](\d{2}):(\d{2})(?::(\d{2})(?:\.(\d{1,9}))?)?)?` +
		`(Z|[+-]\d{2}:?\d{2})?$`)

// fields are the numbers a caller asked for, kept so the constructed instant
// can be checked against them.
type fields struct {
	year, month, day     int
	hour, minute, second int
	nanos                int
	loc                  *time.Location
}

func parseFields(s string, loc *time.Location) (fields, error) {
	m := dateTimeRe.FindStringSubmatch(s)
	if m == nil {
		return fields{}, errNotISO
	}
	f := fields{loc: loc}
	f.year, _ = strconv.Atoi(m[1])
	f.month, _ = strconv.Atoi(m[2])
	f.day, _ = strconv.Atoi(m[3])
	if m[4] != "" {
		f.hour, _ = strconv.Atoi(m[4])
		f.minute, _ = strconv.Atoi(m[5])
	}
	if m[6] != "" {
		f.second, _ = strconv.Atoi(m[6])
	}
	if m[7] != "" {
		frac := m[7] + strings.Repeat("0", 9-len(m[7]))
		f.nanos, _ = strconv.Atoi(frac)
	}
	if m[8] != "" {
		zone, err := parseOffset(m[8])
		if err != nil {
			return fields{}, err
		}
		f.loc = zone
	}
	return f, nil
}

func parseOffset(s string) (*time.Location, error) {
	if s == "Z" {
		return time.UTC, nil
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(s[1:], ":", "")
	hh, _ := strconv.Atoi(digits[:2])
	mm, _ := strconv.Atoi(digits[2:])
	if hh > 23 || mm > 59 {
		return nil, fmt.Errorf("offset %q out of range: %w", s, errNotISO)
	}
	return time.FixedZone("", sign*(hh*3600+mm*60)), nil
}

// instant builds the time and verifies every component survived unchanged;
// time.Date silently normalizes Feb 29 2023 into March 1.
func (f fields) instant() (time.Time, error) {
	t := time.Date(f.year, time.Month(f.month), f.day, f.hour, f.minute, f.second, f.nanos, f.loc)
	if t.Year() != f.year || int(t.Month()) != f.month || t.Day() != f.day ||
		t.Hour() != f.hour || t.Minute() != f.minute || t.Second() != f.second {
		return time.Time{}, errRoundTrip
	}
	return t, nil
}

// parse converts a present input into an instant.
func parse(in Input, loc *time.Location) mo.Result[time.Time] {
	either, ok := in.v.Get()
	if !ok {
		return mo.Err[time.Time](errNotISO)
	}
	if t, isTime := either.Left(); isTime {
		if t.IsZero() {
			return mo.Err[time.Time](errZeroInstant)
		}
		return mo.Ok(t)
	}
	f, err := parseFields(strings.TrimSpace(either.MustRight()), loc)
	if err != nil {
		return mo.Err[time.Time](err)
	}
	t, err := f.instant()
	if err != nil {
		return mo.Err[time.Time](err)
	}
	return mo.Ok(t)
}
