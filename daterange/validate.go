// Package daterange validates (start, end) date pairs before they are used to
// bound recurring event generation.
package daterange

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/cyp0633/recurdate/calerr"
)

// Warning is an advisory attached to a valid result.
type Warning string

const (
	NoWarning     Warning = ""
	WarnLongRange Warning = "long_range"
)

func (w Warning) String() string {
	switch w {
	case WarnLongRange:
		return "range exceeds 100 years"
	default:
		return string(w)
	}
}

const (
	msgStartRequired = "start date required"
	msgEndRequired   = "end date required"
	msgInvalidStart  = "invalid start date format"
	msgInvalidEnd    = "invalid end date format"
	msgStartAfterEnd = "start must be before or equal to end"

	secondsPerYear        = 365.25 * 24 * 60 * 60
	defaultWarnAfterYears = 100
)

// Result is the outcome of a validation. Err is set only when Valid is false
// and Warning only when Valid is true.
type Result struct {
	Valid   bool
	Err     *calerr.Error
	Warning Warning
}

// Message returns the English text for the error or warning, or "" for a
// clean result.
func (r Result) Message() string {
	if r.Err != nil {
		return r.Err.Message
	}
	if r.Warning != NoWarning {
		return r.Warning.String()
	}
	return ""
}

// Validator checks date ranges.
type Validator struct {
	// Location is used for strings that carry no offset. Defaults to UTC.
	Location *time.Location
	// WarnAfterYears is the span, in 365.25-day years, beyond which a valid
	// range carries WarnLongRange. Defaults to 100.
	WarnAfterYears float64
	Logger         *slog.Logger
}

// NewValidator returns a Validator with defaults applied.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = discardLogger
	}
	return &Validator{
		Location:       time.UTC,
		WarnAfterYears: defaultWarnAfterYears,
		Logger:         logger,
	}
}

var (
	discardLogger    = slog.New(slog.NewTextHandler(io.Discard, nil))
	defaultValidator = NewValidator(nil)
)

// Validate checks start and end using the default Validator.
func Validate(start, end Input) Result {
	return defaultValidator.Validate(start, end)
}

// ValidateStrings is Validate for textual inputs.
func ValidateStrings(start, end string) Result {
	return defaultValidator.Validate(FromString(start), FromString(end))
}

// Validate runs the presence, format, calendar, ordering and long-range
// checks in that order, stopping at the first failure.
func (v *Validator) Validate(start, end Input) Result {
	if start.IsAbsent() {
		return v.fail(calerr.New(calerr.MissingInput, calerr.FieldStart, msgStartRequired))
	}
	if end.IsAbsent() {
		return v.fail(calerr.New(calerr.MissingInput, calerr.FieldEnd, msgEndRequired))
	}

	startAt, perr := v.parseInput(start, calerr.FieldStart)
	if perr != nil {
		return v.fail(perr)
	}
	endAt, perr := v.parseInput(end, calerr.FieldEnd)
	if perr != nil {
		return v.fail(perr)
	}

	if startAt.After(endAt) {
		return v.fail(calerr.New(calerr.InvertedRange, calerr.FieldNone, msgStartAfterEnd))
	}

	if YearsBetween(startAt, endAt) > v.warnAfter() {
		v.logger().Debug("long date range",
			"start", startAt,
			"end", endAt)
		return Result{Valid: true, Warning: WarnLongRange}
	}
	return Result{Valid: true}
}

// ParseInput converts a present input to an instant, reporting InvalidFormat
// for unparseable values and InvalidCalendarDate for dates that do not exist.
func (v *Validator) ParseInput(in Input, field calerr.Field) (time.Time, error) {
	if in.IsAbsent() {
		msg := msgStartRequired
		if field == calerr.FieldEnd {
			msg = msgEndRequired
		}
		return time.Time{}, calerr.New(calerr.MissingInput, field, msg)
	}
	t, err := v.parseInput(in, field)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func (v *Validator) parseInput(in Input, field calerr.Field) (time.Time, *calerr.Error) {
	msg := msgInvalidStart
	if field == calerr.FieldEnd {
		msg = msgInvalidEnd
	}
	t, err := parse(in, v.location()).Get()
	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, errRoundTrip):
		return time.Time{}, calerr.Wrap(calerr.InvalidCalendarDate, field, msg, err)
	default:
		return time.Time{}, calerr.Wrap(calerr.InvalidFormat, field, msg, err)
	}
}

// YearsBetween returns the elapsed time from start to end in 365.25-day years.
// It avoids time.Duration, which saturates beyond roughly 292 years.
func YearsBetween(start, end time.Time) float64 {
	secs := float64(end.Unix()-start.Unix()) +
		float64(end.Nanosecond()-start.Nanosecond())/1e9
	return secs / secondsPerYear
}

func (v *Validator) fail(err *calerr.Error) Result {
	v.logger().Debug("date range rejected",
		"kind", err.Kind,
		"field", err.Field)
	return Result{Valid: false, Err: err}
}

func (v *Validator) location() *time.Location {
	if v.Location == nil {
		return time.UTC
	}
	return v.Location
}

func (v *Validator) warnAfter() float64 {
	if v.WarnAfterYears <= 0 {
		return defaultWarnAfterYears
	}
	return v.WarnAfterYears
}

func (v *Validator) logger() *slog.Logger {
	if v.Logger == nil {
		return discardLogger
	}
	return v.Logger
}
