package daterange

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

// Input is a date value handed to the validator: a structured instant, a
// textual ISO-8601-like representation, or nothing at all.
type Input struct {
	v mo.Option[mo.Either[time.Time, string]]
}

// FromTime wraps a structured instant. A zero time.Time is treated as an
// instant that failed to parse upstream.
func FromTime(t time.Time) Input {
	return Input{v: mo.Some(mo.Left[time.Time, string](t))}
}

// FromString wraps a textual date. Empty and whitespace-only strings count as
// absent.
func FromString(s string) Input {
	return Input{v: mo.Some(mo.Right[time.Time, string](s))}
}

// Unset returns an absent input.
func Unset() Input {
	return Input{v: mo.None[mo.Either[time.Time, string]]()}
}

// FromPointer wraps an optional instant; nil is absent.
func FromPointer(t *time.Time) Input {
	if t == nil {
		return Unset()
	}
	return FromTime(*t)
}

// IsAbsent reports whether the input carries no usable value.
func (in Input) IsAbsent() bool {
	either, ok := in.v.Get()
	if !ok {
		return true
	}
	if s, isStr := either.Right(); isStr {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func (in Input) String() string {
	either, ok := in.v.Get()
	if !ok {
		return "<unset>"
	}
	if t, isTime := either.Left(); isTime {
		return t.Format(time.RFC3339Nano)
	}
	return strconv.Quote(either.MustRight())
}
