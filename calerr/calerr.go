// Package calerr defines the error kinds reported by the date range validator
// and the recurring date generator.
package calerr

import (
	"errors"
	"fmt"
)

// Kind identifies a failure branch. Values are stable and double as message
// IDs for localized text.
type Kind string

const (
	MissingInput          Kind = "missing_input"
	InvalidFormat         Kind = "invalid_format"
	InvalidCalendarDate   Kind = "invalid_calendar_date"
	InvertedRange         Kind = "inverted_range"
	InvalidRuleParameters Kind = "invalid_rule_parameters"
)

// Field names the input an error refers to.
type Field string

const (
	FieldNone     Field = ""
	FieldStart    Field = "start"
	FieldEnd      Field = "end"
	FieldInterval Field = "interval"
	FieldType     Field = "type"
	FieldCount    Field = "count"
)

// Error is a structured validation or generation failure
type Error struct {
	Kind    Kind
	Field   Field
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MessageID returns the key used to look up presentation text for e.
// Field-specific kinds get a field suffix, e.g. "missing_input.start".
func (e *Error) MessageID() string {
	if e.Field == FieldNone {
		return string(e.Kind)
	}
	return string(e.Kind) + "." + string(e.Field)
}

// New creates an Error without a cause.
func New(kind Kind, field Field, msg string) *Error {
	return &Error{Kind: kind, Field: field, Message: msg}
}

// Wrap creates an Error carrying cause.
func Wrap(kind Kind, field Field, msg string, cause error) *Error {
	return &Error{Kind: kind, Field: field, Message: msg, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there
// is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err's chain contains an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
