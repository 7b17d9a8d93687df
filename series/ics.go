package series

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cyp0633/recurdate/recurrence"
	"github.com/emersion/go-ical"
)

const productID = "-//recurdate//Go Calendar//EN"

// ICS encodes every planned event as its own all-day VEVENT. Members of a
// series carry the series ID in RELATED-TO.
func (p Plan) ICS() (string, error) {
	cal := newCalendar()
	for _, ev := range p.Events {
		comp := ical.NewComponent(ical.CompEvent)
		comp.Props.SetText(ical.PropUID, ev.ID)
		comp.Props.SetDateTime(ical.PropDateTimeStamp, p.stampTime())
		comp.Props.Set(recurrence.DateProp(ical.PropDateTimeStart, ev.Date))
		comp.Props.SetText(ical.PropSummary, ev.Title)
		if ev.Description != "" {
			comp.Props.SetText(ical.PropDescription, ev.Description)
		}
		if ev.SeriesID != "" {
			comp.Props.SetText(ical.PropRelatedTo, ev.SeriesID)
		}
		cal.Children = append(cal.Children, comp)
	}
	return encode(cal)
}

// Master encodes the series as a single VEVENT carrying an RRULE instead of
// the expanded instances.
func (p Plan) Master() (string, error) {
	if !p.Recurring() || len(p.Events) == 0 {
		return "", fmt.Errorf("plan has no recurring events")
	}
	first := p.Events[0]

	comp := ical.NewComponent(ical.CompEvent)
	comp.Props.SetText(ical.PropUID, p.SeriesID)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, p.stampTime())
	comp.Props.SetText(ical.PropSummary, first.Title)
	if first.Description != "" {
		comp.Props.SetText(ical.PropDescription, first.Description)
	}
	if err := p.Rule.ApplyTo(comp, first.Date, p.Target); err != nil {
		return "", fmt.Errorf("failed to apply rule: %w", err)
	}

	cal := newCalendar()
	cal.Children = append(cal.Children, comp)
	return encode(cal)
}

// ParseICS decodes an iCalendar stream and returns the DTSTART dates of its
// VEVENTs in document order.
func ParseICS(ics string) ([]string, error) {
	cal, err := ical.NewDecoder(strings.NewReader(ics)).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}
	var dates []string
	for _, ev := range cal.Events() {
		start, err := ev.Props.DateTime(ical.PropDateTimeStart, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to read DTSTART: %w", err)
		}
		dates = append(dates, start.Format(recurrence.DateLayout))
	}
	return dates, nil
}

// PlanICS plans the first VEVENT of an iCalendar stream from its DTSTART and
// RRULE. SUMMARY and DESCRIPTION carry over to the events.
func (p *Planner) PlanICS(r io.Reader) (Plan, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return Plan{}, fmt.Errorf("failed to decode calendar: %w", err)
	}
	events := cal.Events()
	if len(events) == 0 {
		return Plan{}, errors.New("calendar has no VEVENT")
	}
	ev := events[0]

	anchor, rule, target, err := recurrence.FromComponent(ev.Component)
	if err != nil {
		return Plan{}, err
	}
	form := Form{Date: anchor}
	if form.Title, err = ev.Props.Text(ical.PropSummary); err != nil {
		return Plan{}, fmt.Errorf("failed to read SUMMARY: %w", err)
	}
	if form.Description, err = ev.Props.Text(ical.PropDescription); err != nil {
		return Plan{}, fmt.Errorf("failed to read DESCRIPTION: %w", err)
	}
	return p.PlanRule(form, rule, target)
}

func (p Plan) stampTime() time.Time {
	if p.stamp.IsZero() {
		return time.Now().UTC()
	}
	return p.stamp.UTC()
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	return cal
}

func encode(cal *ical.Calendar) (string, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}
