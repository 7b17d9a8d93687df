package series

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cyp0633/recurdate/calerr"
	"github.com/cyp0633/recurdate/daterange"
	"github.com/cyp0633/recurdate/recurrence"
	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlanner() *Planner {
	p := NewPlanner(nil, nil)
	n := 0
	p.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	p.Now = func() time.Time {
		return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	return p
}

func TestPlanner_Plan(t *testing.T) {
	tests := []struct {
		name      string
		form      Form
		dates     []string
		warning   daterange.Warning
		truncated bool
	}{
		{
			name: "monthly until end date skips short months",
			form: Form{
				Title:  "Rent",
				Date:   "2024-01-31",
				Repeat: Repeat{Type: "monthly", Interval: 1, EndDate: "2024-12-31"},
			},
			dates: []string{
				"2024-01-31", "2024-03-31", "2024-05-31", "2024-07-31",
				"2024-08-31", "2024-10-31", "2024-12-31",
			},
		},
		{
			name: "daily with interval",
			form: Form{
				Title:  "Stretch",
				Date:   "2024-01-01",
				Repeat: Repeat{Type: "daily", Interval: 2, EndDate: "2024-01-10"},
			},
			dates: []string{"2024-01-01", "2024-01-03", "2024-01-05", "2024-01-07", "2024-01-09"},
		},
		{
			name: "weekly with end date carrying an offset",
			form: Form{
				Title:  "Standup",
				Date:   "2024-01-01",
				Repeat: Repeat{Type: "Weekly", Interval: 1, EndDate: "2024-01-15T00:00:00+09:00"},
			},
			dates: []string{"2024-01-01", "2024-01-08", "2024-01-15"},
		},
		{
			name: "monthly with count",
			form: Form{
				Title:  "Rent",
				Date:   "2024-01-31",
				Repeat: Repeat{Type: "monthly", Interval: 1, Count: 5},
			},
			dates: []string{"2024-01-31", "2024-03-31", "2024-05-31", "2024-07-31", "2024-08-31"},
		},
		{
			name: "yearly leap day",
			form: Form{
				Title:  "Leap party",
				Date:   "2024-02-29",
				Repeat: Repeat{Type: "yearly", Interval: 1, EndDate: "2036-12-31"},
			},
			dates: []string{"2024-02-29", "2028-02-29", "2032-02-29", "2036-02-29"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := newTestPlanner().Plan(tt.form)
			require.NoError(t, err)

			assert.Equal(t, tt.dates, plan.Dates())
			assert.Equal(t, tt.warning, plan.Warning)
			assert.Equal(t, tt.truncated, plan.Truncated)
			assert.True(t, plan.Recurring())

			ids := map[string]bool{}
			for _, ev := range plan.Events {
				assert.Equal(t, plan.SeriesID, ev.SeriesID)
				assert.Equal(t, tt.form.Title, ev.Title)
				assert.False(t, ids[ev.ID], "duplicate event ID %s", ev.ID)
				ids[ev.ID] = true
			}
			assert.False(t, ids[plan.SeriesID])
		})
	}
}

func TestPlanner_OpenEndedSeries(t *testing.T) {
	plan, err := newTestPlanner().Plan(Form{
		Title:  "Daily",
		Date:   "2024-01-01",
		Repeat: Repeat{Type: "daily", Interval: 1},
	})
	require.NoError(t, err)
	assert.Len(t, plan.Events, recurrence.DefaultOpenCount)
	assert.False(t, plan.Truncated)
	assert.Equal(t, recurrence.Count(recurrence.DefaultOpenCount), plan.Target)
}

func TestPlanner_LongRange(t *testing.T) {
	plan, err := newTestPlanner().Plan(Form{
		Title:  "Century",
		Date:   "1900-01-01",
		Repeat: Repeat{Type: "daily", Interval: 1, EndDate: "2024-12-31"},
	})
	require.NoError(t, err)
	assert.Equal(t, daterange.WarnLongRange, plan.Warning)
	assert.True(t, plan.Truncated)
	assert.Len(t, plan.Events, recurrence.DefaultMaxOccurrences)
}

func TestPlanner_Single(t *testing.T) {
	for _, typ := range []string{"", "none", "NONE"} {
		plan, err := newTestPlanner().Plan(Form{Title: "Once", Date: "2024-05-05", Repeat: Repeat{Type: typ}})
		require.NoError(t, err)
		assert.False(t, plan.Recurring())
		require.Len(t, plan.Events, 1)
		assert.Equal(t, "2024-05-05", plan.Events[0].Date)
		assert.Equal(t, RepeatNone, plan.Events[0].Repeat.Type)
	}

	_, err := newTestPlanner().Plan(Form{Title: "Once", Date: "2023-02-29"})
	assert.True(t, calerr.Is(err, calerr.InvalidCalendarDate))
}

func TestPlanner_Errors(t *testing.T) {
	tests := []struct {
		name  string
		form  Form
		kind  calerr.Kind
		field calerr.Field
	}{
		{
			name:  "unknown type",
			form:  Form{Date: "2024-01-01", Repeat: Repeat{Type: "hourly", Interval: 1}},
			kind:  calerr.InvalidRuleParameters,
			field: calerr.FieldType,
		},
		{
			name:  "zero interval",
			form:  Form{Date: "2024-01-01", Repeat: Repeat{Type: "daily"}},
			kind:  calerr.InvalidRuleParameters,
			field: calerr.FieldInterval,
		},
		{
			name:  "end before start",
			form:  Form{Date: "2024-12-31", Repeat: Repeat{Type: "daily", Interval: 1, EndDate: "2024-01-01"}},
			kind:  calerr.InvertedRange,
			field: calerr.FieldNone,
		},
		{
			name:  "impossible end date",
			form:  Form{Date: "2023-01-01", Repeat: Repeat{Type: "daily", Interval: 1, EndDate: "2023-02-29"}},
			kind:  calerr.InvalidCalendarDate,
			field: calerr.FieldEnd,
		},
		{
			name:  "missing start with end date",
			form:  Form{Date: " ", Repeat: Repeat{Type: "daily", Interval: 1, EndDate: "2024-01-01"}},
			kind:  calerr.MissingInput,
			field: calerr.FieldStart,
		},
		{
			name:  "negative count",
			form:  Form{Date: "2024-01-01", Repeat: Repeat{Type: "daily", Interval: 1, Count: -1}},
			kind:  calerr.InvalidRuleParameters,
			field: calerr.FieldCount,
		},
		{
			name:  "count with end date",
			form:  Form{Date: "2024-01-01", Repeat: Repeat{Type: "daily", Interval: 1, Count: 3, EndDate: "2024-02-01"}},
			kind:  calerr.InvalidRuleParameters,
			field: calerr.FieldCount,
		},
		{
			name:  "anchor with a time",
			form:  Form{Date: "2024-01-01T09:00:00Z", Repeat: Repeat{Type: "daily", Interval: 1}},
			kind:  calerr.InvalidFormat,
			field: calerr.FieldStart,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestPlanner().Plan(tt.form)
			require.Error(t, err)
			var e *calerr.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.field, e.Field)
		})
	}
}

func TestPlan_ICS(t *testing.T) {
	plan, err := newTestPlanner().Plan(Form{
		Title:       "Rent",
		Description: "Transfer; then file receipt",
		Date:        "2024-01-31",
		Repeat:      Repeat{Type: "monthly", Interval: 1, EndDate: "2024-06-30"},
	})
	require.NoError(t, err)

	ics, err := plan.ICS()
	require.NoError(t, err)
	assert.Contains(t, ics, "PRODID:"+productID)
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20240131")
	assert.Contains(t, ics, "RELATED-TO:"+plan.SeriesID)

	dates, err := ParseICS(ics)
	require.NoError(t, err)
	assert.Equal(t, plan.Dates(), dates)
}

func TestPlan_Master(t *testing.T) {
	plan, err := newTestPlanner().Plan(Form{
		Title:  "Leap party",
		Date:   "2024-02-29",
		Repeat: Repeat{Type: "yearly", Interval: 1, EndDate: "2040-03-01"},
	})
	require.NoError(t, err)

	ics, err := plan.Master()
	require.NoError(t, err)
	assert.Contains(t, ics, "RRULE:FREQ=YEARLY;INTERVAL=1;UNTIL=20400301")

	cal, err := ical.NewDecoder(strings.NewReader(ics)).Decode()
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)

	anchor, rule, target, err := recurrence.FromComponent(events[0].Component)
	require.NoError(t, err)
	dates, err := recurrence.GenerateEvery(anchor, rule, target)
	require.NoError(t, err)
	assert.Equal(t, plan.Dates(), dates)

	single, err := newTestPlanner().Plan(Form{Title: "Once", Date: "2024-01-01"})
	require.NoError(t, err)
	_, err = single.Master()
	assert.Error(t, err)
}

func TestPlanner_PlanRule(t *testing.T) {
	rule, target, err := recurrence.ParseRRule("FREQ=MONTHLY;INTERVAL=2;UNTIL=20241231")
	require.NoError(t, err)

	plan, err := newTestPlanner().PlanRule(Form{Title: "Rent", Date: "2024-01-31"}, rule, target)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-31", "2024-03-31", "2024-05-31", "2024-07-31"}, plan.Dates())
	assert.Equal(t, Repeat{Type: "monthly", Interval: 2, EndDate: "2024-12-31"}, plan.Events[0].Repeat)

	plan, err = newTestPlanner().PlanRule(Form{Date: "2024-01-01"}, recurrence.Every(1, recurrence.Weekly), recurrence.Count(0))
	require.NoError(t, err)
	assert.Empty(t, plan.Events)
	assert.True(t, plan.Recurring())

	_, err = newTestPlanner().PlanRule(Form{Date: "2024-01-01"}, recurrence.Every(0, recurrence.Daily), recurrence.Count(3))
	assert.True(t, calerr.Is(err, calerr.InvalidRuleParameters))

	_, err = newTestPlanner().PlanRule(Form{Date: "2025-01-01"}, rule, target)
	assert.True(t, calerr.Is(err, calerr.InvertedRange))
}

func TestPlanner_PlanICS(t *testing.T) {
	source, err := newTestPlanner().Plan(Form{
		Title:       "Leap party",
		Description: "Bring cake",
		Date:        "2024-02-29",
		Repeat:      Repeat{Type: "yearly", Interval: 1, Count: 3},
	})
	require.NoError(t, err)
	master, err := source.Master()
	require.NoError(t, err)

	plan, err := newTestPlanner().PlanICS(strings.NewReader(master))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-29", "2028-02-29", "2032-02-29"}, plan.Dates())
	assert.Equal(t, "Leap party", plan.Events[0].Title)
	assert.Equal(t, "Bring cake", plan.Events[0].Description)

	_, err = newTestPlanner().PlanICS(strings.NewReader("not a calendar"))
	assert.Error(t, err)

	// Expanded instances carry no RRULE.
	expanded, err := source.ICS()
	require.NoError(t, err)
	_, err = newTestPlanner().PlanICS(strings.NewReader(expanded))
	assert.True(t, calerr.Is(err, calerr.InvalidRuleParameters))
}
