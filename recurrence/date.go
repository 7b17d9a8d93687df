package recurrence

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"cloudeng.io/datetime"
	"github.com/cyp0633/recurdate/calerr"
)

// DateLayout is the layout of every date the generator reads or writes.
const DateLayout = "2006-01-02"

var dateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// calendarDate is a year/month/day triple that may name a day that does not
// exist, such as April 31. Candidates are built this way and then tested.
type calendarDate datetime.CalendarDate

func parseDate(s string, field calerr.Field, what string) (calendarDate, error) {
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return calendarDate{}, calerr.New(calerr.InvalidFormat, field,
			fmt.Sprintf("invalid %s %q, expected YYYY-MM-DD", what, s))
	}
	y, _ := strconv.Atoi(m[1])
	mon, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	cd := calendarDate{Year: y, Month: datetime.Month(mon), Day: d}
	if !cd.exists() {
		return calendarDate{}, calerr.New(calerr.InvalidCalendarDate, field,
			fmt.Sprintf("%s %q does not exist", what, s))
	}
	return cd, nil
}

func fromTime(t time.Time) calendarDate {
	y, m, d := t.Date()
	return calendarDate{Year: y, Month: datetime.Month(m), Day: d}
}

func (cd calendarDate) exists() bool {
	if cd.Month < 1 || cd.Month > 12 || cd.Day < 1 {
		return false
	}
	return cd.Day <= datetime.DaysInMonth(cd.Year, cd.Month)
}

// MaxYear is the last year a YYYY-MM-DD occurrence can carry.
const MaxYear = 9999

// unitsToMaxYear is an upper bound on the number of units of t between cd and
// the end of MaxYear. Steps beyond it never produce a four-digit year.
func (cd calendarDate) unitsToMaxYear(t RepeatType) int {
	years := MaxYear - cd.Year + 1
	switch t {
	case Daily:
		return years * 366
	case Weekly:
		return years*366/7 + 1
	case Monthly:
		return years * 12
	default:
		return years
	}
}

// addDays is only valid on existing dates.
func (cd calendarDate) addDays(n int) calendarDate {
	return fromTime(time.Date(cd.Year, time.Month(cd.Month), cd.Day+n, 0, 0, 0, 0, time.UTC))
}

// addMonths keeps the day fixed, so the result may not exist.
func (cd calendarDate) addMonths(n int) calendarDate {
	total := int(cd.Month) - 1 + n
	return calendarDate{Year: cd.Year + total/12, Month: datetime.Month(total%12 + 1), Day: cd.Day}
}

// addYears keeps month and day fixed, so the result may not exist.
func (cd calendarDate) addYears(n int) calendarDate {
	return calendarDate{Year: cd.Year + n, Month: cd.Month, Day: cd.Day}
}

func (cd calendarDate) after(o calendarDate) bool {
	if cd.Year != o.Year {
		return cd.Year > o.Year
	}
	if cd.Month != o.Month {
		return cd.Month > o.Month
	}
	return cd.Day > o.Day
}

func (cd calendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", cd.Year, int(cd.Month), cd.Day)
}
