package clock

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the civil-day format used by every date column in the store.
const DateLayout = "02/01/2006"

// Clock provides the current time anchored to one fixed civil timezone.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

func NewSystem(timezone string) (Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &systemClock{loc: loc}, nil
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *systemClock) Location() *time.Location {
	return c.loc
}

// FormatDate renders t as a civil day, DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// RoundToQuarter rounds elapsed minutes up to the next multiple of 15.
// Zero stays zero; a single minute becomes 15.
func RoundToQuarter(minutes float64) int {
	return int(math.Ceil(minutes/15)) * 15
}

// EndOfDay returns 23:59:59 of t's civil day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// StartOfWeek returns the Monday of t's week, same wall clock as t.
func StartOfWeek(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -daysSinceMonday)
}

// MonthPattern returns the SQL LIKE pattern matching every date of t's
// calendar month, e.g. "%/09/2026". Dates are stored as DD/MM/YYYY text,
// so the month scope is a textual suffix match.
func MonthPattern(t time.Time) string {
	return fmt.Sprintf("%%/%02d/%d", int(t.Month()), t.Year())
}

// Rebind reinterprets a naive timestamp in loc. The store keeps timestamps
// without an offset; whatever location the driver hands back, the wall-clock
// fields are the civil time and must be re-anchored before arithmetic.
func Rebind(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
