// Package clock provides the billing-period clock used by usage
// aggregation and invoicing. Periods are UTC calendar months.
package clock

import "time"

// Clock abstracts wall time so billing logic can be tested
// against fixed instants.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock in UTC.
type SystemClock struct{}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Period formats t as a YYYY-MM billing period in UTC.
func Period(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// CurrentPeriod returns the billing period containing c.Now().
func CurrentPeriod(c Clock) string {
	return Period(c.Now())
}

// MonthStart truncates t to the first instant of its UTC month.
func MonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ValidPeriod reports whether period is a well-formed YYYY-MM string.
func ValidPeriod(period string) bool {
	_, err := time.Parse("2006-01", period)
	return err == nil
}
