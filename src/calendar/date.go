package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the key format used by holiday tables and snapshots.
const DateLayout = "2006-01-02"

// -----------------------------------------------------------------------------
// Date is a civil (timezone-free) calendar date counted in days since
// 1970-01-01. Arithmetic on it never crosses a DST boundary.
// -----------------------------------------------------------------------------

type Date int

// NewDate builds a Date from its civil fields. Out-of-range fields normalize
// the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date(floorDiv(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix(), 86400))
}

// ParseDate parses a "2006-01-02" key.
func ParseDate(key string) (Date, error) {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", key, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func (d Date) utc() time.Time { return time.Unix(int64(d)*86400, 0).UTC() }

// YMD returns the civil fields.
func (d Date) YMD() (int, time.Month, int) {
	return d.utc().Date()
}

func (d Date) Year() int { return d.utc().Year() }

func (d Date) Month() time.Month { return d.utc().Month() }

func (d Date) Weekday() time.Weekday {
	// 1970-01-01 was a Thursday
	return time.Weekday(floorMod(int64(d)+4, 7))
}

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) Key() string { return d.utc().Format(DateLayout) }

func (d Date) String() string { return d.Key() }

func (d Date) AddDays(n int) Date { return d + Date(n) }

// Week is the Monday-based week number of the date.
func (d Date) Week() int { return int(floorDiv(int64(d)+3, 7)) }

// -----------------------------------------------------------------------------

// weekdaysBefore counts Monday-Friday dates strictly before d.
func weekdaysBefore(d Date) int {
	// shift so index 0 is a Monday
	k := int64(d) + 3
	return int(5*floorDiv(k, 7) + min(floorMod(k, 7), 5))
}

// weekdaysBetween counts Monday-Friday dates in [from, to]; zero when to < from.
func weekdaysBetween(from, to Date) int {
	if to < from {
		return 0
	}
	return weekdaysBefore(to+1) - weekdaysBefore(from)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
