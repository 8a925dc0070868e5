package calendar

import (
	"fmt"
	"time"

	"market-confluence/src/models"
)

// Standard US equity session, minutes after local midnight.
const (
	DefaultPreOpenMinutes    = 4 * 60
	DefaultOpenMinutes       = 9*60 + 30
	DefaultCloseMinutes      = 16 * 60
	DefaultAfterHoursMinutes = 4 * 60
	DefaultHalfDayClose      = 13 * 60
	RegularSessionMinutes    = DefaultCloseMinutes - DefaultOpenMinutes
)

// Config is the static calendar configuration. It is copied on New and never
// mutated afterwards; refreshing holidays means building a new Calendar.
type Config struct {
	Location          *time.Location
	Epoch             Date
	PreOpenMinutes    int
	OpenMinutes       int
	CloseMinutes      int
	AfterHoursMinutes int
	// Holidays maps "2006-01-02" to a holiday name.
	Holidays map[string]string
	// HalfDays maps "2006-01-02" to the early close, minutes after midnight.
	HalfDays map[string]int
}

// -----------------------------------------------------------------------------

// Calendar resolves instants into exchange-local sessions. Safe for
// concurrent use: all state is built in New and read-only afterwards.
type Calendar struct {
	loc             *time.Location
	epoch           Date
	preOpen         int
	open            int
	close           int
	afterHours      int
	holidays        map[string]string
	halfDays        map[string]int
	hasHorizon      bool
	horizonStart    Date
	horizonEnd      Date
	rangeStart      Date  // Monday on or before min(epoch, horizonStart)
	rangeEnd        Date  // Sunday on or after max(epoch, horizonEnd)
	dayPrefix       []int // trading days in [rangeStart, rangeStart+i]
	weekPrefix      []int // trading weeks in [rangeStart.Week(), rangeStart.Week()+i]
	epochDayOffset  int
	epochWeekOffset int
}

// -----------------------------------------------------------------------------

// New validates cfg and precomputes the exact trading-day and trading-week
// counts over the configured horizon.
func New(cfg Config) (*Calendar, error) {
	if cfg.Location == nil {
		return nil, fmt.Errorf("calendar location is required")
	}
	if cfg.OpenMinutes <= 0 || cfg.CloseMinutes <= cfg.OpenMinutes || cfg.CloseMinutes > 24*60 {
		return nil, fmt.Errorf("invalid session bounds %d-%d", cfg.OpenMinutes, cfg.CloseMinutes)
	}
	if cfg.PreOpenMinutes < 0 || cfg.PreOpenMinutes > cfg.OpenMinutes {
		return nil, fmt.Errorf("pre-open %d must be between 0 and open %d", cfg.PreOpenMinutes, cfg.OpenMinutes)
	}
	if cfg.AfterHoursMinutes < 0 {
		return nil, fmt.Errorf("after-hours window cannot be negative")
	}

	c := &Calendar{
		loc:        cfg.Location,
		epoch:      cfg.Epoch,
		preOpen:    cfg.PreOpenMinutes,
		open:       cfg.OpenMinutes,
		close:      cfg.CloseMinutes,
		afterHours: cfg.AfterHoursMinutes,
		holidays:   make(map[string]string, len(cfg.Holidays)),
		halfDays:   make(map[string]int, len(cfg.HalfDays)),
	}

	first, last := 0, 0
	track := func(key string) error {
		d, err := ParseDate(key)
		if err != nil {
			return err
		}
		y := d.Year()
		if !c.hasHorizon || y < first {
			first = y
		}
		if !c.hasHorizon || y > last {
			last = y
		}
		c.hasHorizon = true
		return nil
	}

	for key, name := range cfg.Holidays {
		if err := track(key); err != nil {
			return nil, err
		}
		c.holidays[key] = name
	}
	for key, closeMin := range cfg.HalfDays {
		if err := track(key); err != nil {
			return nil, err
		}
		if closeMin <= cfg.OpenMinutes || closeMin >= cfg.CloseMinutes {
			return nil, fmt.Errorf("half-day %s close %d must fall inside the regular session", key, closeMin)
		}
		if _, clash := c.holidays[key]; clash {
			return nil, fmt.Errorf("date %s is both a holiday and a half-day", key)
		}
		c.halfDays[key] = closeMin
	}

	if c.hasHorizon {
		c.horizonStart = NewDate(first, time.January, 1)
		c.horizonEnd = NewDate(last, time.December, 31)
	}
	c.buildPrefixes()
	return c, nil
}

// -----------------------------------------------------------------------------

func (c *Calendar) buildPrefixes() {
	lo, hi := c.epoch, c.epoch
	if c.hasHorizon {
		lo = min(lo, c.horizonStart)
		hi = max(hi, c.horizonEnd)
	}
	// align to whole Monday-Sunday weeks
	lo -= Date(floorMod(int64(lo)+3, 7))
	hi += Date(6 - floorMod(int64(hi)+3, 7))
	c.rangeStart, c.rangeEnd = lo, hi

	n := int(hi-lo) + 1
	c.dayPrefix = make([]int, n)
	c.weekPrefix = make([]int, n/7)

	days, weeks := 0, 0
	weekHasTrading := false
	for i := 0; i < n; i++ {
		d := lo + Date(i)
		if c.isTradingDate(d) {
			days++
			weekHasTrading = true
		}
		c.dayPrefix[i] = days
		if i%7 == 6 {
			if weekHasTrading {
				weeks++
			}
			c.weekPrefix[i/7] = weeks
			weekHasTrading = false
		}
	}

	c.epochDayOffset = c.dayPrefixAt(c.epoch - 1)
	c.epochWeekOffset = c.weekPrefixAt(c.epoch.Week() - 1)
}

// dayPrefixAt counts trading days in [rangeStart, d]. Outside the precomputed
// range every weekday counts, matching the resolver's default classification.
func (c *Calendar) dayPrefixAt(d Date) int {
	switch {
	case d < c.rangeStart:
		return -weekdaysBetween(d+1, c.rangeStart-1)
	case d > c.rangeEnd:
		return c.dayPrefix[len(c.dayPrefix)-1] + weekdaysBetween(c.rangeEnd+1, d)
	}
	return c.dayPrefix[d-c.rangeStart]
}

func (c *Calendar) weekPrefixAt(week int) int {
	first := c.rangeStart.Week()
	last := first + len(c.weekPrefix) - 1
	switch {
	case week < first:
		return week - first + 1
	case week > last:
		return c.weekPrefix[len(c.weekPrefix)-1] + week - last
	}
	return c.weekPrefix[week-first]
}

// -----------------------------------------------------------------------------

func (c *Calendar) isTradingDate(d Date) bool {
	if d.IsWeekend() {
		return false
	}
	_, holiday := c.holidays[d.Key()]
	return !holiday
}

// Location is the exchange timezone.
func (c *Calendar) Location() *time.Location { return c.loc }

// Epoch anchors the trading-day and trading-week indices.
func (c *Calendar) Epoch() Date { return c.epoch }

// Horizon is the span of years covered by the holiday tables. ok is false
// when no tables were configured.
func (c *Calendar) Horizon() (start, end Date, ok bool) {
	return c.horizonStart, c.horizonEnd, c.hasHorizon
}

// Covers reports whether d is classified from the holiday tables rather than
// by weekday alone.
func (c *Calendar) Covers(d Date) bool {
	return c.hasHorizon && d >= c.horizonStart && d <= c.horizonEnd
}

// PreOpenMinutes is when the pre-market phase begins.
func (c *Calendar) PreOpenMinutes() int { return c.preOpen }

// AfterHoursMinutes is how long the after-hours phase lasts past the close.
func (c *Calendar) AfterHoursMinutes() int { return c.afterHours }

// -----------------------------------------------------------------------------

// DateOf is the exchange-local calendar date of t.
func (c *Calendar) DateOf(t time.Time) Date {
	y, m, d := t.In(c.loc).Date()
	return NewDate(y, m, d)
}

// Resolve decomposes t into exchange-local wall-clock fields and classifies
// its calendar date.
func (c *Calendar) Resolve(t time.Time) (models.MLocalParts, models.MCalendarDay) {
	local := t.In(c.loc)
	y, m, d := local.Date()
	date := NewDate(y, m, d)

	parts := models.MLocalParts{
		Year:    y,
		Month:   m,
		Day:     d,
		Hour:    local.Hour(),
		Minute:  local.Minute(),
		Second:  local.Second(),
		Weekday: local.Weekday(),
		DateKey: date.Key(),
	}
	return parts, c.Day(date)
}

// Day classifies one calendar date: weekend, holiday, half-day or regular.
func (c *Calendar) Day(d Date) models.MCalendarDay {
	key := d.Key()
	day := models.MCalendarDay{DateKey: key, InHorizon: c.Covers(d)}

	if d.IsWeekend() {
		return day
	}
	if name, ok := c.holidays[key]; ok {
		day.HolidayName = name
		return day
	}

	day.IsTradingDay = true
	day.SessionOpenMinutesET = c.open
	day.SessionCloseMinutesET = c.close
	if closeMin, ok := c.halfDays[key]; ok {
		day.IsHalfDay = true
		day.SessionCloseMinutesET = closeMin
	}
	day.SessionLengthMinutes = day.SessionCloseMinutesET - day.SessionOpenMinutesET
	return day
}

// IsTradingDay reports whether the exchange holds a session on d.
func (c *Calendar) IsTradingDay(d Date) bool { return c.isTradingDate(d) }

// TradingDayIndex counts trading days in [epoch, d]. Dates before the epoch
// yield non-positive indices; the difference between two dates is always the
// number of trading days in the half-open interval between them.
func (c *Calendar) TradingDayIndex(d Date) int {
	return c.dayPrefixAt(d) - c.epochDayOffset
}

// TradingWeekIndex counts Monday-based weeks holding at least one trading day
// from the epoch's week through d's week.
func (c *Calendar) TradingWeekIndex(d Date) int {
	return c.weekPrefixAt(d.Week()) - c.epochWeekOffset
}

// NextTradingDay is the first trading day strictly after d.
func (c *Calendar) NextTradingDay(d Date) Date {
	next := d + 1
	for !c.isTradingDate(next) {
		next++
	}
	return next
}

// IsLastTradingDayOfWeek is true when d trades and the next session falls in
// a later week (Friday, or Thursday before a Friday holiday).
func (c *Calendar) IsLastTradingDayOfWeek(d Date) bool {
	return c.isTradingDate(d) && c.NextTradingDay(d).Week() != d.Week()
}

// IsLastTradingDayOfMonth is true when d trades and the next session falls in
// a later month.
func (c *Calendar) IsLastTradingDayOfMonth(d Date) bool {
	return c.isTradingDate(d) && c.NextTradingDay(d).Month() != d.Month()
}

// At converts a local date and minute-of-day to an instant.
func (c *Calendar) At(d Date, minuteOfDay float64) time.Time {
	y, m, day := d.YMD()
	whole := int(minuteOfDay)
	secs := int((minuteOfDay - float64(whole)) * 60)
	return time.Date(y, m, day, whole/60, whole%60, secs, 0, c.loc)
}
