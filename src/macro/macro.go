package macro

import (
	"time"

	"market-confluence/src/calendar"
	"market-confluence/src/models"
)

// DefaultHorizonDays bounds the forward scan for the next notable macro day.
const DefaultHorizonDays = 90

// notableCycles is how many simultaneous closes make a day notable without a
// quarterly or longer cycle among them.
const notableCycles = 4

// veryHighCycles escalates a day with no semi-annual or quarterly close.
const veryHighCycles = 6

var cycleBonus = map[models.Timeframe]int{
	models.TF1Y: 10,
	models.TF6M: 6,
	models.TF3M: 4,
	models.TF1M: 2,
}

var (
	dailyCycles   = models.TimeframesOf(models.FamilyDaily)
	weeklyCycles  = models.TimeframesOf(models.FamilyWeekly)
	monthlyCycles = models.TimeframesOf(models.FamilyMonthly, models.FamilyYearly)
)

// monthMembership lists the calendar months in which each monthly cycle can
// close: an N-month cycle closes in every month divisible by N.
var monthMembership = func() map[models.Timeframe]map[time.Month]bool {
	out := make(map[models.Timeframe]map[time.Month]bool, len(monthlyCycles))
	for _, tf := range monthlyCycles {
		months := make(map[time.Month]bool)
		for m := time.January; m <= time.December; m++ {
			if int(m)%tf.Period() == 0 {
				months[m] = true
			}
		}
		out[tf] = months
	}
	return out
}()

// -----------------------------------------------------------------------------

// Day carries the calendar facts the cycle rules depend on.
type Day struct {
	DateKey                 string
	IsTradingDay            bool
	TradingDayIndex         int
	TradingWeekIndex        int
	Month                   time.Month
	IsLastTradingDayOfWeek  bool
	IsLastTradingDayOfMonth bool
}

// DayOf collects the cycle inputs for d.
func DayOf(cal *calendar.Calendar, d calendar.Date) Day {
	return Day{
		DateKey:                 d.Key(),
		IsTradingDay:            cal.IsTradingDay(d),
		TradingDayIndex:         cal.TradingDayIndex(d),
		TradingWeekIndex:        cal.TradingWeekIndex(d),
		Month:                   d.Month(),
		IsLastTradingDayOfWeek:  cal.IsLastTradingDayOfWeek(d),
		IsLastTradingDayOfMonth: cal.IsLastTradingDayOfMonth(d),
	}
}

// DayOfClock reuses the indices the market clock already resolved.
func DayOfClock(c models.MMarketClock) Day {
	return Day{
		DateKey:                 c.Local.DateKey,
		IsTradingDay:            c.Day.IsTradingDay,
		TradingDayIndex:         c.TradingDayIndex,
		TradingWeekIndex:        c.TradingWeekIndex,
		Month:                   c.Local.Month,
		IsLastTradingDayOfWeek:  c.IsLastTradingDayOfWeek,
		IsLastTradingDayOfMonth: c.IsLastTradingDayOfMonth,
	}
}

// -----------------------------------------------------------------------------

// ClosingCycles lists the macro cycles that close on day, in enum order.
// Daily cycles follow the trading-day index, so holidays never shift their
// phase; weekly cycles need the week's last session; monthly cycles need the
// month's last session and a member month.
func ClosingCycles(day Day) []models.Timeframe {
	out := []models.Timeframe{}
	if !day.IsTradingDay {
		return out
	}

	for _, tf := range dailyCycles {
		if mod(day.TradingDayIndex, tf.Period()) == 0 {
			out = append(out, tf)
		}
	}
	if day.IsLastTradingDayOfWeek {
		for _, tf := range weeklyCycles {
			if mod(day.TradingWeekIndex, tf.Period()) == 0 {
				out = append(out, tf)
			}
		}
	}
	if day.IsLastTradingDayOfMonth {
		for _, tf := range monthlyCycles {
			if monthMembership[tf][day.Month] {
				out = append(out, tf)
			}
		}
	}
	return out
}

// Confluence scores the cycles closing on day.
func Confluence(day Day) models.MMacroConfluence {
	cycles := ClosingCycles(day)
	return models.MMacroConfluence{
		DateKey:         day.DateKey,
		ClosingCycles:   cycles,
		ConfluenceScore: Score(cycles),
		ImpactLevel:     Impact(cycles),
	}
}

// Score is the cycle count plus the yearly, semi-annual, quarterly and
// monthly bonuses.
func Score(cycles []models.Timeframe) int {
	score := len(cycles)
	for _, tf := range cycles {
		score += cycleBonus[tf]
	}
	return score
}

// Impact ranks a closing set. An empty set (non-trading day) is "none".
func Impact(cycles []models.Timeframe) models.ImpactLevel {
	if len(cycles) == 0 {
		return models.ImpactNone
	}
	has := func(tf models.Timeframe) bool {
		for _, c := range cycles {
			if c == tf {
				return true
			}
		}
		return false
	}
	switch {
	case has(models.TF1Y):
		return models.ImpactMaximum
	case has(models.TF6M), has(models.TF3M), len(cycles) >= veryHighCycles:
		return models.ImpactVeryHigh
	}
	return models.ImpactHigh
}

// Notable reports whether a macro day is worth surfacing: a quarterly or
// longer close, or enough simultaneous cycles.
func Notable(m models.MMacroConfluence) bool {
	return m.Has(models.TF3M) || m.Has(models.TF6M) || m.Has(models.TF1Y) || len(m.ClosingCycles) >= notableCycles
}

// -----------------------------------------------------------------------------

// Next scans forward from start, one calendar day at a time and skipping
// non-trading days, for the first notable macro day within horizonDays. When
// includeStart is false the scan begins the day after start. If nothing
// qualifies the confluence of the horizon's last day is returned with Found
// false.
func Next(cal *calendar.Calendar, start calendar.Date, horizonDays int, includeStart bool) models.MMacroEvent {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	first := 1
	if includeStart {
		first = 0
	}

	for offset := first; offset <= horizonDays; offset++ {
		d := start.AddDays(offset)
		if !cal.IsTradingDay(d) {
			continue
		}
		if m := Confluence(DayOf(cal, d)); Notable(m) {
			return models.MMacroEvent{Found: true, DaysUntil: offset, Confluence: m}
		}
	}
	return models.MMacroEvent{
		DaysUntil:  horizonDays,
		Confluence: Confluence(DayOf(cal, start.AddDays(horizonDays))),
	}
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
