package clock

import (
	"time"

	"market-confluence/src/calendar"
	"market-confluence/src/models"
)

// -----------------------------------------------------------------------------

// FromInstant resolves t against cal into a market clock. Total for any
// instant; range guards belong to the caller's boundary.
func FromInstant(cal *calendar.Calendar, t time.Time) models.MMarketClock {
	parts, day := cal.Resolve(t)
	date := calendar.NewDate(parts.Year, parts.Month, parts.Day)

	c := models.MMarketClock{
		Instant:                 t.UTC(),
		Local:                   parts,
		Day:                     day,
		Phase:                   models.PhaseClosed,
		TradingDayIndex:         cal.TradingDayIndex(date),
		TradingWeekIndex:        cal.TradingWeekIndex(date),
		IsLastTradingDayOfWeek:  cal.IsLastTradingDayOfWeek(date),
		IsLastTradingDayOfMonth: cal.IsLastTradingDayOfMonth(date),
	}

	if !day.IsTradingDay {
		return c
	}

	minute := parts.MinuteOfDay()
	open := float64(day.SessionOpenMinutesET)
	closeAt := float64(day.SessionCloseMinutesET)

	c.MinutesSinceOpen = minute - open
	c.Phase = Phase(minute, cal.PreOpenMinutes(), day.SessionOpenMinutesET, day.SessionCloseMinutesET, cal.AfterHoursMinutes())
	if c.Phase == models.PhaseRegular {
		c.MinutesToClose = closeAt - minute
	}
	return c
}

// Phase selects the session phase of a trading day from the four boundaries:
// pre-open, open, close and close plus the after-hours window.
func Phase(minuteOfDay float64, preOpen, open, closeAt, afterHours int) models.SessionPhase {
	switch {
	case minuteOfDay < float64(preOpen):
		return models.PhaseClosed
	case minuteOfDay < float64(open):
		return models.PhasePre
	case minuteOfDay < float64(closeAt):
		return models.PhaseRegular
	case minuteOfDay < float64(closeAt+afterHours):
		return models.PhaseAfter
	}
	return models.PhaseClosed
}

// WholeMinutesSinceOpen truncates the fractional session offset; candles
// close on whole-minute boundaries.
func WholeMinutesSinceOpen(c models.MMarketClock) int {
	return int(c.MinutesSinceOpen)
}
