package models

import "time"

// SessionPhase of the exchange at a given instant.
type SessionPhase string

const (
	PhasePre     SessionPhase = "pre"
	PhaseRegular SessionPhase = "regular"
	PhaseAfter   SessionPhase = "after"
	PhaseClosed  SessionPhase = "closed"
)

// -----------------------------------------------------------------------------

// MLocalParts is an instant decomposed into exchange-local wall-clock fields.
type MLocalParts struct {
	Year    int          `json:"year"`
	Month   time.Month   `json:"month"`
	Day     int          `json:"day"`
	Hour    int          `json:"hour"`
	Minute  int          `json:"minute"`
	Second  int          `json:"second"`
	Weekday time.Weekday `json:"weekday"`
	DateKey string       `json:"date_key"` // "2006-01-02"
}

// MinuteOfDay is the fractional number of minutes since local midnight.
func (p MLocalParts) MinuteOfDay() float64 {
	return float64(p.Hour*60+p.Minute) + float64(p.Second)/60
}

// -----------------------------------------------------------------------------

// MCalendarDay is the session classification of one exchange date.
type MCalendarDay struct {
	DateKey               string `json:"date_key"`
	IsTradingDay          bool   `json:"is_trading_day"`
	IsHalfDay             bool   `json:"is_half_day"`
	HolidayName           string `json:"holiday_name,omitempty"`
	SessionOpenMinutesET  int    `json:"session_open_minutes_et"`
	SessionCloseMinutesET int    `json:"session_close_minutes_et"`
	SessionLengthMinutes  int    `json:"session_length_minutes"`
	// InHorizon is false when the date lies outside the configured holiday
	// tables and was classified by weekday alone.
	InHorizon bool `json:"in_horizon"`
}

// -----------------------------------------------------------------------------

// MMarketClock is computed once per instant and drives every other component.
type MMarketClock struct {
	Instant                 time.Time    `json:"instant"`
	Local                   MLocalParts  `json:"local"`
	Day                     MCalendarDay `json:"day"`
	Phase                   SessionPhase `json:"session_phase"`
	MinutesSinceOpen        float64      `json:"minutes_since_open"`
	MinutesToClose          float64      `json:"minutes_to_close"` // valid only when Phase == regular
	TradingDayIndex         int          `json:"trading_day_index"`
	TradingWeekIndex        int          `json:"trading_week_index"`
	IsLastTradingDayOfWeek  bool         `json:"is_last_trading_day_of_week"`
	IsLastTradingDayOfMonth bool         `json:"is_last_trading_day_of_month"`
}

// IsRegular reports whether the regular session is in progress.
func (c MMarketClock) IsRegular() bool { return c.Phase == PhaseRegular }
