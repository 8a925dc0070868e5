package calendar

import (
	"time"
	_ "time/tzdata"
)

// NYSE full-day closures. Extend by adding a year; the horizon follows the
// tables automatically.
var nyseHolidays = map[string]string{
	"2024-01-01": "New Year's Day",
	"2024-01-15": "Martin Luther King Jr. Day",
	"2024-02-19": "Washington's Birthday",
	"2024-03-29": "Good Friday",
	"2024-05-27": "Memorial Day",
	"2024-06-19": "Juneteenth",
	"2024-07-04": "Independence Day",
	"2024-09-02": "Labor Day",
	"2024-11-28": "Thanksgiving Day",
	"2024-12-25": "Christmas Day",

	"2025-01-01": "New Year's Day",
	"2025-01-09": "National Day of Mourning",
	"2025-01-20": "Martin Luther King Jr. Day",
	"2025-02-17": "Washington's Birthday",
	"2025-04-18": "Good Friday",
	"2025-05-26": "Memorial Day",
	"2025-06-19": "Juneteenth",
	"2025-07-04": "Independence Day",
	"2025-09-01": "Labor Day",
	"2025-11-27": "Thanksgiving Day",
	"2025-12-25": "Christmas Day",

	"2026-01-01": "New Year's Day",
	"2026-01-19": "Martin Luther King Jr. Day",
	"2026-02-16": "Washington's Birthday",
	"2026-04-03": "Good Friday",
	"2026-05-25": "Memorial Day",
	"2026-06-19": "Juneteenth",
	"2026-07-03": "Independence Day (observed)",
	"2026-09-07": "Labor Day",
	"2026-11-26": "Thanksgiving Day",
	"2026-12-25": "Christmas Day",

	"2027-01-01": "New Year's Day",
	"2027-01-18": "Martin Luther King Jr. Day",
	"2027-02-15": "Washington's Birthday",
	"2027-03-26": "Good Friday",
	"2027-05-31": "Memorial Day",
	"2027-06-18": "Juneteenth (observed)",
	"2027-07-05": "Independence Day (observed)",
	"2027-09-06": "Labor Day",
	"2027-11-25": "Thanksgiving Day",
	"2027-12-24": "Christmas Day (observed)",
}

// NYSE 13:00 early closes.
var nyseHalfDays = map[string]int{
	"2024-07-03": DefaultHalfDayClose,
	"2024-11-29": DefaultHalfDayClose,
	"2024-12-24": DefaultHalfDayClose,

	"2025-07-03": DefaultHalfDayClose,
	"2025-11-28": DefaultHalfDayClose,
	"2025-12-24": DefaultHalfDayClose,

	"2026-11-27": DefaultHalfDayClose,
	"2026-12-24": DefaultHalfDayClose,

	"2027-11-26": DefaultHalfDayClose,
}

// -----------------------------------------------------------------------------

// NYSEHolidays returns a copy of the built-in holiday table.
func NYSEHolidays() map[string]string {
	out := make(map[string]string, len(nyseHolidays))
	for k, v := range nyseHolidays {
		out[k] = v
	}
	return out
}

// NYSEHalfDays returns a copy of the built-in early-close table.
func NYSEHalfDays() map[string]int {
	out := make(map[string]int, len(nyseHalfDays))
	for k, v := range nyseHalfDays {
		out[k] = v
	}
	return out
}

// DefaultConfig is the NYSE regular session with the built-in tables, indices
// anchored at 2024-01-01.
func DefaultConfig() Config {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// tzdata missing; a fixed EST offset keeps the engine total
		loc = time.FixedZone("EST", -5*60*60)
	}
	return Config{
		Location:          loc,
		Epoch:             NewDate(2024, time.January, 1),
		PreOpenMinutes:    DefaultPreOpenMinutes,
		OpenMinutes:       DefaultOpenMinutes,
		CloseMinutes:      DefaultCloseMinutes,
		AfterHoursMinutes: DefaultAfterHoursMinutes,
		Holidays:          NYSEHolidays(),
		HalfDays:          NYSEHalfDays(),
	}
}

// Default builds a Calendar from DefaultConfig. The built-in tables are
// valid, so construction cannot fail.
func Default() *Calendar {
	c, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return c
}
