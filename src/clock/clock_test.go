package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"market-confluence/src/calendar"
	"market-confluence/src/models"
)

// et builds an instant from New York wall-clock fields.
func et(cal *calendar.Calendar, y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, cal.Location())
}

func TestPhases(t *testing.T) {
	cal := calendar.Default()

	tests := []struct {
		name  string
		at    time.Time
		phase models.SessionPhase
	}{
		{"overnight", et(cal, 2025, 6, 10, 3, 59), models.PhaseClosed},
		{"pre-market start", et(cal, 2025, 6, 10, 4, 0), models.PhasePre},
		{"one minute to open", et(cal, 2025, 6, 10, 9, 29), models.PhasePre},
		{"open", et(cal, 2025, 6, 10, 9, 30), models.PhaseRegular},
		{"last regular minute", et(cal, 2025, 6, 10, 15, 59), models.PhaseRegular},
		{"close", et(cal, 2025, 6, 10, 16, 0), models.PhaseAfter},
		{"late after-hours", et(cal, 2025, 6, 10, 19, 59), models.PhaseAfter},
		{"evening", et(cal, 2025, 6, 10, 20, 0), models.PhaseClosed},
		{"saturday midday", et(cal, 2025, 6, 14, 12, 0), models.PhaseClosed},
		{"holiday midday", et(cal, 2025, 7, 4, 12, 0), models.PhaseClosed},
		{"half-day afternoon", et(cal, 2025, 12, 24, 13, 30), models.PhaseAfter},
		{"half-day morning", et(cal, 2025, 12, 24, 12, 59), models.PhaseRegular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.phase, FromInstant(cal, tt.at).Phase)
		})
	}
}

func TestSessionOffsets(t *testing.T) {
	cal := calendar.Default()

	c := FromInstant(cal, et(cal, 2025, 6, 10, 10, 30))
	assert.Equal(t, 60.0, c.MinutesSinceOpen)
	assert.Equal(t, 330.0, c.MinutesToClose)
	assert.Equal(t, "2025-06-10", c.Local.DateKey)

	pre := FromInstant(cal, et(cal, 2025, 6, 10, 9, 0))
	assert.Equal(t, -30.0, pre.MinutesSinceOpen)
	assert.Zero(t, pre.MinutesToClose)

	half := FromInstant(cal, et(cal, 2025, 11, 28, 12, 0))
	assert.True(t, half.Day.IsHalfDay)
	assert.Equal(t, 150.0, half.MinutesSinceOpen)
	assert.Equal(t, 60.0, half.MinutesToClose)

	secs := FromInstant(cal, time.Date(2025, 6, 10, 10, 30, 30, 0, cal.Location()))
	assert.InDelta(t, 60.5, secs.MinutesSinceOpen, 1e-9)
	assert.Equal(t, 60, WholeMinutesSinceOpen(secs))
}

func TestClockCarriesMacroAlignment(t *testing.T) {
	cal := calendar.Default()

	c := FromInstant(cal, et(cal, 2025, 12, 31, 15, 0))
	assert.True(t, c.IsLastTradingDayOfMonth)
	assert.False(t, c.IsLastTradingDayOfWeek)
	assert.Equal(t, 502, c.TradingDayIndex)

	weekend := FromInstant(cal, et(cal, 2026, 1, 3, 12, 0))
	assert.Equal(t, models.PhaseClosed, weekend.Phase)
	assert.False(t, weekend.IsLastTradingDayOfMonth)
	assert.Equal(t, c.TradingDayIndex+1, weekend.TradingDayIndex) // Jan 2 traded
}

func TestPhaseBoundaries(t *testing.T) {
	assert.Equal(t, models.PhaseClosed, Phase(239.9, 240, 570, 960, 240))
	assert.Equal(t, models.PhasePre, Phase(240, 240, 570, 960, 240))
	assert.Equal(t, models.PhaseRegular, Phase(570, 240, 570, 960, 240))
	assert.Equal(t, models.PhaseAfter, Phase(960, 240, 570, 960, 240))
	assert.Equal(t, models.PhaseClosed, Phase(1200, 240, 570, 960, 240))
	assert.Equal(t, models.PhaseClosed, Phase(960, 240, 570, 960, 0))
}
