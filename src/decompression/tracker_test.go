package decompression

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"market-confluence/src/calendar"
	"market-confluence/src/cluster"
	"market-confluence/src/micro"
	"market-confluence/src/models"
)

func regularClock(minutesSinceOpen float64) models.MMarketClock {
	return models.MMarketClock{
		Phase:            models.PhaseRegular,
		MinutesSinceOpen: minutesSinceOpen,
		MinutesToClose:   calendar.RegularSessionMinutes - minutesSinceOpen,
		Day: models.MCalendarDay{
			IsTradingDay:         true,
			SessionLengthMinutes: calendar.RegularSessionMinutes,
		},
	}
}

func TestWindowStatusPhases(t *testing.T) {
	// 1H window opens 12 minutes before the close; imminent in the last 3
	tests := []struct {
		toClose float64
		inside  bool
		phase   models.WindowPhase
	}{
		{30, false, models.WindowNotStarted},
		{12.5, false, models.WindowNotStarted},
		{12, true, models.WindowActive},
		{3.5, true, models.WindowActive},
		{3, true, models.WindowImminent},
		{0.5, true, models.WindowImminent},
		{0, false, models.WindowNotStarted},
	}
	for _, tt := range tests {
		st := WindowStatus(models.TF1H, tt.toClose)
		assert.Equal(t, tt.inside, st.IsInWindow, "toClose %v", tt.toClose)
		assert.Equal(t, tt.phase, st.Phase, "toClose %v", tt.toClose)
		assert.Equal(t, 12.0, st.WindowStartMinutes)
	}

	assert.False(t, WindowStatus(models.TF1D, 1).IsInWindow)
}

func TestStatusWithoutDominantClusterReportsEverything(t *testing.T) {
	// 58 minutes in: 5m closes in 2 (window 2), 10m in 2 (window 3), 1H in 2 (window 12)
	got := Status(regularClock(58), cluster.NoCluster())

	tfs := make([]models.Timeframe, len(got))
	for i, st := range got {
		tfs[i] = st.Timeframe
		assert.True(t, st.IsInWindow)
	}
	assert.Contains(t, tfs, models.TF5m)
	assert.Contains(t, tfs, models.TF10m)
	assert.Contains(t, tfs, models.TF1H)
	assert.Contains(t, tfs, models.TFFib1H)
	assert.NotContains(t, tfs, models.TFRTH)
}

func TestStatusFiltersToDominantMembers(t *testing.T) {
	clk := regularClock(58)
	dominant := models.MTemporalCluster{
		Active:  true,
		Members: []models.Timeframe{models.TF1H, models.TF30m},
		Size:    2,
	}

	got := Status(clk, dominant)
	assert.NotEmpty(t, got)
	for _, st := range got {
		assert.True(t, dominant.Contains(st.Timeframe), st.Timeframe.String())
	}
}

func TestStatusNeverReportsNonMembers(t *testing.T) {
	for m := 1.0; m < calendar.RegularSessionMinutes; m += 0.5 {
		clk := regularClock(m)
		res := cluster.Detect(micro.Candidates(clk, 60), cluster.DefaultToleranceMinutes)
		for _, st := range Status(clk, res.MainCluster) {
			if res.MainCluster.Size >= 2 {
				assert.True(t, res.MainCluster.Contains(st.Timeframe), "minute %v %s", m, st.Timeframe)
			}
			assert.Greater(t, st.MinutesToClose, 0.0)
			assert.LessOrEqual(t, st.MinutesToClose, st.WindowStartMinutes)
		}
	}
}

func TestStatusOnCandleBoundaries(t *testing.T) {
	for m := 0.0; m < calendar.RegularSessionMinutes; m += 5 {
		clk := regularClock(m)
		res := cluster.Detect(micro.Candidates(clk, 60), cluster.DefaultToleranceMinutes)
		if res.MainCluster.Size > 0 {
			first := res.MainCluster.CenterMinutesToClose - res.MainCluster.SpanMinutes/2
			assert.Greater(t, first, 0.0, "minute %v", m)
		}
		for _, st := range Status(clk, res.MainCluster) {
			assert.Greater(t, st.MinutesToClose, 0.0, "minute %v %s", m, st.Timeframe)
		}
	}

	// at 58 the 1H close is 2 minutes away and inside its window; at 60 it
	// has just closed and the next one is an hour out
	assert.Contains(t, timeframes(Status(regularClock(58), cluster.NoCluster())), models.TF1H)
	assert.NotContains(t, timeframes(Status(regularClock(60), cluster.NoCluster())), models.TF1H)
}

func timeframes(sts []models.MDecompressionStatus) []models.Timeframe {
	out := make([]models.Timeframe, len(sts))
	for i, st := range sts {
		out[i] = st.Timeframe
	}
	return out
}

func TestStatusOutsideRegularSession(t *testing.T) {
	assert.Empty(t, Status(models.MMarketClock{Phase: models.PhaseAfter}, cluster.NoCluster()))
}
