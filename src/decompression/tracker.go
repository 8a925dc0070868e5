package decompression

import (
	"market-confluence/src/micro"
	"market-confluence/src/models"
)

// imminentFraction of the window remaining marks a close as imminent.
const imminentFraction = 0.25

// -----------------------------------------------------------------------------

// WindowStatus classifies one timeframe's distance to its close against its
// configured window.
func WindowStatus(tf models.Timeframe, minutesToClose float64) models.MDecompressionStatus {
	start := tf.WindowStartMinutes()
	st := models.MDecompressionStatus{
		Timeframe:          tf,
		MinutesToClose:     minutesToClose,
		WindowStartMinutes: start,
		Phase:              models.WindowNotStarted,
	}
	if start <= 0 || minutesToClose <= 0 || minutesToClose > start {
		return st
	}
	st.IsInWindow = true
	st.Phase = models.WindowActive
	if minutesToClose <= imminentFraction*start {
		st.Phase = models.WindowImminent
	}
	return st
}

// Status lists the timeframes currently inside their decompression window.
// When the dominant cluster has two or more members only its members are
// reported, so isolated closes do not surface as alignment.
func Status(c models.MMarketClock, dominant models.MTemporalCluster) []models.MDecompressionStatus {
	out := []models.MDecompressionStatus{}
	filter := dominant.Size >= 2

	for _, cand := range micro.Candidates(c, 0) {
		if filter && !dominant.Contains(cand.Timeframe) {
			continue
		}
		if st := WindowStatus(cand.Timeframe, cand.MinutesToClose); st.IsInWindow {
			out = append(out, st)
		}
	}
	return out
}
