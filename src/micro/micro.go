package micro

import (
	"market-confluence/src/models"
)

// Score bonuses for boundaries that coincide with heavier rebalancing flow.
var closeBonus = map[models.Timeframe]int{
	models.TF1H:  2,
	models.TF2H:  3,
	models.TF4H:  4,
	models.TF30m: 1,
	models.TF15m: 1,
}

// Impact bands over the bonus-inclusive score.
const (
	mediumThreshold  = 5
	highThreshold    = 8
	extremeThreshold = 12
)

var (
	fixedTimeframes     = models.TimeframesOf(models.FamilyFixed)
	fibonacciTimeframes = models.TimeframesOf(models.FamilyFibonacci)
)

// -----------------------------------------------------------------------------

// ClosingAt lists the intraday candles that close exactly minutesSinceOpen
// minutes into a session of sessionLength minutes.
func ClosingAt(minutesSinceOpen, sessionLength int) models.MMicroConfluence {
	res := models.MMicroConfluence{
		MinutesSinceOpen: minutesSinceOpen,
		Fixed:            []models.Timeframe{},
		Fibonacci:        []models.Timeframe{},
		AllClosing:       []models.Timeframe{},
		ImpactLevel:      models.ImpactNone,
	}
	if minutesSinceOpen <= 0 {
		return res
	}

	for _, tf := range fixedTimeframes {
		if minutesSinceOpen%tf.IntervalMinutes() == 0 {
			res.Fixed = append(res.Fixed, tf)
		}
	}
	for _, tf := range fibonacciTimeframes {
		if minutesSinceOpen%tf.IntervalMinutes() == 0 {
			res.Fibonacci = append(res.Fibonacci, tf)
		}
	}

	seen := make(map[models.Timeframe]struct{}, len(res.Fixed)+len(res.Fibonacci)+1)
	for _, group := range [][]models.Timeframe{res.Fixed, res.Fibonacci} {
		for _, tf := range group {
			if _, dup := seen[tf]; dup {
				continue
			}
			seen[tf] = struct{}{}
			res.AllClosing = append(res.AllClosing, tf)
		}
	}
	if sessionLength > 0 && minutesSinceOpen == sessionLength {
		res.AllClosing = append(res.AllClosing, models.TFRTH)
	}

	res.ConfluenceScore = Score(res.AllClosing)
	res.ImpactLevel = Impact(res.ConfluenceScore)
	return res
}

// Score is the set size plus the boundary bonuses.
func Score(closing []models.Timeframe) int {
	score := len(closing)
	for _, tf := range closing {
		score += closeBonus[tf]
	}
	return score
}

// Impact maps a score onto low < medium < high < extreme.
func Impact(score int) models.ImpactLevel {
	switch {
	case score <= 0:
		return models.ImpactNone
	case score >= extremeThreshold:
		return models.ImpactExtreme
	case score >= highThreshold:
		return models.ImpactHigh
	case score >= mediumThreshold:
		return models.ImpactMedium
	}
	return models.ImpactLow
}

// AtLeast reports whether impact ranks at or above floor on the intraday scale.
func AtLeast(impact, floor models.ImpactLevel) bool {
	return rank(impact) >= rank(floor)
}

func rank(impact models.ImpactLevel) int {
	switch impact {
	case models.ImpactLow:
		return 1
	case models.ImpactMedium:
		return 2
	case models.ImpactHigh:
		return 3
	case models.ImpactExtreme:
		return 4
	}
	return 0
}

// -----------------------------------------------------------------------------

// MinutesToNextClose is how long the candle of the given interval has left,
// measured from a fractional session offset. On an exact boundary the candle
// that just closed belongs to ClosingAt, so the next one reports a full
// interval.
func MinutesToNextClose(elapsed float64, interval int) float64 {
	if interval <= 0 {
		return 0
	}
	if elapsed < 0 {
		return -elapsed + float64(interval)
	}
	span := float64(interval)
	into := elapsed - span*float64(int(elapsed/span))
	if into == 0 {
		return span
	}
	return span - into
}

// Candidates lists the intraday timeframes whose next close falls within
// horizon minutes (all of them when horizon <= 0). Closes are capped at the
// session close since the last candle of a session ends with it; timeframes
// longer than the session never close intraday and are skipped.
func Candidates(c models.MMarketClock, horizon float64) []models.MCloseCandidate {
	if !c.IsRegular() {
		return nil
	}
	within := func(toClose float64) bool { return horizon <= 0 || toClose <= horizon }

	out := make([]models.MCloseCandidate, 0, len(fixedTimeframes)+len(fibonacciTimeframes)+1)
	for _, group := range [][]models.Timeframe{fixedTimeframes, fibonacciTimeframes} {
		for _, tf := range group {
			if tf.IntervalMinutes() > c.Day.SessionLengthMinutes {
				continue
			}
			toClose := MinutesToNextClose(c.MinutesSinceOpen, tf.IntervalMinutes())
			if toClose > c.MinutesToClose {
				toClose = c.MinutesToClose
			}
			if within(toClose) {
				out = append(out, models.MCloseCandidate{Timeframe: tf, MinutesToClose: toClose, Weight: tf.Weight()})
			}
		}
	}
	if within(c.MinutesToClose) {
		out = append(out, models.MCloseCandidate{Timeframe: models.TFRTH, MinutesToClose: c.MinutesToClose, Weight: models.TFRTH.Weight()})
	}
	return out
}
