package snapshot

import (
	"fmt"

	"market-confluence/src/models"
)

type windowDef struct {
	name        string
	start, end  int // minutes after local midnight
	description string
}

// Recurring institutional execution windows, exchange-local time.
var executionWindows = []windowDef{
	{"Opening Range", 9*60 + 30, 10 * 60, "Opening auction fills and the initial balance"},
	{"European Close", 11*60 + 30, 12 * 60, "London cash close overlaps the New York morning"},
	{"Lunch Lull", 12 * 60, 13*60 + 30, "Thin liquidity, algorithmic drift"},
	{"Power Hour", 15 * 60, 16 * 60, "Rebalancing and benchmark-tracking flow"},
	{"MOC Imbalance", 15*60 + 50, 16 * 60, "Market-on-close imbalances published"},
	{"Closing Auction", 15*60 + 55, 16 * 60, "Closing cross order entry"},
}

// ExecutionWindows returns the static window descriptors, all inactive.
func ExecutionWindows() []models.MExecutionWindow {
	out := make([]models.MExecutionWindow, len(executionWindows))
	for i, w := range executionWindows {
		out[i] = models.MExecutionWindow{
			Name:         w.name,
			Start:        hhmm(w.start),
			End:          hhmm(w.end),
			StartMinutes: w.start,
			EndMinutes:   w.end,
			Description:  w.description,
		}
	}
	return out
}

// executionWindows flags the windows in progress. A window is active only on
// a trading day and only before that day's close.
func (e *Engine) executionWindows(clk models.MMarketClock) []models.MExecutionWindow {
	out := make([]models.MExecutionWindow, len(e.windows))
	copy(out, e.windows)
	if !clk.Day.IsTradingDay {
		return out
	}
	minute := clk.Local.MinuteOfDay()
	for i := range out {
		w := &out[i]
		w.Active = minute >= float64(w.StartMinutes) &&
			minute < float64(w.EndMinutes) &&
			minute < float64(clk.Day.SessionCloseMinutesET)
	}
	return out
}

func hhmm(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
