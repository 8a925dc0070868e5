package models

import (
	"encoding/json"
	"fmt"
)

// -----------------------------------------------------------------------------
// Timeframe is a closed enumeration of every candle scale the engine tracks.
// Interval, weight and decompression window are fixed associated data.
// -----------------------------------------------------------------------------

type Timeframe int

const (
	TFInvalid Timeframe = iota

	// Fixed intraday intervals
	TF5m
	TF10m
	TF15m
	TF30m
	TF1H
	TF2H
	TF4H

	// Fibonacci minute intervals. 1, 2, 3 and 5 are left out: they close
	// almost every minute and would lift a round-hour close to explosive.
	TFFib8m
	TFFib13m
	TFFib21m
	TFFib34m
	TFFib55m
	TFFib89m
	TFFib144m

	// Fibonacci hour intervals
	TFFib1H
	TFFib2H
	TFFib3H
	TFFib5H
	TFFib8H
	TFFib13H
	TFFib21H

	// Regular trading hours session candle
	TFRTH

	// Macro cycles
	TF1D
	TF2D
	TF3D
	TF4D
	TF5D
	TF6D
	TF7D
	TF1W
	TF2W
	TF3W
	TF4W
	TF1M
	TF2M
	TF3M
	TF4M
	TF5M
	TF6M
	TF7M
	TF8M
	TF9M
	TF10M
	TF11M
	TF1Y

	tfCount
)

// TimeframeFamily groups timeframes that share a closing rule.
type TimeframeFamily string

const (
	FamilyFixed     TimeframeFamily = "fixed"
	FamilyFibonacci TimeframeFamily = "fibonacci"
	FamilySession   TimeframeFamily = "session"
	FamilyDaily     TimeframeFamily = "daily"
	FamilyWeekly    TimeframeFamily = "weekly"
	FamilyMonthly   TimeframeFamily = "monthly"
	FamilyYearly    TimeframeFamily = "yearly"
)

type timeframeInfo struct {
	label  string
	family TimeframeFamily
	// intraday interval in minutes, or cycle length in days/weeks/months for macro families
	period int
	weight float64
	// decompression window start in minutes before close; 0 means untracked
	window float64
}

var timeframeTable = [tfCount]timeframeInfo{
	TFInvalid: {label: "invalid"},

	TF5m:  {"5m", FamilyFixed, 5, 1, 2},
	TF10m: {"10m", FamilyFixed, 10, 1, 3},
	TF15m: {"15m", FamilyFixed, 15, 1.5, 5},
	TF30m: {"30m", FamilyFixed, 30, 2, 8},
	TF1H:  {"1H", FamilyFixed, 60, 3, 12},
	TF2H:  {"2H", FamilyFixed, 120, 4, 20},
	TF4H:  {"4H", FamilyFixed, 240, 5, 30},

	TFFib8m:   {"Fib8m", FamilyFibonacci, 8, 1, 3},
	TFFib13m:  {"Fib13m", FamilyFibonacci, 13, 1, 4},
	TFFib21m:  {"Fib21m", FamilyFibonacci, 21, 1.5, 6},
	TFFib34m:  {"Fib34m", FamilyFibonacci, 34, 2, 8},
	TFFib55m:  {"Fib55m", FamilyFibonacci, 55, 2.5, 12},
	TFFib89m:  {"Fib89m", FamilyFibonacci, 89, 3, 18},
	TFFib144m: {"Fib144m", FamilyFibonacci, 144, 3.5, 25},

	TFFib1H:  {"Fib1H", FamilyFibonacci, 60, 3, 12},
	TFFib2H:  {"Fib2H", FamilyFibonacci, 120, 4, 20},
	TFFib3H:  {"Fib3H", FamilyFibonacci, 180, 4.5, 25},
	TFFib5H:  {"Fib5H", FamilyFibonacci, 300, 5, 35},
	TFFib8H:  {"Fib8H", FamilyFibonacci, 480, 6, 45},
	TFFib13H: {"Fib13H", FamilyFibonacci, 780, 6, 45},
	TFFib21H: {"Fib21H", FamilyFibonacci, 1260, 6, 45},

	TFRTH: {"RTH", FamilySession, 0, 8, 45},

	TF1D:  {"1D", FamilyDaily, 1, 8, 0},
	TF2D:  {"2D", FamilyDaily, 2, 8, 0},
	TF3D:  {"3D", FamilyDaily, 3, 8, 0},
	TF4D:  {"4D", FamilyDaily, 4, 8, 0},
	TF5D:  {"5D", FamilyDaily, 5, 8, 0},
	TF6D:  {"6D", FamilyDaily, 6, 8, 0},
	TF7D:  {"7D", FamilyDaily, 7, 8, 0},
	TF1W:  {"1W", FamilyWeekly, 1, 10, 0},
	TF2W:  {"2W", FamilyWeekly, 2, 10, 0},
	TF3W:  {"3W", FamilyWeekly, 3, 10, 0},
	TF4W:  {"4W", FamilyWeekly, 4, 10, 0},
	TF1M:  {"1M", FamilyMonthly, 1, 12, 0},
	TF2M:  {"2M", FamilyMonthly, 2, 12, 0},
	TF3M:  {"3M", FamilyMonthly, 3, 14, 0},
	TF4M:  {"4M", FamilyMonthly, 4, 12, 0},
	TF5M:  {"5M", FamilyMonthly, 5, 12, 0},
	TF6M:  {"6M", FamilyMonthly, 6, 16, 0},
	TF7M:  {"7M", FamilyMonthly, 7, 12, 0},
	TF8M:  {"8M", FamilyMonthly, 8, 12, 0},
	TF9M:  {"9M", FamilyMonthly, 9, 12, 0},
	TF10M: {"10M", FamilyMonthly, 10, 12, 0},
	TF11M: {"11M", FamilyMonthly, 11, 12, 0},
	TF1Y:  {"1Y", FamilyYearly, 12, 20, 0},
}

var labelIndex = func() map[string]Timeframe {
	idx := make(map[string]Timeframe, tfCount)
	for tf := TFInvalid + 1; tf < tfCount; tf++ {
		idx[timeframeTable[tf].label] = tf
	}
	return idx
}()

// -----------------------------------------------------------------------------

// ParseTimeframe resolves a label such as "5m" or "Fib1H".
func ParseTimeframe(label string) (Timeframe, error) {
	if tf, ok := labelIndex[label]; ok {
		return tf, nil
	}
	return TFInvalid, fmt.Errorf("unknown timeframe %q", label)
}

func (tf Timeframe) Valid() bool { return tf > TFInvalid && tf < tfCount }

func (tf Timeframe) String() string {
	if !tf.Valid() {
		return "invalid"
	}
	return timeframeTable[tf].label
}

// Label is the display name used on the wire.
func (tf Timeframe) Label() string { return tf.String() }

func (tf Timeframe) Family() TimeframeFamily {
	if !tf.Valid() {
		return ""
	}
	return timeframeTable[tf].family
}

// IntervalMinutes is the candle length for fixed and Fibonacci intraday
// timeframes. Session and macro timeframes report 0.
func (tf Timeframe) IntervalMinutes() int {
	switch tf.Family() {
	case FamilyFixed, FamilyFibonacci:
		return timeframeTable[tf].period
	}
	return 0
}

// Period is the cycle length in the family's own unit (minutes, trading days,
// trading weeks or months).
func (tf Timeframe) Period() int {
	if !tf.Valid() {
		return 0
	}
	return timeframeTable[tf].period
}

// Weight is the importance used for cluster scoring.
func (tf Timeframe) Weight() float64 {
	if !tf.Valid() {
		return 0
	}
	return timeframeTable[tf].weight
}

// WindowStartMinutes is how long before its close a candle enters its
// decompression window. Zero for timeframes that are not tracked.
func (tf Timeframe) WindowStartMinutes() float64 {
	if !tf.Valid() {
		return 0
	}
	return timeframeTable[tf].window
}

// IsIntraday reports whether the timeframe closes within a session.
func (tf Timeframe) IsIntraday() bool {
	switch tf.Family() {
	case FamilyFixed, FamilyFibonacci, FamilySession:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------

func (tf Timeframe) MarshalJSON() ([]byte, error) {
	return json.Marshal(tf.String())
}

func (tf *Timeframe) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseTimeframe(label)
	if err != nil {
		return err
	}
	*tf = parsed
	return nil
}

// -----------------------------------------------------------------------------

// TimeframesOf lists the timeframes of the given families in enum order.
func TimeframesOf(families ...TimeframeFamily) []Timeframe {
	var out []Timeframe
	for tf := TFInvalid + 1; tf < tfCount; tf++ {
		for _, f := range families {
			if timeframeTable[tf].family == f {
				out = append(out, tf)
				break
			}
		}
	}
	return out
}

// IntradayTimeframes are the fixed, Fibonacci and session timeframes.
func IntradayTimeframes() []Timeframe {
	return TimeframesOf(FamilyFixed, FamilyFibonacci, FamilySession)
}

// MacroTimeframes are the daily through yearly cycles.
func MacroTimeframes() []Timeframe {
	return TimeframesOf(FamilyDaily, FamilyWeekly, FamilyMonthly, FamilyYearly)
}

// Labels converts a timeframe slice to its labels.
func Labels(tfs []Timeframe) []string {
	out := make([]string, len(tfs))
	for i, tf := range tfs {
		out[i] = tf.String()
	}
	return out
}
