package snapshot

import (
	"fmt"
	"time"

	"market-confluence/src/calendar"
	"market-confluence/src/clock"
	"market-confluence/src/cluster"
	"market-confluence/src/decompression"
	"market-confluence/src/helpers"
	"market-confluence/src/macro"
	"market-confluence/src/micro"
	"market-confluence/src/models"
)

// Accepted instants. Outside this range the calendar arithmetic is meaningless.
const (
	MinYear = 1971
	MaxYear = 2199
)

// anchorStepMinutes spaces the intraday lookahead anchor points.
const anchorStepMinutes = 5

// majorEventScore is the micro score that makes an anchor a major event.
const majorEventScore = 5

// Params are the optional per-call knobs. Zero values take the defaults.
type Params struct {
	// ToleranceMinutes is the widest span a cluster may cover. Zero (and
	// negative) means the 5-minute default; closes that coincide exactly are
	// still grouped by any small positive tolerance.
	ToleranceMinutes float64
	MacroHorizonDays int
	// ClusterHorizonMinutes limits cluster candidates to closes this close
	// to now. Negative means no limit.
	ClusterHorizonMinutes float64
}

// DefaultParams: 5-minute tolerance, 90-day macro horizon, one-hour cluster
// horizon.
func DefaultParams() Params {
	return Params{
		ToleranceMinutes:      cluster.DefaultToleranceMinutes,
		MacroHorizonDays:      macro.DefaultHorizonDays,
		ClusterHorizonMinutes: 60,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.ToleranceMinutes <= 0 {
		p.ToleranceMinutes = d.ToleranceMinutes
	}
	if p.MacroHorizonDays <= 0 {
		p.MacroHorizonDays = d.MacroHorizonDays
	}
	if p.ClusterHorizonMinutes == 0 {
		p.ClusterHorizonMinutes = d.ClusterHorizonMinutes
	}
	return p
}

// -----------------------------------------------------------------------------

// Engine builds confluence snapshots. It holds only immutable configuration
// and is safe for concurrent use.
type Engine struct {
	cal        *calendar.Calendar
	thresholds cluster.Thresholds
	windows    []models.MExecutionWindow
}

// NewEngine creates an engine over cal with the default intensity bands.
func NewEngine(cal *calendar.Calendar) *Engine {
	return &Engine{
		cal:        cal,
		thresholds: cluster.DefaultThresholds,
		windows:    ExecutionWindows(),
	}
}

// WithThresholds returns a copy using different intensity bands.
func (e *Engine) WithThresholds(t cluster.Thresholds) *Engine {
	cp := *e
	cp.thresholds = t
	return &cp
}

func (e *Engine) Calendar() *calendar.Calendar { return e.cal }

// -----------------------------------------------------------------------------

// CheckInstant rejects instants outside the supported range.
func CheckInstant(t time.Time) error {
	if t.IsZero() {
		return helpers.NewValidationError("invalid instant", fmt.Errorf("zero time"))
	}
	if y := t.UTC().Year(); y < MinYear || y > MaxYear {
		return helpers.NewValidationError("invalid instant", fmt.Errorf("year %d outside %d-%d", y, MinYear, MaxYear))
	}
	return nil
}

// Clock resolves the market clock for t after the input guard.
func (e *Engine) Clock(t time.Time) (models.MMarketClock, error) {
	if err := CheckInstant(t); err != nil {
		return models.MMarketClock{}, err
	}
	return clock.FromInstant(e.cal, t), nil
}

// Build composes the snapshot for t. The market clock is resolved once and
// every component reads from it. Outside the regular session the intraday
// fields hold empty sentinels.
func (e *Engine) Build(t time.Time, params Params) (*models.MConfluenceSnapshot, error) {
	clk, err := e.Clock(t)
	if err != nil {
		return nil, err
	}
	params = params.withDefaults()

	snap := &models.MConfluenceSnapshot{
		Clock:            clk,
		CurrentClosing:   micro.ClosingAt(0, clk.Day.SessionLengthMinutes),
		MainCluster:      cluster.NoCluster(),
		AllClusters:      []models.MTemporalCluster{},
		Decompression:    []models.MDecompressionStatus{},
		TodayEvents:      []models.MIntradayEvent{},
		TodayMacro:       macro.Confluence(macro.DayOfClock(clk)),
		ExecutionWindows: e.executionWindows(clk),
		ToleranceMinutes: params.ToleranceMinutes,

		ClusterHorizonMinutes: params.ClusterHorizonMinutes,
	}

	if clk.IsRegular() {
		snap.CurrentClosing = micro.ClosingAt(clock.WholeMinutesSinceOpen(clk), clk.Day.SessionLengthMinutes)

		res := e.thresholds.Detect(micro.Candidates(clk, params.ClusterHorizonMinutes), params.ToleranceMinutes)
		snap.MainCluster = res.MainCluster
		snap.AllClusters = res.AllClusters
		snap.Decompression = decompression.Status(clk, res.MainCluster)
		snap.TodayEvents = e.todayEvents(clk)
	}

	snap.NextMajorIntradayEvent = e.nextMajorIntradayEvent(clk)
	snap.NextMacroEvent = e.nextMacroEvent(clk, params.MacroHorizonDays)
	return snap, nil
}

// MacroOutlook lists every notable macro day in the horizon after t.
func (e *Engine) MacroOutlook(t time.Time, horizonDays int) ([]models.MMacroConfluence, error) {
	clk, err := e.Clock(t)
	if err != nil {
		return nil, err
	}
	if horizonDays <= 0 {
		horizonDays = macro.DefaultHorizonDays
	}

	out := []models.MMacroConfluence{}
	today := localDate(clk)
	for offset := 0; offset <= horizonDays; offset++ {
		d := today.AddDays(offset)
		if !e.cal.IsTradingDay(d) {
			continue
		}
		if m := macro.Confluence(macro.DayOf(e.cal, d)); macro.Notable(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// anchors are the session offsets checked for intraday confluence: every
// five minutes and the session close.
func anchors(sessionLength int) []int {
	out := make([]int, 0, sessionLength/anchorStepMinutes+1)
	for m := anchorStepMinutes; m < sessionLength; m += anchorStepMinutes {
		out = append(out, m)
	}
	if sessionLength > 0 {
		out = append(out, sessionLength)
	}
	return out
}

func (e *Engine) intradayEvent(clk models.MMarketClock, offset int, conf models.MMicroConfluence) models.MIntradayEvent {
	return models.MIntradayEvent{
		At:               e.cal.At(localDate(clk), float64(clk.Day.SessionOpenMinutesET+offset)).UTC(),
		MinutesSinceOpen: offset,
		MinutesUntil:     float64(offset) - clk.MinutesSinceOpen,
		Passed:           float64(offset) <= clk.MinutesSinceOpen,
		Confluence:       conf,
	}
}

// nextMajorIntradayEvent scans the anchors after now within the current
// session, or the whole upcoming session before the open.
func (e *Engine) nextMajorIntradayEvent(clk models.MMarketClock) *models.MIntradayEvent {
	if clk.Phase != models.PhaseRegular && clk.Phase != models.PhasePre {
		return nil
	}
	length := clk.Day.SessionLengthMinutes
	for _, offset := range anchors(length) {
		if float64(offset) <= clk.MinutesSinceOpen {
			continue
		}
		if conf := micro.ClosingAt(offset, length); conf.ConfluenceScore >= majorEventScore {
			ev := e.intradayEvent(clk, offset, conf)
			return &ev
		}
	}
	return nil
}

// todayEvents lists every anchor of today's session rated medium or better.
func (e *Engine) todayEvents(clk models.MMarketClock) []models.MIntradayEvent {
	out := []models.MIntradayEvent{}
	length := clk.Day.SessionLengthMinutes
	for _, offset := range anchors(length) {
		conf := micro.ClosingAt(offset, length)
		if micro.AtLeast(conf.ImpactLevel, models.ImpactMedium) {
			out = append(out, e.intradayEvent(clk, offset, conf))
		}
	}
	return out
}

// nextMacroEvent includes today while its session has not closed.
func (e *Engine) nextMacroEvent(clk models.MMarketClock, horizonDays int) models.MMacroEvent {
	includeToday := clk.Day.IsTradingDay && clk.Local.MinuteOfDay() < float64(clk.Day.SessionCloseMinutesET)
	return macro.Next(e.cal, localDate(clk), horizonDays, includeToday)
}

func localDate(clk models.MMarketClock) calendar.Date {
	return calendar.NewDate(clk.Local.Year, clk.Local.Month, clk.Local.Day)
}

// NextMacro runs only the macro lookahead for t.
func (e *Engine) NextMacro(t time.Time, horizonDays int) (models.MMacroEvent, error) {
	clk, err := e.Clock(t)
	if err != nil {
		return models.MMacroEvent{}, err
	}
	if horizonDays <= 0 {
		horizonDays = macro.DefaultHorizonDays
	}
	return e.nextMacroEvent(clk, horizonDays), nil
}

// ParamsFromConfig maps the engine section of the service config.
func ParamsFromConfig(cfg *models.MConfig) Params {
	if cfg == nil {
		return DefaultParams()
	}
	return Params{
		ToleranceMinutes:      cfg.Engine.ToleranceMinutes,
		MacroHorizonDays:      cfg.Engine.MacroHorizonDays,
		ClusterHorizonMinutes: cfg.Engine.ClusterHorizonMinutes,
	}.withDefaults()
}
