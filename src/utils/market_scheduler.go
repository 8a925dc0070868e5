package utils

import (
	"context"
	"sync"
	"time"

	"market-confluence/src/helpers"
	"market-confluence/src/interfaces"
	"market-confluence/src/logger"
	"market-confluence/src/metrics"
	"market-confluence/src/models"
	"market-confluence/src/snapshot"
)

const saveRetries = 3

// MarketScheduler polls the engine, turns snapshot changes into events and
// fans them out to the journal and the websocket hub.
type MarketScheduler struct {
	Engine   *snapshot.Engine
	Params   snapshot.Params
	Store    interfaces.IEventStore   // optional
	Exchange interfaces.IDataExchanger // optional
	Metrics  *metrics.Recorder
	Logger   *logger.Logger
	Errors   *helpers.ErrorHandler

	Interval        time.Duration
	CleanupInterval time.Duration

	now         func() time.Time
	mu          sync.RWMutex
	previous    *models.MConfluenceSnapshot
	lastCleanup time.Time
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(
	cfg *models.MConfig,
	engine *snapshot.Engine,
	store interfaces.IEventStore,
	exchange interfaces.IDataExchanger,
	rec *metrics.Recorder,
	l *logger.Logger,
) *MarketScheduler {
	errs := helpers.NewErrorHandler()
	errs.Logger = l

	return &MarketScheduler{
		Engine:          engine,
		Params:          snapshot.ParamsFromConfig(cfg),
		Store:           store,
		Exchange:        exchange,
		Metrics:         rec,
		Logger:          l,
		Errors:          errs,
		Interval:        time.Duration(cfg.Engine.PollIntervalSeconds) * time.Second,
		CleanupInterval: time.Duration(cfg.Engine.CleanupIntervalMinutes) * time.Minute,
		now:             time.Now,
	}
}

// -----------------------------------------------------------------------------

// Run ticks immediately and then on every Interval until ctx is cancelled.
func (ms *MarketScheduler) Run(ctx context.Context) {
	interval := ms.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ms.Logger.Info("MarketScheduler: polling every %s", interval)
	ms.runTick()

	for {
		select {
		case <-ctx.Done():
			ms.Logger.Info("MarketScheduler: stopped")
			return
		case <-ticker.C:
			ms.runTick()
		}
	}
}

func (ms *MarketScheduler) runTick() {
	if _, err := ms.Tick(); err != nil {
		ms.Errors.ErrorCount++
		ms.Errors.Handle(err, "scheduler tick")
		if ms.Errors.ShouldRestart() {
			ms.Logger.Error("MarketScheduler: %d consecutive failures", ms.Errors.ErrorCount)
		}
		return
	}
	ms.Errors.ResetErrorCount()
}

// -----------------------------------------------------------------------------

// Tick builds one snapshot, diffs it against the previous one and publishes
// the result. It returns the emitted events.
func (ms *MarketScheduler) Tick() ([]models.MConfluenceEvent, error) {
	now := ms.now()

	start := time.Now()
	snap, err := ms.Engine.Build(now, ms.Params)
	if err != nil {
		return nil, err
	}
	ms.Metrics.ObserveSnapshot(snap, time.Since(start))

	ms.mu.Lock()
	prev := ms.previous
	ms.previous = snap
	ms.mu.Unlock()

	events := Diff(prev, snap)
	for _, e := range events {
		ms.Logger.Info("[%s] %s (%s)", e.Kind, e.Message, e.Impact)
	}
	ms.Metrics.EventsEmitted(events)

	if ms.Store != nil && len(events) > 0 {
		_, err := ms.Errors.ExecuteWithRetry("save events", func() (interface{}, error) {
			return nil, ms.Store.SaveEvents(events)
		}, saveRetries)
		if err != nil {
			// publish anyway
			ms.Logger.Error("MarketScheduler: %v", err)
		}
	}

	if ms.Exchange != nil {
		ms.Exchange.Broadcast(snap)
		if len(events) > 0 {
			ms.Exchange.Broadcast(events)
		}
	}

	ms.cleanup(now)
	return events, nil
}

// Latest is the most recent snapshot, nil before the first tick.
func (ms *MarketScheduler) Latest() *models.MConfluenceSnapshot {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.previous
}

// -----------------------------------------------------------------------------

func (ms *MarketScheduler) cleanup(now time.Time) {
	if ms.Store == nil || ms.CleanupInterval <= 0 {
		return
	}
	if !ms.lastCleanup.IsZero() && now.Sub(ms.lastCleanup) < ms.CleanupInterval {
		return
	}
	ms.lastCleanup = now
	ms.Errors.Handle(ms.Store.CleanupOldData(), "event journal cleanup")
}
