package main

import (
	"fmt"

	"market-confluence/src/config"
	"market-confluence/src/helpers"
	"market-confluence/src/interfaces"
	"market-confluence/src/logger"
	"market-confluence/src/snapshot"
	"market-confluence/src/storage"
)

const storeInitRetries = 3

// app holds what every command needs: config, logger and the engine.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	engine *snapshot.Engine
}

// loadApp reads the config (or the built-in defaults) and builds the
// calendar and engine.
func loadApp(path string) (*app, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.NewConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	log := logger.NewLogger(cfg.MConfig, cfg.Name)

	cal, err := cfg.BuildCalendar()
	if err != nil {
		return nil, err
	}
	if start, end, ok := cal.Horizon(); ok {
		log.Info("Calendar %s ready, holiday tables cover %s to %s", cfg.Calendar.Exchange, start, end)
	} else {
		log.Warning("Calendar %s has no holiday tables; sessions follow weekdays only", cfg.Calendar.Exchange)
	}

	return &app{cfg: cfg, log: log, engine: snapshot.NewEngine(cal)}, nil
}

// openStore creates and initializes the event journal. A nil store with no
// error means the journal is disabled.
func (a *app) openStore() (interfaces.IEventStore, error) {
	store, err := storage.NewEventStore(a.cfg.MConfig, logger.NewLogger(a.cfg.MConfig, "EventStore"))
	if err != nil {
		return nil, err
	}
	if store == nil {
		a.log.Info("Event journal disabled")
		return nil, nil
	}

	errs := helpers.NewErrorHandler()
	errs.Logger = a.log
	if _, err := errs.ExecuteWithRetry("initialize event store", func() (interface{}, error) {
		return nil, store.Initialize()
	}, storeInitRetries); err != nil {
		return nil, fmt.Errorf("event journal: %w", err)
	}
	return store, nil
}

func (a *app) params() snapshot.Params {
	return snapshot.ParamsFromConfig(a.cfg.MConfig)
}
