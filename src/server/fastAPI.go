package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"market-confluence/src/helpers"
	"market-confluence/src/interfaces"
	"market-confluence/src/logger"
	"market-confluence/src/metrics"
	"market-confluence/src/models"
	"market-confluence/src/snapshot"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// -----------------------------------------------------------------------------
// FastAPIServer
// -----------------------------------------------------------------------------

type FastAPIServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Engine  *snapshot.Engine
	Store   interfaces.IEventStore // nil when the journal is disabled
	Metrics *metrics.Recorder
	Params  snapshot.Params

	router     *gin.Engine
	httpServer *http.Server
	now        func() time.Time

	// WebSocket clients, owned by the hub goroutine
	clients    map[*Client]struct{}
	broadcast  chan *models.MStreamMessage
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	hubOnce    sync.Once
	stopOnce   sync.Once

	// Local cache
	latestState *models.MStreamMessage
	connections int
	stateMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewFastAPIServer(
	cfg *models.MConfig,
	log *logger.Logger,
	engine *snapshot.Engine,
	store interfaces.IEventStore,
	rec *metrics.Recorder,
) *FastAPIServer {
	// Tests pick their own mode before constructing the server.
	if gin.Mode() == gin.DebugMode && cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &FastAPIServer{
		Config:  cfg,
		Logger:  log,
		Engine:  engine,
		Store:   store,
		Metrics: rec,
		Params:  snapshot.ParamsFromConfig(cfg),
		router:  gin.New(),
		now:     time.Now,
		clients: make(map[*Client]struct{}),
		// Buffered so a scheduler tick never waits on slow websocket writes
		broadcast:  make(chan *models.MStreamMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}

	s.router.Use(gin.Recovery(), s.observeRequests, corsMiddleware)

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func corsMiddleware(c *gin.Context) {
	origin := c.Request.Header.Get("Origin")
	if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
	}
	c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	c.Next()
}

// observeRequests records Prometheus request metrics and logs at debug level.
func (s *FastAPIServer) observeRequests(c *gin.Context) {
	start := time.Now()
	c.Next()

	elapsed := time.Since(start)
	status := c.Writer.Status()
	s.Metrics.ObserveRequest(c.FullPath(), c.Request.Method, status, elapsed)
	s.Logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, elapsed)
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *FastAPIServer) setupRoutes() {
	api := s.router.Group("/api")
	api.GET("/snapshot", s.getSnapshot)
	api.GET("/clock", s.getClock)
	api.GET("/macro/next", s.getNextMacro)
	api.GET("/macro/outlook", s.getMacroOutlook)
	api.GET("/events", s.getEvents)
	api.GET("/config", s.getConfig)
	api.GET("/health", s.getHealth)

	s.router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	// WebSocket endpoint
	s.router.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for httptest.
func (s *FastAPIServer) Handler() http.Handler { return s.router }

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start runs the hub and blocks serving HTTP until Stop.
func (s *FastAPIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.startHub()

	s.stateMutex.Lock()
	s.httpServer = &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	srv := s.httpServer
	s.stateMutex.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *FastAPIServer) startHub() {
	s.hubOnce.Do(func() { go s.handleWebsockets() })
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.quit)

		s.stateMutex.RLock()
		srv := s.httpServer
		s.stateMutex.RUnlock()
		if srv == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getSnapshot(c *gin.Context) {
	var q snapshotQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, err)
		return
	}
	at, err := helpers.ParseInstant(q.At, s.now())
	if err != nil {
		respondError(c, err)
		return
	}

	params := s.Params
	if q.Tolerance > 0 {
		params.ToleranceMinutes = q.Tolerance
	}
	if q.HorizonDays > 0 {
		params.MacroHorizonDays = q.HorizonDays
	}

	start := time.Now()
	snap, err := s.Engine.Build(at, params)
	if err != nil {
		respondError(c, err)
		return
	}
	s.Metrics.ObserveSnapshot(snap, time.Since(start))
	c.JSON(http.StatusOK, snap)
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getClock(c *gin.Context) {
	var q instantQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, err)
		return
	}
	at, err := helpers.ParseInstant(q.At, s.now())
	if err != nil {
		respondError(c, err)
		return
	}

	clk, err := s.Engine.Clock(at)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clk)
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getNextMacro(c *gin.Context) {
	var q macroQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, err)
		return
	}
	at, err := helpers.ParseInstant(q.At, s.now())
	if err != nil {
		respondError(c, err)
		return
	}

	horizon := q.HorizonDays
	if horizon == 0 {
		horizon = s.Params.MacroHorizonDays
	}
	ev, err := s.Engine.NextMacro(at, horizon)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getMacroOutlook(c *gin.Context) {
	var q macroQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, err)
		return
	}
	at, err := helpers.ParseInstant(q.At, s.now())
	if err != nil {
		respondError(c, err)
		return
	}

	horizon := q.HorizonDays
	if horizon == 0 {
		horizon = s.Params.MacroHorizonDays
	}
	days, err := s.Engine.MacroOutlook(at, horizon)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"horizon_days": horizon, "days": days})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getEvents(c *gin.Context) {
	if s.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event journal is disabled"})
		return
	}

	var q eventsQuery
	if err := bindQuery(c, &q); err != nil {
		respondError(c, err)
		return
	}

	events, err := s.Store.RecentEvents(q.Limit, models.EventKind(q.Kind))
	if err != nil {
		s.Logger.Error("Failed to read events: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getConfig(c *gin.Context) {
	cal := s.Engine.Calendar()
	horizon := gin.H{"covered": false}
	if start, end, ok := cal.Horizon(); ok {
		horizon = gin.H{"covered": true, "start": start.Key(), "end": end.Key()}
	}

	c.JSON(http.StatusOK, gin.H{
		"name":                    s.Config.Name,
		"exchange":                s.Config.Calendar.Exchange,
		"timezone":                cal.Location().String(),
		"epoch":                   cal.Epoch().Key(),
		"holiday_horizon":         horizon,
		"tolerance_minutes":       s.Params.ToleranceMinutes,
		"macro_horizon_days":      s.Params.MacroHorizonDays,
		"cluster_horizon_minutes": s.Params.ClusterHorizonMinutes,
		"poll_interval_seconds":   s.Config.Engine.PollIntervalSeconds,
		"timeframes":              models.Labels(models.IntradayTimeframes()),
		"macro_cycles":            models.Labels(models.MacroTimeframes()),
		"execution_windows":       snapshot.ExecutionWindows(),
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := s.connections
	var timestamp int64
	if s.latestState != nil {
		timestamp = s.latestState.Timestamp
	}
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connections":   connections,
		"latest_update": timestamp,
		"journal":       s.Store != nil,
	})
}
