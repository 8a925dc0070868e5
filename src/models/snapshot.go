package models

import "time"

// MIntradayEvent is a session offset whose closing set scores as medium or better.
type MIntradayEvent struct {
	At               time.Time        `json:"at"`
	MinutesSinceOpen int              `json:"minutes_since_open"`
	MinutesUntil     float64          `json:"minutes_until"`
	Passed           bool             `json:"passed"`
	Confluence       MMicroConfluence `json:"confluence"`
}

// MMacroEvent is the next notable macro close found by the lookahead scan.
type MMacroEvent struct {
	Found      bool             `json:"found"`
	DaysUntil  int              `json:"days_until"`
	Confluence MMacroConfluence `json:"confluence"`
}

// MExecutionWindow describes a recurring institutional execution window in
// exchange-local time.
type MExecutionWindow struct {
	Name         string `json:"name"`
	Start        string `json:"start"` // "HH:MM"
	End          string `json:"end"`
	StartMinutes int    `json:"-"`
	EndMinutes   int    `json:"-"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
}

// -----------------------------------------------------------------------------

// MConfluenceSnapshot is the root aggregate returned for one instant.
type MConfluenceSnapshot struct {
	Clock                  MMarketClock           `json:"clock"`
	CurrentClosing         MMicroConfluence       `json:"current_closing"`
	MainCluster            MTemporalCluster       `json:"main_cluster"`
	AllClusters            []MTemporalCluster     `json:"all_clusters"`
	Decompression          []MDecompressionStatus `json:"decompression"`
	NextMajorIntradayEvent *MIntradayEvent        `json:"next_major_intraday_event"`
	TodayEvents            []MIntradayEvent       `json:"today_events"`
	TodayMacro             MMacroConfluence       `json:"today_macro"`
	NextMacroEvent         MMacroEvent            `json:"next_macro_event"`
	ExecutionWindows       []MExecutionWindow     `json:"execution_windows"`
	ToleranceMinutes       float64                `json:"tolerance_minutes"`
	ClusterHorizonMinutes  float64                `json:"cluster_horizon_minutes"` // negative: unbounded
}
