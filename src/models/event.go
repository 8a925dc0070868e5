package models

import "time"

// EventKind classifies confluence events emitted by the scheduler.
type EventKind string

const (
	EventPhaseChange      EventKind = "phase_change"
	EventClusterEscalated EventKind = "cluster_escalated"
	EventIntradayClose    EventKind = "intraday_confluence"
	EventMacroClose       EventKind = "macro_confluence"
)

// MConfluenceEvent is a notable change between two consecutive snapshots.
type MConfluenceEvent struct {
	ID         int64     `json:"id,omitempty"`
	Kind       EventKind `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	DateKey    string    `json:"date_key"`
	Impact     string    `json:"impact"`
	Score      float64   `json:"score"`
	Timeframes []string  `json:"timeframes"`
	Message    string    `json:"message"`
}
