package model

import "time"

// WatcherState is the poll scheduler lifecycle state.
type WatcherState string

const (
	WatcherIdle    WatcherState = "idle"
	WatcherRunning WatcherState = "running"
	WatcherStopped WatcherState = "stopped"
)

// ItemFailure records one item that could not be processed during a pass.
type ItemFailure struct {
	ItemID int    `json:"item_id"`
	SID    int    `json:"sid"`
	Reason string `json:"reason"`
}

// PassReport summarizes one full iteration over the tracked set.
// A pass never fails as a whole; failures are collected per item.
type PassReport struct {
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Attempted   int           `json:"attempted"`
	Succeeded   int           `json:"succeeded"`
	Notified    int           `json:"notified"`
	Failures    []ItemFailure `json:"failures,omitempty"`
	TriggeredBy string        `json:"triggered_by"` // "timer" or "manual"
}
