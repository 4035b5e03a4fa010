// src/models/feed.go
package models

import (
	"time"

	"github.com/username/tradeops/backend/src/listing"
)

// Log levels and sources of the logs entity.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"

	SourceBot    = "bot"
	SourceAPI    = "api"
	SourceAdmin  = "admin"
	SourceSystem = "system"
)

// LogEntry is one row of the logs entity.
type LogEntry struct {
	ID        string    `json:"id,omitempty"`
	Level     string    `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Record converts e into the generic shape stored for the logs entity.
func (e LogEntry) Record() listing.Record {
	r := listing.Record{
		"level":     e.Level,
		"source":    e.Source,
		"message":   e.Message,
		"actor":     e.Actor,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339),
	}
	if e.ID != "" {
		r[listing.IDField] = e.ID
	}
	return r
}

// FeedEvent is pushed to live subscribers whenever a log record is appended.
type FeedEvent struct {
	Type    string         `json:"type"`
	Record  listing.Record `json:"record"`
	Evicted int            `json:"evicted"`
	At      time.Time      `json:"at"`
}

const FeedEventAppend = "append"
