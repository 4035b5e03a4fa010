// src/models/source.go
package models

import "time"

// TestResult is the outcome of probing an API source.
type TestResult struct {
	SourceID   string    `json:"sourceId"`
	URL        string    `json:"url"`
	OK         bool      `json:"ok"`
	StatusCode int       `json:"statusCode,omitempty"`
	LatencyMs  int64     `json:"latencyMs"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checkedAt"`
}
