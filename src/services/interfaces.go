// src/services/interfaces.go
package services

import (
	"context"
	"errors"

	"github.com/username/tradeops/backend/src/listing"
	"github.com/username/tradeops/backend/src/models"
)

// Define common service errors
var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrImmutableField     = errors.New("field cannot be changed")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMFARequired        = errors.New("mfa code required")
	ErrInvalidMFACode     = errors.New("invalid mfa code")
	ErrImportFailed       = errors.New("import failed")
)

// LogAppender records audit and feed entries in the logs entity.
type LogAppender interface {
	Append(ctx context.Context, entry models.LogEntry) (listing.Record, error)
}

// StatsInvalidator drops cached dashboard numbers after a mutation.
type StatsInvalidator interface {
	Invalidate()
}

// logsEntity receives the audit entry of every mutation on the other entities.
const logsEntity = "logs"
