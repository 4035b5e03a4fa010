// src/models/stats.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStats are the headline counters of the admin overview.
type DashboardStats struct {
	GeneratedAt         time.Time       `json:"generatedAt"`
	Records             map[string]int  `json:"records"`
	TradesByStatus      map[string]int  `json:"tradesByStatus"`
	CompletedVolume     decimal.Decimal `json:"completedVolume"`
	PendingPayouts      int             `json:"pendingPayouts"`
	PendingPayoutAmount decimal.Decimal `json:"pendingPayoutAmount"`
	OpenTickets         int             `json:"openTickets"`
	ActiveSources       int             `json:"activeSources"`
	LogsByLevel         map[string]int  `json:"logsByLevel"`
}
