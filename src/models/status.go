// src/models/status.go
package models

// StatusField is the record field driven by the lifecycle tables.
const StatusField = "status"

// Trade statuses, in the order a successful trade moves through them.
const (
	TradeStarted       = "started"
	TradeAwaitingProof = "awaiting_proof"
	TradeRateSet       = "rate_set"
	TradePaid          = "paid"
	TradeCompleted     = "completed"
	TradeCancelled     = "cancelled"
)

const (
	PayoutPending    = "pending"
	PayoutProcessing = "processing"
	PayoutPaid       = "paid"
	PayoutFailed     = "failed"
)

const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

const (
	AccountActive    = "active"
	AccountSuspended = "suspended"
)

const (
	SourceActive   = "active"
	SourceInactive = "inactive"
	SourceError    = "error"
)

// transitions maps entity -> current status -> allowed next statuses.
// Entities missing from the table have no enforced lifecycle.
var transitions = map[string]map[string][]string{
	"trades": {
		TradeStarted:       {TradeAwaitingProof, TradeCancelled},
		TradeAwaitingProof: {TradeRateSet, TradeCancelled},
		TradeRateSet:       {TradePaid, TradeCancelled},
		TradePaid:          {TradeCompleted, TradeCancelled},
	},
	"payouts": {
		PayoutPending:    {PayoutProcessing},
		PayoutProcessing: {PayoutPaid, PayoutFailed},
		PayoutFailed:     {PayoutPending},
	},
	"tickets": {
		TicketOpen:       {TicketInProgress},
		TicketInProgress: {TicketResolved},
		TicketResolved:   {TicketClosed},
		TicketClosed:     {TicketOpen},
	},
	"users": {
		AccountActive:    {AccountSuspended},
		AccountSuspended: {AccountActive},
	},
	"admins": {
		AccountActive:    {AccountSuspended},
		AccountSuspended: {AccountActive},
	},
	"api_sources": {
		SourceActive:   {SourceInactive, SourceError},
		SourceInactive: {SourceActive, SourceError},
		SourceError:    {SourceActive, SourceInactive},
	},
}

// HasLifecycle reports whether entity status changes are restricted.
func HasLifecycle(entity string) bool {
	_, ok := transitions[entity]
	return ok
}

// CanTransition reports whether entity may move from one status to another.
// Staying on the same status is always allowed.
func CanTransition(entity, from, to string) bool {
	if from == to {
		return true
	}
	table, ok := transitions[entity]
	if !ok {
		return true
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists where entity can go from status.
func NextStatuses(entity, status string) []string {
	return append([]string(nil), transitions[entity][status]...)
}

// IsTerminal reports whether status has no way out.
func IsTerminal(entity, status string) bool {
	table, ok := transitions[entity]
	if !ok {
		return false
	}
	return len(table[status]) == 0
}

var initialStatus = map[string]string{
	"trades":      TradeStarted,
	"payouts":     PayoutPending,
	"tickets":     TicketOpen,
	"users":       AccountActive,
	"admins":      AccountActive,
	"api_sources": SourceInactive,
}

// InitialStatus is the status a new record of entity starts in when none is given.
func InitialStatus(entity string) (string, bool) {
	s, ok := initialStatus[entity]
	return s, ok
}
