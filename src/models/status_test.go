package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		entity, from, to string
		want             bool
	}{
		{"trades", TradeStarted, TradeAwaitingProof, true},
		{"trades", TradeStarted, TradePaid, false},
		{"trades", TradePaid, TradeCompleted, true},
		{"trades", TradeRateSet, TradeCancelled, true},
		{"trades", TradeCompleted, TradeCancelled, false},
		{"trades", TradeCancelled, TradeStarted, false},
		{"payouts", PayoutProcessing, PayoutFailed, true},
		{"payouts", PayoutFailed, PayoutPending, true},
		{"payouts", PayoutPaid, PayoutPending, false},
		{"tickets", TicketClosed, TicketOpen, true},
		{"tickets", TicketOpen, TicketClosed, false},
		{"users", AccountActive, AccountSuspended, true},
		{"admins", AccountSuspended, AccountActive, true},
		{"rates", "active", "inactive", true},
		{"trades", TradePaid, TradePaid, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.entity, tt.from, tt.to), "%s: %s -> %s", tt.entity, tt.from, tt.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, IsTerminal("trades", TradeCompleted))
	assert.True(t, IsTerminal("trades", TradeCancelled))
	assert.False(t, IsTerminal("trades", TradePaid))
	assert.True(t, IsTerminal("payouts", PayoutPaid))
	assert.False(t, IsTerminal("rates", "active"))
	assert.ElementsMatch(t, []string{TradeCompleted, TradeCancelled}, NextStatuses("trades", TradePaid))
	assert.False(t, HasLifecycle("rates"))
}

func TestInitialStatus(t *testing.T) {
	s, ok := InitialStatus("trades")
	assert.True(t, ok)
	assert.Equal(t, TradeStarted, s)
	assert.True(t, CanTransition("trades", s, TradeAwaitingProof))

	_, ok = InitialStatus("rates")
	assert.False(t, ok)
}
