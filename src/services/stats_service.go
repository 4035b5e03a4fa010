// src/services/stats_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/tradeops/backend/src/listing"
	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/models"
	"github.com/username/tradeops/backend/src/store"
)

const (
	statsCacheKey         = "dashboard_stats"
	DefaultStatsCacheTTL  = 1 * time.Minute
	statsCacheCleanupTime = 10 * time.Minute
)

// StatsService computes the dashboard counters and caches them until a
// mutation invalidates them or the TTL runs out.
type StatsService struct {
	repo     store.Repository
	entities []string
	cache    *cache.Cache
	now      func() time.Time
}

func NewStatsService(repo store.Repository, entities []string, ttl time.Duration) *StatsService {
	if ttl <= 0 {
		ttl = DefaultStatsCacheTTL
	}
	return &StatsService{
		repo:     repo,
		entities: append([]string(nil), entities...),
		cache:    cache.New(ttl, statsCacheCleanupTime),
		now:      time.Now,
	}
}

// Invalidate drops the cached dashboard.
func (s *StatsService) Invalidate() {
	s.cache.Delete(statsCacheKey)
}

// Dashboard returns the cached counters, computing them on a miss.
func (s *StatsService) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	if cached, found := s.cache.Get(statsCacheKey); found {
		if stats, ok := cached.(models.DashboardStats); ok {
			logger.FromContext(ctx).Debug("Dashboard stats served from cache")
			return stats, nil
		}
	}
	stats, err := s.compute(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}
	s.cache.SetDefault(statsCacheKey, stats)
	return stats, nil
}

func (s *StatsService) compute(ctx context.Context) (models.DashboardStats, error) {
	stats := models.DashboardStats{
		GeneratedAt:         s.now().UTC(),
		Records:             make(map[string]int, len(s.entities)),
		TradesByStatus:      make(map[string]int),
		CompletedVolume:     decimal.Zero,
		PendingPayoutAmount: decimal.Zero,
		LogsByLevel:         make(map[string]int),
	}
	for _, entity := range s.entities {
		n, err := s.repo.Count(ctx, entity)
		if err != nil {
			return stats, fmt.Errorf("counting %s: %w", entity, err)
		}
		stats.Records[entity] = n
	}

	err := s.each(ctx, "trades", func(r listing.Record) {
		status := r.Text(models.StatusField)
		stats.TradesByStatus[status]++
		if status == models.TradeCompleted {
			if v, ok := listing.Number(r["payoutAmount"]); ok {
				stats.CompletedVolume = stats.CompletedVolume.Add(v)
			}
		}
	})
	if err != nil {
		return stats, err
	}
	err = s.each(ctx, "payouts", func(r listing.Record) {
		switch r.Text(models.StatusField) {
		case models.PayoutPending, models.PayoutProcessing:
			stats.PendingPayouts++
			if v, ok := listing.Number(r["amount"]); ok {
				stats.PendingPayoutAmount = stats.PendingPayoutAmount.Add(v)
			}
		}
	})
	if err != nil {
		return stats, err
	}
	err = s.each(ctx, "tickets", func(r listing.Record) {
		switch r.Text(models.StatusField) {
		case models.TicketOpen, models.TicketInProgress:
			stats.OpenTickets++
		}
	})
	if err != nil {
		return stats, err
	}
	err = s.each(ctx, "api_sources", func(r listing.Record) {
		if r.Text(models.StatusField) == models.SourceActive {
			stats.ActiveSources++
		}
	})
	if err != nil {
		return stats, err
	}
	err = s.each(ctx, logsEntity, func(r listing.Record) {
		stats.LogsByLevel[r.Text("level")]++
	})
	return stats, err
}

func (s *StatsService) each(ctx context.Context, entity string, fn func(listing.Record)) error {
	records, err := s.repo.List(ctx, entity)
	if err != nil {
		return fmt.Errorf("listing %s: %w", entity, err)
	}
	for _, r := range records {
		fn(r)
	}
	return nil
}
