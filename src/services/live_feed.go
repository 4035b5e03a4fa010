// src/services/live_feed.go
package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/username/tradeops/backend/src/listing"
	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/models"
	"github.com/username/tradeops/backend/src/store"
)

const DefaultFeedInterval = 3 * time.Second

// LiveFeed appends log records, keeps the logs collection capped and
// pushes every append to its subscribers. In live mode it also generates
// synthetic activity on a ticker.
type LiveFeed struct {
	repo       store.Repository
	stats      StatsInvalidator
	interval   time.Duration
	maxRecords int
	now        func() time.Time

	mu      sync.Mutex
	subs    map[int]chan models.FeedEvent
	nextSub int
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewLiveFeed caps the logs collection at maxRecords; zero or less keeps everything.
func NewLiveFeed(repo store.Repository, stats StatsInvalidator, interval time.Duration, maxRecords int) *LiveFeed {
	if interval <= 0 {
		interval = DefaultFeedInterval
	}
	return &LiveFeed{
		repo:       repo,
		stats:      stats,
		interval:   interval,
		maxRecords: maxRecords,
		now:        time.Now,
		subs:       make(map[int]chan models.FeedEvent),
	}
}

// Append stores entry, evicts the oldest records beyond the cap and
// notifies subscribers.
func (f *LiveFeed) Append(ctx context.Context, entry models.LogEntry) (listing.Record, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = f.now()
	}
	if entry.Level == "" {
		entry.Level = models.LevelInfo
	}
	if entry.Source == "" {
		entry.Source = models.SourceSystem
	}
	rec, err := f.repo.Insert(ctx, logsEntity, entry.Record())
	if err != nil {
		return nil, fmt.Errorf("appending log entry: %w", err)
	}
	evicted := 0
	if f.maxRecords > 0 {
		evicted, err = f.repo.Trim(ctx, logsEntity, f.maxRecords)
		if err != nil {
			logger.FromContext(ctx).Warn("Failed to trim logs", "error", err)
		}
	}
	if f.stats != nil {
		f.stats.Invalidate()
	}
	f.broadcast(models.FeedEvent{
		Type:    models.FeedEventAppend,
		Record:  rec,
		Evicted: evicted,
		At:      f.now(),
	})
	return rec, nil
}

// broadcast never blocks: a subscriber whose buffer is full misses the event.
func (f *LiveFeed) broadcast(ev models.FeedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			logger.L.Debug("Dropping feed event for slow subscriber", "subscriber", id)
		}
	}
}

// Subscribe returns a channel of append events and the func that ends the
// subscription and closes the channel.
func (f *LiveFeed) Subscribe(buffer int) (<-chan models.FeedEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.FeedEvent, buffer)
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers reports how many subscriptions are open.
func (f *LiveFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Start turns live mode on. It reports false when live mode was already on.
func (f *LiveFeed) Start(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	f.cancel, f.done = cancel, done
	go f.run(ctx, done)
	logger.L.Info("Live feed started", "interval", f.interval.String())
	return true
}

// Stop turns live mode off and waits for the generator to exit. It reports
// false when live mode was already off.
func (f *LiveFeed) Stop() bool {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	<-done
	logger.L.Info("Live feed stopped")
	return true
}

func (f *LiveFeed) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancel != nil
}

func (f *LiveFeed) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := f.Append(ctx, f.Generate()); err != nil && ctx.Err() == nil {
				logger.L.Error("Live feed append failed", "error", err)
			}
		}
	}
}

type feedTemplate struct {
	level   string
	source  string
	message string
}

var feedTemplates = []feedTemplate{
	{models.LevelInfo, models.SourceBot, "User %s started a %s trade"},
	{models.LevelInfo, models.SourceBot, "Proof of payment received from %s for %s"},
	{models.LevelInfo, models.SourceAPI, "Rate refresh for %s completed in %s"},
	{models.LevelWarning, models.SourceAPI, "Slow response from %s rate provider (%s)"},
	{models.LevelWarning, models.SourceBot, "User %s sent an unreadable receipt for %s"},
	{models.LevelError, models.SourceAPI, "Rate provider %s returned an error for %s"},
	{models.LevelInfo, models.SourceSystem, "Payout batch for %s queued (%s)"},
}

var (
	feedUsers  = []string{"chidi_o", "amaka.n", "tunde99", "zainab_b", "kelechi", "femi_ade"}
	feedAssets = []string{"BTC", "USDT", "ETH", "Amazon", "iTunes", "Steam"}
)

// Generate builds one synthetic log entry.
func (f *LiveFeed) Generate() models.LogEntry {
	t := feedTemplates[rand.Intn(len(feedTemplates))]
	user := feedUsers[rand.Intn(len(feedUsers))]
	asset := feedAssets[rand.Intn(len(feedAssets))]

	var msg string
	switch t.source {
	case models.SourceAPI:
		msg = fmt.Sprintf(t.message, asset, fmt.Sprintf("%dms", 80+rand.Intn(900)))
	case models.SourceSystem:
		msg = fmt.Sprintf(t.message, asset, fmt.Sprintf("%d items", 1+rand.Intn(20)))
	default:
		msg = fmt.Sprintf(t.message, user, asset)
	}
	actor := ""
	if t.source == models.SourceBot {
		actor = user
	}
	return models.LogEntry{
		Level:     t.level,
		Source:    t.source,
		Message:   msg,
		Actor:     actor,
		Timestamp: f.now(),
	}
}
