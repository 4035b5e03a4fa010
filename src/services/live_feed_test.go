package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradeops/backend/src/catalog"
	"github.com/username/tradeops/backend/src/models"
	"github.com/username/tradeops/backend/src/security/validation"
	"github.com/username/tradeops/backend/src/store"
)

func TestLiveFeed_AppendEvictsOldest(t *testing.T) {
	repo := store.NewMemoryStore()
	feed := NewLiveFeed(repo, nil, time.Hour, 3)
	ctx := context.Background()

	events, unsubscribe := feed.Subscribe(10)
	defer unsubscribe()

	var ids []string
	for i := 0; i < 5; i++ {
		rec, err := feed.Append(ctx, models.LogEntry{Message: "tick"})
		require.NoError(t, err)
		ids = append(ids, rec.ID())
	}

	got, err := repo.List(ctx, "logs")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[2:], []string{got[0].ID(), got[1].ID(), got[2].ID()})

	var evicted []int
	for i := 0; i < 5; i++ {
		ev := <-events
		assert.Equal(t, models.FeedEventAppend, ev.Type)
		assert.Equal(t, ids[i], ev.Record.ID())
		evicted = append(evicted, ev.Evicted)
	}
	assert.Equal(t, []int{0, 0, 0, 1, 1}, evicted)
	assert.Equal(t, models.LevelInfo, got[0]["level"])
	assert.Equal(t, models.SourceSystem, got[0]["source"])
}

func TestLiveFeed_SlowSubscriberDoesNotBlock(t *testing.T) {
	feed := NewLiveFeed(store.NewMemoryStore(), nil, time.Hour, 0)
	events, unsubscribe := feed.Subscribe(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			_, _ = feed.Append(context.Background(), models.LogEntry{Message: "burst"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Append blocked on a full subscriber")
	}
	assert.Len(t, events, 1)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, feed.Subscribers())
	_, open := <-events
	assert.True(t, open, "buffered event is still readable")
	_, open = <-events
	assert.False(t, open)
}

func TestLiveFeed_StartStopIsIdempotent(t *testing.T) {
	feed := NewLiveFeed(store.NewMemoryStore(), nil, 10*time.Millisecond, 50)
	events, unsubscribe := feed.Subscribe(16)
	defer unsubscribe()

	assert.True(t, feed.Start(context.Background()))
	assert.False(t, feed.Start(context.Background()))
	assert.True(t, feed.Running())

	select {
	case ev := <-events:
		assert.NotEmpty(t, ev.Record["message"])
	case <-time.After(2 * time.Second):
		t.Fatal("no generated entry")
	}

	assert.True(t, feed.Stop())
	assert.False(t, feed.Stop())
	assert.False(t, feed.Running())
}

func TestLiveFeed_GeneratedEntriesMatchSchema(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)
	schema, err := cat.Schema("logs")
	require.NoError(t, err)

	feed := NewLiveFeed(store.NewMemoryStore(), nil, 0, 0)
	for i := 0; i < 50; i++ {
		entry := feed.Generate()
		assert.NoError(t, validation.ValidateDocument(schema, entry.Record()))
	}
}
