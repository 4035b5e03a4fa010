package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradeops/backend/src/catalog"
	"github.com/username/tradeops/backend/src/database"
	"github.com/username/tradeops/backend/src/listing"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.Open(database.DialectSQLite, filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db, database.DialectSQLite))
	return NewSQLStore(db, database.DialectSQLite)
}

// forEachStore runs fn against every Repository implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteStore(t)) })
}

func TestRepository_InsertListOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		for i := 1; i <= 3; i++ {
			_, err := repo.Insert(ctx, "trades", listing.Record{"id": fmt.Sprintf("T-%d", i), "amount": float64(i)})
			require.NoError(t, err)
		}
		got, err := repo.List(ctx, "trades")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"T-1", "T-2", "T-3"}, []string{got[0].ID(), got[1].ID(), got[2].ID()})

		empty, err := repo.List(ctx, "tickets")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestRepository_AssignsIDs(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo Repository) {
		r, err := repo.Insert(context.Background(), "users", listing.Record{"username": "kemi"})
		require.NoError(t, err)
		assert.NotEmpty(t, r.ID())
		assert.Equal(t, "kemi", r["username"])
	})
}

func TestRepository_IDsAreNeverReused(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		_, err := repo.Insert(ctx, "admins", listing.Record{"id": "A-1"})
		require.NoError(t, err)

		_, err = repo.Insert(ctx, "admins", listing.Record{"id": "A-1"})
		assert.ErrorIs(t, err, ErrDuplicateID)

		require.NoError(t, repo.DeleteByID(ctx, "admins", "A-1"))
		_, err = repo.Insert(ctx, "admins", listing.Record{"id": "A-1"})
		assert.ErrorIs(t, err, ErrDuplicateID)

		_, err = repo.Insert(ctx, "users", listing.Record{"id": "A-1"})
		assert.NoError(t, err, "ids are scoped per entity")
	})
}

func TestRepository_UpdateMergesAndKeepsID(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		_, err := repo.Insert(ctx, "payouts", listing.Record{"id": "P-1", "status": "pending", "amount": 100.0})
		require.NoError(t, err)

		updated, err := repo.UpdateByID(ctx, "payouts", "P-1", listing.Record{"status": "paid", "id": "P-2"})
		require.NoError(t, err)
		assert.Equal(t, "P-1", updated.ID())
		assert.Equal(t, "paid", updated["status"])
		assert.Equal(t, 100.0, updated["amount"])

		got, err := repo.GetByID(ctx, "payouts", "P-1")
		require.NoError(t, err)
		assert.Equal(t, "paid", got["status"])

		_, err = repo.UpdateByID(ctx, "payouts", "missing", listing.Record{"status": "paid"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepository_DeleteAndNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		_, err := repo.Insert(ctx, "tickets", listing.Record{"id": "K-1"})
		require.NoError(t, err)
		_, err = repo.Insert(ctx, "tickets", listing.Record{"id": "K-2"})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteByID(ctx, "tickets", "K-1"))
		assert.ErrorIs(t, repo.DeleteByID(ctx, "tickets", "K-1"), ErrNotFound)
		_, err = repo.GetByID(ctx, "tickets", "K-1")
		assert.ErrorIs(t, err, ErrNotFound)

		n, err := repo.Count(ctx, "tickets")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestRepository_ReturnsCopies(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		_, err := repo.Insert(ctx, "admins", listing.Record{"id": "A-1", "channels": []any{"telegram"}})
		require.NoError(t, err)

		list, err := repo.List(ctx, "admins")
		require.NoError(t, err)
		list[0]["username"] = "mutated"
		list[0]["channels"].([]any)[0] = "mutated"

		again, err := repo.GetByID(ctx, "admins", "A-1")
		require.NoError(t, err)
		assert.Nil(t, again["username"])
		assert.Equal(t, "telegram", again["channels"].([]any)[0])
	})
}

func TestRepository_TrimEvictsOldest(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		for i := 1; i <= 5; i++ {
			_, err := repo.Insert(ctx, "logs", listing.Record{"id": fmt.Sprintf("L-%d", i)})
			require.NoError(t, err)
		}
		dropped, err := repo.Trim(ctx, "logs", 3)
		require.NoError(t, err)
		assert.Equal(t, 2, dropped)

		list, err := repo.List(ctx, "logs")
		require.NoError(t, err)
		assert.Equal(t, []string{"L-3", "L-4", "L-5"}, []string{list[0].ID(), list[1].ID(), list[2].ID()})

		dropped, err = repo.Trim(ctx, "logs", 10)
		require.NoError(t, err)
		assert.Zero(t, dropped)
	})
}

func TestSeed_FillsEmptyEntitiesOnce(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)

	forEachStore(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		seeded, err := Seed(ctx, repo, cat)
		require.NoError(t, err)
		assert.Equal(t, 6, seeded["trades"])
		assert.Equal(t, 24, seeded["rates"])

		again, err := Seed(ctx, repo, cat)
		require.NoError(t, err)
		assert.Empty(t, again)

		n, err := repo.Count(ctx, "trades")
		require.NoError(t, err)
		assert.Equal(t, 6, n)
	})
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: database.DialectPostgres}
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", pg.rebind("SELECT 1 WHERE a = ? AND b = ?"))
	lite := &SQLStore{dialect: database.DialectSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}
