package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/username/tradeops/backend/src/database"
	"github.com/username/tradeops/backend/src/listing"
)

// SQLStore keeps every entity in the shared records table. Deleted rows
// are only marked so their ids stay reserved.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

func NewSQLStore(db *sql.DB, dialect string) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != database.DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func decodeRecord(data []byte) (listing.Record, error) {
	var r listing.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}

func (s *SQLStore) List(ctx context.Context, entity string) ([]listing.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
	SELECT data FROM records
	WHERE entity = ? AND deleted_at IS NULL
	ORDER BY seq ASC`), entity)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entity, err)
	}
	defer rows.Close()

	records := []listing.Record{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", entity, err)
		}
		r, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) getLive(ctx context.Context, q rowQuerier, entity, id string) (listing.Record, error) {
	var data []byte
	err := q.QueryRowContext(ctx, s.rebind(`
	SELECT data FROM records
	WHERE entity = ? AND id = ? AND deleted_at IS NULL`), entity, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", entity, id, err)
	}
	return decodeRecord(data)
}

func (s *SQLStore) GetByID(ctx context.Context, entity, id string) (listing.Record, error) {
	return s.getLive(ctx, s.db, entity, id)
}

func (s *SQLStore) Insert(ctx context.Context, entity string, record listing.Record) (listing.Record, error) {
	r, id := prepareInsert(record)
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM records WHERE entity = ? AND id = ?`), entity, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check %s %s: %w", entity, id, err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("%s %s: %w", entity, id, ErrDuplicateID)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, s.rebind(`
	INSERT INTO records (entity, id, data, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)`), entity, id, string(data), now, now); err != nil {
		return nil, fmt.Errorf("insert %s %s: %w", entity, id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	// Round-trip through JSON so callers see the same value types List returns.
	return decodeRecord(data)
}

func (s *SQLStore) UpdateByID(ctx context.Context, entity, id string, patch listing.Record) (listing.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := s.getLive(ctx, tx, entity, id)
	if err != nil {
		return nil, err
	}
	updated := merge(current, patch)
	data, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`
	UPDATE records SET data = ?, updated_at = ?
	WHERE entity = ? AND id = ? AND deleted_at IS NULL`), string(data), time.Now().UTC(), entity, id); err != nil {
		return nil, fmt.Errorf("update %s %s: %w", entity, id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

func (s *SQLStore) DeleteByID(ctx context.Context, entity, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
	UPDATE records SET deleted_at = ?
	WHERE entity = ? AND id = ? AND deleted_at IS NULL`), time.Now().UTC(), entity, id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", entity, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) Count(ctx context.Context, entity string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`
	SELECT COUNT(*) FROM records WHERE entity = ? AND deleted_at IS NULL`), entity).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", entity, err)
	}
	return n, nil
}

func (s *SQLStore) Trim(ctx context.Context, entity string, max int) (int, error) {
	if max < 0 {
		max = 0
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, s.rebind(`
	SELECT COUNT(*) FROM records WHERE entity = ? AND deleted_at IS NULL`), entity).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", entity, err)
	}
	if n <= max {
		return 0, nil
	}
	drop := n - max
	res, err := tx.ExecContext(ctx, s.rebind(`
	UPDATE records SET deleted_at = ?
	WHERE seq IN (
		SELECT seq FROM records
		WHERE entity = ? AND deleted_at IS NULL
		ORDER BY seq ASC
		LIMIT ?
	)`), time.Now().UTC(), entity, drop)
	if err != nil {
		return 0, fmt.Errorf("trim %s: %w", entity, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(affected), nil
}
