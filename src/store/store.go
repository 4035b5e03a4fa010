// Package store keeps the ordered record collections behind every list view.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/username/tradeops/backend/src/listing"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicateID = errors.New("record id already used")
)

// Repository is the persistent home of every entity collection. Records
// come back in insertion order and are always copies.
type Repository interface {
	List(ctx context.Context, entity string) ([]listing.Record, error)
	GetByID(ctx context.Context, entity, id string) (listing.Record, error)
	// Insert stores record, assigning an id when it has none. Ids are
	// never reused, even after the record is deleted.
	Insert(ctx context.Context, entity string, record listing.Record) (listing.Record, error)
	// UpdateByID merges patch into the stored record. The id never changes.
	UpdateByID(ctx context.Context, entity, id string, patch listing.Record) (listing.Record, error)
	DeleteByID(ctx context.Context, entity, id string) error
	Count(ctx context.Context, entity string) (int, error)
	// Trim evicts the oldest records so at most max remain and reports how many went.
	Trim(ctx context.Context, entity string, max int) (int, error)
}

// NewID returns a fresh record id.
func NewID() string {
	return uuid.NewString()
}

// prepareInsert copies record and makes sure it carries an id.
func prepareInsert(record listing.Record) (listing.Record, string) {
	r := record.Clone()
	if r == nil {
		r = listing.Record{}
	}
	id := r.ID()
	if id == "" {
		id = NewID()
	}
	r[listing.IDField] = id
	return r, id
}

// merge applies patch on top of a copy of current, keeping current's id.
func merge(current, patch listing.Record) listing.Record {
	out := current.Clone()
	id := out[listing.IDField]
	for k, v := range patch.Clone() {
		out[k] = v
	}
	out[listing.IDField] = id
	return out
}
