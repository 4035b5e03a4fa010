// src/services/record_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/username/tradeops/backend/src/catalog"
	"github.com/username/tradeops/backend/src/listing"
	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/models"
	"github.com/username/tradeops/backend/src/security/validation"
	"github.com/username/tradeops/backend/src/store"
	"github.com/xeipuuv/gojsonschema"
)

const (
	createdAtField = "createdAt"
	updatedAtField = "updatedAt"
	currencyField  = "currency"
)

// RecordService is the entity-agnostic CRUD layer behind every list view.
type RecordService struct {
	repo    store.Repository
	catalog *catalog.Catalog
	stats   StatsInvalidator
	audit   LogAppender
	now     func() time.Time
}

// NewRecordService wires the repository and catalog. stats and audit may be nil.
func NewRecordService(repo store.Repository, cat *catalog.Catalog, stats StatsInvalidator, audit LogAppender) *RecordService {
	return &RecordService{
		repo:    repo,
		catalog: cat,
		stats:   stats,
		audit:   audit,
		now:     time.Now,
	}
}

// Catalog exposes the declarations the service validates against.
func (s *RecordService) Catalog() *catalog.Catalog { return s.catalog }

func (s *RecordService) resolve(entity string) (*listing.View, *gojsonschema.Schema, error) {
	view, err := s.catalog.View(entity)
	if err != nil {
		return nil, nil, err
	}
	schema, err := s.catalog.Schema(entity)
	if err != nil {
		return nil, nil, err
	}
	return view, schema, nil
}

// All returns every record of entity in insertion order with its view.
func (s *RecordService) All(ctx context.Context, entity string) ([]listing.Record, *listing.View, error) {
	view, err := s.catalog.View(entity)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.repo.List(ctx, entity)
	if err != nil {
		return nil, nil, fmt.Errorf("listing %s: %w", entity, err)
	}
	return records, view, nil
}

// List runs the filter, sort and paginate pipeline over entity.
func (s *RecordService) List(ctx context.Context, entity string, q listing.Query) (listing.Result, error) {
	records, view, err := s.All(ctx, entity)
	if err != nil {
		return listing.Result{}, err
	}
	return listing.Run(records, view, q)
}

// ExportSet returns the whole filtered and sorted collection, unpaginated.
func (s *RecordService) ExportSet(ctx context.Context, entity string, f listing.FilterState, order listing.SortState) ([]listing.Record, *listing.View, error) {
	records, view, err := s.All(ctx, entity)
	if err != nil {
		return nil, nil, err
	}
	q := listing.Query{Filter: f, Sort: order, Page: 1}
	if err := q.Check(view); err != nil {
		return nil, nil, err
	}
	return listing.Order(listing.Filter(records, view, f), view, order), view, nil
}

func (s *RecordService) Get(ctx context.Context, entity, id string) (listing.Record, error) {
	if _, err := s.catalog.View(entity); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, entity, id)
}

// clean rejects script-like input, strips markup from every string field
// and upper-cases currency codes.
func clean(entity string, payload listing.Record) (listing.Record, error) {
	if err := validation.ScanFields(payload, entity); err != nil {
		return nil, err
	}
	rec := listing.Record(validation.SanitizeFields(payload))
	if raw, ok := rec[currencyField].(string); ok {
		code, err := validation.NormalizeCurrencyCode(raw)
		if err != nil {
			return nil, err
		}
		rec[currencyField] = code
	}
	return rec, nil
}

// Create validates payload and stores it as a new record of entity.
func (s *RecordService) Create(ctx context.Context, entity, actor string, payload listing.Record) (listing.Record, error) {
	view, schema, err := s.resolve(entity)
	if err != nil {
		return nil, err
	}
	rec, err := clean(entity, payload)
	if err != nil {
		return nil, err
	}
	if id := rec.ID(); id != "" {
		if err := validation.ValidateRecordID(id); err != nil {
			return nil, err
		}
	} else {
		delete(rec, listing.IDField)
	}

	now := s.now().UTC().Format(time.RFC3339)
	if _, ok := rec[createdAtField]; !ok {
		rec[createdAtField] = now
	}
	rec[updatedAtField] = now
	if view.DateField != "" {
		if _, ok := rec[view.DateField]; !ok {
			rec[view.DateField] = now
		}
	}
	if _, ok := rec[models.StatusField]; !ok {
		if initial, ok := models.InitialStatus(entity); ok {
			rec[models.StatusField] = initial
		}
	}
	if err := validation.ValidateDocument(schema, rec); err != nil {
		return nil, err
	}

	created, err := s.repo.Insert(ctx, entity, rec)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", entity, err)
	}
	if view.MaxRecords > 0 {
		if _, err := s.repo.Trim(ctx, entity, view.MaxRecords); err != nil {
			logger.FromContext(ctx).Warn("Failed to trim collection", "entity", entity, "error", err)
		}
	}
	s.changed(ctx, entity, actor, fmt.Sprintf("created %s %s", entity, created.ID()))
	return created, nil
}

// Update merges patch into the stored record. Status changes must follow
// the entity lifecycle; nothing is written when they don't.
func (s *RecordService) Update(ctx context.Context, entity, actor, id string, patch listing.Record) (listing.Record, error) {
	_, schema, err := s.resolve(entity)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(ctx, entity, id)
	if err != nil {
		return nil, err
	}
	changes, err := clean(entity, patch)
	if err != nil {
		return nil, err
	}
	if newID, ok := changes[listing.IDField]; ok {
		if listing.Text(newID) != id {
			return nil, fmt.Errorf("%w: %s", ErrImmutableField, listing.IDField)
		}
		delete(changes, listing.IDField)
	}
	if next, ok := changes[models.StatusField]; ok {
		from, to := current.Text(models.StatusField), listing.Text(next)
		if !models.CanTransition(entity, from, to) {
			return nil, fmt.Errorf("%w: %s %s cannot move from %q to %q", ErrInvalidTransition, entity, id, from, to)
		}
	}
	changes[updatedAtField] = s.now().UTC().Format(time.RFC3339)

	merged := current.Clone()
	for k, v := range changes {
		merged[k] = v
	}
	if err := validation.ValidateDocument(schema, merged); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateByID(ctx, entity, id, changes)
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", entity, id, err)
	}
	s.changed(ctx, entity, actor, fmt.Sprintf("updated %s %s", entity, id))
	return updated, nil
}

// Transition moves a record to status.
func (s *RecordService) Transition(ctx context.Context, entity, actor, id, status string) (listing.Record, error) {
	if err := validation.ValidateStringNotEmpty(status, models.StatusField); err != nil {
		return nil, err
	}
	return s.Update(ctx, entity, actor, id, listing.Record{models.StatusField: status})
}

func (s *RecordService) Delete(ctx context.Context, entity, actor, id string) error {
	if _, err := s.catalog.View(entity); err != nil {
		return err
	}
	if err := s.repo.DeleteByID(ctx, entity, id); err != nil {
		return err
	}
	s.changed(ctx, entity, actor, fmt.Sprintf("deleted %s %s", entity, id))
	return nil
}

// changed drops cached stats and writes the audit entry of a mutation.
func (s *RecordService) changed(ctx context.Context, entity, actor, message string) {
	if s.stats != nil {
		s.stats.Invalidate()
	}
	if s.audit == nil || entity == logsEntity {
		return
	}
	if actor == "" {
		actor = models.SourceSystem
	}
	entry := models.LogEntry{
		Level:     models.LevelInfo,
		Source:    models.SourceAdmin,
		Message:   message,
		Actor:     actor,
		Timestamp: s.now(),
	}
	if _, err := s.audit.Append(ctx, entry); err != nil {
		logger.FromContext(ctx).Warn("Failed to write audit entry", "entity", entity, "error", err)
	}
}
