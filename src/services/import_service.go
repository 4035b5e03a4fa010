// src/services/import_service.go
package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/username/tradeops/backend/src/listing"
	"github.com/username/tradeops/backend/src/logger"
)

const DefaultMaxImportRows = 5000

// RowError reports why one data row was not imported. Row 1 is the header.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportResult struct {
	Entity   string     `json:"entity"`
	Imported int        `json:"imported"`
	Failed   []RowError `json:"failed"`
}

// ImportService bulk-creates records from CSV. Every row goes through the
// same checks as a single create.
type ImportService struct {
	records *RecordService
	maxRows int
}

func NewImportService(records *RecordService, maxRows int) *ImportService {
	if maxRows <= 0 {
		maxRows = DefaultMaxImportRows
	}
	return &ImportService{records: records, maxRows: maxRows}
}

// ImportCSV reads a header of declared field names followed by data rows.
// Malformed rows are collected in the result; the import only fails as a
// whole when the header is unusable or the CSV cannot be parsed.
func (s *ImportService) ImportCSV(ctx context.Context, entity, actor string, r io.Reader) (*ImportResult, error) {
	view, err := s.records.Catalog().View(entity)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrImportFailed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrImportFailed, err)
	}
	if err := checkHeader(view, header); err != nil {
		return nil, err
	}
	reader.FieldsPerRecord = len(header)

	result := &ImportResult{Entity: entity, Failed: []RowError{}}
	row := 1
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if row-1 > s.maxRows {
			return result, fmt.Errorf("%w: more than %d rows", ErrImportFailed, s.maxRows)
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				result.Failed = append(result.Failed, RowError{Row: row, Error: fmt.Sprintf("expected %d fields, got %d", len(header), len(fields))})
				continue
			}
			return result, fmt.Errorf("%w: row %d: %v", ErrImportFailed, row, err)
		}

		rec, err := rowRecord(view, header, fields)
		if err == nil {
			_, err = s.records.Create(ctx, entity, actor, rec)
		}
		if err != nil {
			result.Failed = append(result.Failed, RowError{Row: row, Error: err.Error()})
			continue
		}
		result.Imported++
	}

	logger.FromContext(ctx).Info("CSV import finished", "entity", entity, "imported", result.Imported, "failed", len(result.Failed))
	return result, nil
}

func checkHeader(view *listing.View, header []string) error {
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[i] = name
		if _, ok := view.Column(name); !ok {
			return fmt.Errorf("%w: %w: %q", ErrImportFailed, listing.ErrUnknownField, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate column %q", ErrImportFailed, name)
		}
		seen[name] = true
	}
	return nil
}

// rowRecord converts cells by column kind. Empty cells are left out.
func rowRecord(view *listing.View, header, fields []string) (listing.Record, error) {
	rec := make(listing.Record, len(header))
	for i, name := range header {
		raw := strings.TrimSpace(fields[i])
		if raw == "" {
			continue
		}
		switch view.KindOf(name) {
		case listing.KindNumber:
			n, ok := listing.Number(raw)
			if !ok {
				return nil, fmt.Errorf("column %q: %q is not a number", name, raw)
			}
			rec[name] = n.InexactFloat64()
		case listing.KindDate:
			t, ok := listing.ParseTime(raw)
			if !ok {
				return nil, fmt.Errorf("column %q: %q is not a date", name, raw)
			}
			rec[name] = t.UTC().Format(time.RFC3339)
		case listing.KindList:
			var items []any
			for _, item := range strings.Split(raw, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			rec[name] = items
		default:
			rec[name] = raw
		}
	}
	return rec, nil
}
