// Package export turns a filtered record collection into downloadable files.
package export

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/username/tradeops/backend/src/listing"
	"github.com/username/tradeops/backend/src/security/validation"
)

// Format names a download encoding.
type Format string

const (
	CSV  Format = "csv"
	XLS  Format = "xls"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
	JSON Format = "json"
)

// Formats lists every supported encoding.
var Formats = []Format{CSV, XLS, XLSX, PDF, JSON}

var (
	ErrNoData            = errors.New("No data to export")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ParseFormat maps a request value to a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

func (f Format) Extension() string { return string(f) }

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case XLS:
		return "application/vnd.ms-excel"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	case JSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// Label is the name shown to users when an export of this format fails.
func (f Format) Label() string {
	return strings.ToUpper(string(f))
}

// FormatError reports a failure while building one format.
type FormatError struct {
	Format Format
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Failed to export %s: %v", e.Format.Label(), e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// File is a generated download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Exporter builds export files. The zero value is not usable; call New.
type Exporter struct {
	now func() time.Time
}

func New() *Exporter {
	return &Exporter{now: time.Now}
}

type encoder func(e *Exporter, records []listing.Record, keys []string, filename string) ([]byte, error)

var encoders = map[Format]encoder{
	CSV:  encodeCSV,
	XLS:  encodeTSV,
	XLSX: encodeXLSX,
	PDF:  encodePDF,
	JSON: encodeJSON,
}

// Export encodes records as format into <filename>.<ext>. Key order comes
// from the first record, arranged by the declared columns.
func (e *Exporter) Export(records []listing.Record, columns []string, filename string, format Format) (*File, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}
	enc, ok := encoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := validation.ValidateExportFilename(filename); err != nil {
		return nil, err
	}

	data, err := e.encode(enc, records, Keys(records[0], columns), filename)
	if err != nil {
		return nil, &FormatError{Format: format, Err: err}
	}
	return &File{
		Name:        filename + "." + format.Extension(),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// encode converts a panic inside a third-party encoder into an error so one
// format never takes the others down.
func (e *Exporter) encode(enc encoder, records []listing.Record, keys []string, filename string) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return enc(e, records, keys, filename)
}

// Keys orders the fields of first: declared columns first, in declaration
// order, then any other fields lexically.
func Keys(first listing.Record, columns []string) []string {
	keys := make([]string, 0, len(first))
	declared := make(map[string]bool, len(columns))
	for _, c := range columns {
		declared[c] = true
		if _, ok := first[c]; ok {
			keys = append(keys, c)
		}
	}
	var extra []string
	for k := range first {
		if !declared[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// cell renders a value for spreadsheet-like outputs, neutralising text
// that would run as a formula. Numbers are left alone.
func cell(v any) string {
	s := listing.Text(v)
	if _, isNumber := listing.Number(v); isNumber {
		return s
	}
	return validation.SanitizeForFormulaInjection(s)
}
