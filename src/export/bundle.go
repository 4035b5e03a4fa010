package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"

	"github.com/username/tradeops/backend/src/listing"
	"golang.org/x/sync/errgroup"
)

// BundleResult is a zip of every format that succeeded plus the failures.
type BundleResult struct {
	File   *File
	Failed map[Format]error
}

// Bundle builds each requested format independently and zips the ones that
// succeeded. It fails only when there is no data or every format failed.
func (e *Exporter) Bundle(records []listing.Record, columns []string, filename string, formats []Format) (*BundleResult, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("%w: no formats requested", ErrUnsupportedFormat)
	}

	files := make([]*File, len(formats))
	errs := make([]error, len(formats))
	var g errgroup.Group
	g.SetLimit(len(Formats))
	for i, f := range formats {
		i, f := i, f
		g.Go(func() error {
			// Failures are kept per format so the others still run.
			files[i], errs[i] = e.Export(records, columns, filename, f)
			return nil
		})
	}
	_ = g.Wait()

	res := &BundleResult{Failed: make(map[Format]error)}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	written := 0
	for i, f := range formats {
		if errs[i] != nil {
			res.Failed[f] = errs[i]
			continue
		}
		w, err := zw.Create(files[i].Name)
		if err != nil {
			return nil, fmt.Errorf("add %s to bundle: %w", files[i].Name, err)
		}
		if _, err := w.Write(files[i].Data); err != nil {
			return nil, fmt.Errorf("add %s to bundle: %w", files[i].Name, err)
		}
		written++
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close bundle: %w", err)
	}

	if written == 0 {
		failures := make([]error, 0, len(res.Failed))
		for _, f := range formats {
			if err, ok := res.Failed[f]; ok {
				failures = append(failures, err)
			}
		}
		return res, errors.Join(failures...)
	}
	res.File = &File{
		Name:        filename + ".zip",
		ContentType: "application/zip",
		Data:        buf.Bytes(),
	}
	return res, nil
}
