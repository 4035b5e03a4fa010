package export

import (
	"encoding/json"
	"time"

	"github.com/username/tradeops/backend/src/listing"
)

// Envelope is the document written by the JSON export.
type Envelope struct {
	ExportDate   string           `json:"exportDate"`
	Filename     string           `json:"filename"`
	TotalRecords int              `json:"totalRecords"`
	Data         []listing.Record `json:"data"`
}

func encodeJSON(e *Exporter, records []listing.Record, _ []string, filename string) ([]byte, error) {
	return json.MarshalIndent(Envelope{
		ExportDate:   e.now().UTC().Format(time.RFC3339),
		Filename:     filename,
		TotalRecords: len(records),
		Data:         records,
	}, "", "  ")
}
