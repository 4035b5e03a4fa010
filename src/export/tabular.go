package export

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/username/tradeops/backend/src/listing"
)

func rows(records []listing.Record, keys []string) [][]string {
	out := make([][]string, 0, len(records)+1)
	out = append(out, keys)
	for _, r := range records {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = cell(r[k])
		}
		out = append(out, row)
	}
	return out
}

// encodeCSV writes a header row and one row per record with \n line endings.
// Non-numeric text starting with = + - @ or a tab is prefixed with a single
// quote so spreadsheets do not evaluate it; "- pending" is written as
// "'- pending" while "+2348012345678" and -12 are left alone.
func encodeCSV(_ *Exporter, records []listing.Record, keys []string, _ string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows(records, keys)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var tsvReplacer = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// encodeTSV writes the tab-separated payload served with the legacy .xls extension.
func encodeTSV(_ *Exporter, records []listing.Record, keys []string, _ string) ([]byte, error) {
	var b strings.Builder
	for _, row := range rows(records, keys) {
		for i, v := range row {
			if i > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(tsvReplacer.Replace(v))
		}
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}
