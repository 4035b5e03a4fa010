package export

import (
	"fmt"

	"github.com/username/tradeops/backend/src/listing"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Data"

// encodeXLSX builds a single-sheet workbook whose first row holds the keys.
func encodeXLSX(_ *Exporter, records []listing.Record, keys []string, _ string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(keys))
	for i, k := range keys {
		header[i] = k
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		row := make([]any, len(keys))
		for j, k := range keys {
			if n, ok := r[k].(float64); ok {
				row[j] = n
				continue
			}
			row[j] = cell(r[k])
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, addr, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
