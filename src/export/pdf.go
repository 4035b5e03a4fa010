package export

import (
	"bytes"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/username/tradeops/backend/src/listing"
)

// Page geometry in millimetres.
const (
	pdfTopMargin    = 10.0
	pdfLeftMargin   = 10.0
	pdfUsableHeight = 280.0
	pdfLineHeight   = 7.0
	pdfMaxLineWidth = 190.0
)

// pdfLinesPerPage is how many lines fit between the top margin and the usable height.
const pdfLinesPerPage = int(pdfUsableHeight-pdfTopMargin) / int(pdfLineHeight)

// encodePDF lays out a title, a timestamp, a pipe-delimited header and one
// pipe-delimited line per record, pdfLinesPerPage lines to a page.
func encodePDF(e *Exporter, records []listing.Record, keys []string, filename string) ([]byte, error) {
	lines := make([]string, 0, len(records)+3)
	lines = append(lines,
		"Export: "+filename,
		"Generated: "+e.now().UTC().Format(time.RFC3339),
		strings.Join(keys, " | "),
	)
	for _, r := range records {
		vals := make([]string, len(keys))
		for i, k := range keys {
			vals[i] = listing.Text(r[k])
		}
		lines = append(lines, strings.Join(vals, " | "))
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(filename, true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	for i, line := range lines {
		slot := i % pdfLinesPerPage
		if i > 0 && slot == 0 {
			pdf.AddPage()
		}
		y := pdfTopMargin + float64(slot+1)*pdfLineHeight
		if i == 0 {
			pdf.SetFont("Helvetica", "B", 14)
		} else {
			pdf.SetFont("Helvetica", "", 8)
		}
		pdf.Text(pdfLeftMargin, y, fit(pdf, tr(line)))
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit truncates s so it stays within the printable width.
func fit(pdf *fpdf.Fpdf, s string) string {
	if pdf.GetStringWidth(s) <= pdfMaxLineWidth {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > pdfMaxLineWidth {
		s = s[:len(s)-1]
	}
	return s + "..."
}
