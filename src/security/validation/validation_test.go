package validation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestSanitizeForFormulaInjection(t *testing.T) {
	tests := map[string]string{
		"=SUM(A1:A2)": "'=SUM(A1:A2)",
		"+1":          "'+1",
		"-cmd":        "'-cmd",
		"@user":       "'@user",
		"\tx":         "'\tx",
		"  =x":        "'  =x",
		"plain":       "plain",
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeForFormulaInjection(in), "%q", in)
	}
}

func TestSanitizeValue(t *testing.T) {
	in := map[string]any{
		"subject": "<b>Payout</b> missing\x00",
		"tags":    []any{"<i>bank</i>", 3.0},
		"amount":  12.5,
	}
	out := SanitizeFields(in)
	assert.Equal(t, "Payout missing", out["subject"])
	assert.Equal(t, []any{"bank", 3.0}, out["tags"])
	assert.Equal(t, 12.5, out["amount"])
}

func TestSanitizeText_KeepsPlainPunctuation(t *testing.T) {
	tests := map[string]string{
		"Barnes & Noble":           "Barnes & Noble",
		"o'neil":                   "o'neil",
		`say "hi"`:                 `say "hi"`,
		"a < b":                    "a < b",
		"<b>Steam</b>":             "Steam",
		"&lt;b&gt;Steam&lt;/b&gt;": "Steam",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeText(in), "%q", in)
	}
}

func TestScanFields(t *testing.T) {
	assert.NoError(t, ScanFields(map[string]any{"name": "Binance"}, "test"))
	err := ScanFields(map[string]any{"name": "<script>alert(1)</script>"}, "test")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateIntString(t *testing.T) {
	v, err := ValidateIntString("", "page", 1, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = ValidateIntString(" 25 ", "pageSize", 10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	_, err = ValidateIntString("abc", "page", 1, 1, 100)
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = ValidateIntString("0", "page", 1, 1, 100)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateExportFilename(t *testing.T) {
	assert.NoError(t, ValidateExportFilename("trades_2024-05"))
	assert.ErrorIs(t, ValidateExportFilename(""), ErrValidationFailed)
	assert.ErrorIs(t, ValidateExportFilename("../etc/passwd"), ErrValidationFailed)
	assert.ErrorIs(t, ValidateExportFilename("a/b"), ErrValidationFailed)
}

func TestValidateRecordID(t *testing.T) {
	assert.NoError(t, ValidateRecordID("TRD-1001"))
	assert.ErrorIs(t, ValidateRecordID("bad id"), ErrValidationFailed)
}

func TestValidateCurrencyCode(t *testing.T) {
	code, err := NormalizeCurrencyCode(" ngn ")
	require.NoError(t, err)
	assert.Equal(t, "NGN", code)
	code, err = NormalizeCurrencyCode("")
	require.NoError(t, err)
	assert.Empty(t, code)
	_, err = NormalizeCurrencyCode("NAIRA")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateClientContentType(t *testing.T) {
	assert.NoError(t, ValidateClientContentType("text/csv; charset=utf-8"))
	assert.Error(t, ValidateClientContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	assert.Error(t, ValidateClientContentType("image/png"))
}

func TestValidateFileContent(t *testing.T) {
	csv := bytes.NewReader([]byte("asset,buyRate\nBTC,1\n"))
	ct, err := ValidateFileContent(csv)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", ct)
	pos, _ := csv.Seek(0, 1)
	assert.Zero(t, pos, "reader must be rewound")

	_, err = ValidateFileContent(bytes.NewReader([]byte{0x00, 0x01, 0x02}))
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ValidateFileContent(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateDocument(t *testing.T) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(`{
		"type": "object",
		"required": ["status"],
		"properties": {"status": {"enum": ["open", "closed"]}}
	}`))
	require.NoError(t, err)

	assert.NoError(t, ValidateDocument(schema, map[string]any{"status": "open"}))

	err = ValidateDocument(schema, map[string]any{"status": "lost"})
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "status")

	err = ValidateDocument(schema, map[string]any{})
	assert.ErrorIs(t, err, ErrValidationFailed)
}
