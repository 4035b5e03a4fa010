package validation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/username/tradeops/backend/src/logger"
)

// AllowedClientContentTypes lists the declared MIME types accepted for CSV imports.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
	"text/plain":               true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": false,
}

// ValidateClientContentType checks the Content-Type declared for an uploaded file.
func ValidateClientContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if allowed, exists := AllowedClientContentTypes[ct]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: file type '%s' is not allowed for CSV import", ErrValidationFailed, contentType)
	}
	return nil
}

// isBinaryContent reports null bytes or invalid UTF-8 in buf.
func isBinaryContent(buf []byte) bool {
	return bytes.IndexByte(buf, 0) != -1 || !utf8.Valid(buf)
}

// ValidateFileContent sniffs the first kilobyte of file, rejects binary
// payloads and rewinds the reader for the parser.
func ValidateFileContent(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, 1024)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidationFailed)
	}

	// Cut a partial trailing rune so the UTF-8 check looks at whole characters only.
	sample := buffer[:n]
	if n == len(buffer) {
		for i := 0; i < utf8.UTFMax && len(sample) > 0 && !utf8.Valid(sample); i++ {
			sample = sample[:len(sample)-1]
		}
	}
	if isBinaryContent(sample) {
		logger.L.Warn("File rejected: binary content detected in text upload")
		return "application/octet-stream", fmt.Errorf("%w: file appears to be binary, not CSV", ErrValidationFailed)
	}

	detected := strings.ToLower(strings.Split(http.DetectContentType(sample), ";")[0])
	switch detected {
	case "text/plain", "text/csv", "application/csv":
	default:
		logger.L.Warn("Disallowed detected file content type", "detectedContentType", detected)
		return detected, fmt.Errorf("%w: detected file content type '%s' is not allowed", ErrValidationFailed, detected)
	}
	logger.L.Debug("File content type validated", "detectedContentType", detected)
	return detected, nil
}
