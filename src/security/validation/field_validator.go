// src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/username/tradeops/backend/src/logger"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxRecordIDLength      = 64
	MaxCurrencyCodeLength  = 3
	MaxFilenameLength      = 100
	MaxSearchLength        = 200
)

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks the UTF-8 character count of s.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

func ValidateStringRegex(s string, pattern *regexp.Regexp, fieldName, formatDescription string) error {
	if !pattern.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') is not in the expected format (%s)", ErrValidationFailed, fieldName, s, formatDescription)
	}
	return nil
}

// --- Numeric Validators ---

// ValidateIntString parses s as an integer within [minVal, maxVal].
// An empty string yields def.
func ValidateIntString(s, fieldName string, def, minVal, maxVal int) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return def, nil
	}
	val, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %s ('%s') is not a valid integer", ErrValidationFailed, fieldName, s)
	}
	if val < minVal || val > maxVal {
		logger.L.Warn("Integer value out of range", "field", fieldName, "value", val, "min", minVal, "max", maxVal)
		return 0, fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrValidationFailed, fieldName, minVal, maxVal, val)
	}
	return val, nil
}

// --- Specific Format Validators ---

var (
	currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	recordIDRegex     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	filenameRegex     = regexp.MustCompile(`^[a-zA-Z0-9 _.-]+$`)
)

// NormalizeCurrencyCode upper-cases s and checks it is an ISO 4217 style
// three letter code. Empty is allowed.
func NormalizeCurrencyCode(s string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if code == "" {
		return "", nil
	}
	if !currencyCodeRegex.MatchString(code) {
		return "", fmt.Errorf("%w: currency ('%s') must be 3 letters", ErrValidationFailed, s)
	}
	return code, nil
}

// ValidateRecordID checks the length and alphabet of a client-supplied id.
func ValidateRecordID(s string) error {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, "id"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(trimmed, MaxRecordIDLength, "id"); err != nil {
		return err
	}
	return ValidateStringRegex(trimmed, recordIDRegex, "id", "alphanumeric with hyphens/underscores")
}

// ValidateExportFilename checks a download name given without extension.
func ValidateExportFilename(s string) error {
	if err := ValidateStringNotEmpty(s, "filename"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxFilenameLength, "filename"); err != nil {
		return err
	}
	if strings.Contains(s, "..") {
		return fmt.Errorf("%w: filename cannot contain '..'", ErrValidationFailed)
	}
	return ValidateStringRegex(s, filenameRegex, "filename", "letters, digits, spaces, dots, hyphens and underscores")
}
