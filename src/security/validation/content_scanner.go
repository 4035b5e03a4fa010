// src/security/validation/content_scanner.go
package validation

import (
	"fmt"
	"regexp"

	"github.com/username/tradeops/backend/src/logger"
)

// Common XSS vectors. Output encoding and SanitizeText are the primary defense.
var xssPatternsRegex = regexp.MustCompile(
	`(?i)<script|onerror=|onmouseover=|onfocus=|onload=|javascript:|vbscript:|<iframe|<object|<embed|<applet|<style|<link|<img\s+src\s*=\s*['"]?\s*(javascript|data):`,
)

func truncateForLog(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// CheckXSSPatterns rejects input carrying obvious script injection.
func CheckXSSPatterns(s, fieldName, contextID string) error {
	if xssPatternsRegex.MatchString(s) {
		errMsg := fmt.Sprintf("potential XSS pattern detected in field '%s'", fieldName)
		logger.L.Warn(errMsg, "contextID", contextID, "contentPreview", truncateForLog(s, 50))
		return fmt.Errorf("%w: %s", ErrValidationFailed, errMsg)
	}
	return nil
}

// ScanFields runs CheckXSSPatterns over every top-level string value.
func ScanFields(fields map[string]any, contextID string) error {
	for name, v := range fields {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if err := CheckXSSPatterns(s, name, contextID); err != nil {
			return err
		}
	}
	return nil
}
