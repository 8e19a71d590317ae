package utils

import (
	"fmt"
	"regexp"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString removes control characters from extracted text fields.
// OCR output occasionally carries stray control bytes that break CSV and
// spreadsheet cells.
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// ValidateAmount checks an extracted amount for plausibility.
func ValidateAmount(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("amount must not be negative: %d", amount)
	}
	if amount > 10000000 {
		return fmt.Errorf("amount exceeds maximum limit: %d", amount)
	}
	return nil
}
