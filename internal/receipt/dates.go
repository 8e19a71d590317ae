package receipt

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"
)

var isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

// DateNormalizer corrects the systematic Heisei/Reiwa era confusion in dates
// extracted from receipts. The analysis model sometimes converts a Reiwa year
// as if it were Heisei, which lands the date in the 1990s; the two eras are
// exactly 30 years apart, so the fix is +30 years.
type DateNormalizer struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewDateNormalizer creates a normalizer. The clock is time.Now.
func NewDateNormalizer(logger *zap.Logger) *DateNormalizer {
	return &DateNormalizer{logger: logger, now: time.Now}
}

// Normalize validates a YYYY-MM-DD date string and applies the era
// correction. It never fails: input that does not parse is returned
// unchanged. Only years in [1989, 1999] are corrected, and only when the
// corrected year does not run past next year; anything else suspicious is
// logged and left alone, because the receipt itself is the ground truth.
func (n *DateNormalizer) Normalize(dateStr string) string {
	if dateStr == "" {
		return dateStr
	}

	m := isoDatePattern.FindStringSubmatch(dateStr)
	if m == nil {
		n.logger.Warn("Date is not in YYYY-MM-DD form, leaving unmodified",
			zap.String("date", dateStr))
		return dateStr
	}

	year, err := strconv.Atoi(m[1])
	if err != nil {
		return dateStr
	}
	month, day := m[2], m[3]

	currentYear := n.now().Year()

	// Heisei 1-11 misread as Reiwa 1-11: 1989-1999 maps to 2019-2029.
	if year >= 1989 && year <= 1999 {
		corrected := year + 30
		if corrected <= currentYear+1 {
			n.logger.Warn("Correcting era-converted date",
				zap.Int("year", year),
				zap.Int("corrected_year", corrected))
			return fmt.Sprintf("%d-%s-%s", corrected, month, day)
		}
	}

	if year >= 2000 && year <= 2018 {
		n.logger.Warn("Date predates the Reiwa era, verify against the receipt",
			zap.String("date", dateStr))
	}

	if year > currentYear+1 {
		n.logger.Warn("Date is in the future", zap.String("date", dateStr))
	}

	return dateStr
}
