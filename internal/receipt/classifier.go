package receipt

import (
	"strings"

	"github.com/fujishima/keihi/internal/models"
)

// Category is the expense bucket a record settles into. Every record lands
// in exactly one category.
type Category int

const (
	CategoryGeneral Category = iota
	CategoryParking
	CategoryICTransport
)

// String returns the category name used in logs and API responses.
func (c Category) String() string {
	switch c {
	case CategoryParking:
		return "parking"
	case CategoryICTransport:
		return "ic-transport"
	default:
		return "general"
	}
}

// Keyword sets for the parking checks. Bicycle parking shares vocabulary
// with vehicle parking but is accounted separately, so its exclusion check
// must run before the parking match.
var (
	bicycleKeywords = []string{"駐輪", "自転車", "サイクル", "bicycle", "cycle"}
	parkingKeywords = []string{"駐車", "パーキング", "コインパ", "parking", "p代"}
)

// Classify assigns a record to exactly one category.
//
// Precedence:
//  1. Bicycle-parking vendors are excluded from parking outright, whatever
//     the other signals say, and fall through to the remaining checks.
//  2. Parking: the analysis service's is_parking flag, or a parking keyword
//     in the vendor name or category (case-insensitive).
//  3. IC transport: the is_ic_transport flag only. The flag is set upstream
//     only when the document carries an explicit ICカード交通費 heading;
//     ordinary transit-card usage histories must not land here, so there is
//     no keyword fallback.
//  4. Everything else is general.
func Classify(rec *models.Record) Category {
	vendor := strings.ToLower(rec.VendorName)
	category := strings.ToLower(rec.Category)

	bicycle := containsAny(vendor, bicycleKeywords) || containsAny(category, bicycleKeywords)

	if !bicycle {
		if rec.IsParking || containsAny(vendor, parkingKeywords) || containsAny(category, parkingKeywords) {
			return CategoryParking
		}
	}

	if rec.IsICTransport {
		return CategoryICTransport
	}

	return CategoryGeneral
}

// Buckets is the three-way partition of a record list. Immutable once built.
type Buckets struct {
	Parking   []*models.Record
	Transport []*models.Record
	General   []*models.Record
}

// Partition classifies every record into its bucket.
func Partition(records []*models.Record) *Buckets {
	b := &Buckets{}
	for _, rec := range records {
		switch Classify(rec) {
		case CategoryParking:
			b.Parking = append(b.Parking, rec)
		case CategoryICTransport:
			b.Transport = append(b.Transport, rec)
		default:
			b.General = append(b.General, rec)
		}
	}
	return b
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
