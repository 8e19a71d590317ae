package report

import (
	"sort"
	"strconv"

	"github.com/fujishima/keihi/internal/models"
)

// ListDocument is the paginated receipt list, laid out but not rendered.
// A document renderer collaborator turns it into bytes; the server also
// serves it directly as JSON for the frontend print view.
type ListDocument struct {
	Title  string     `json:"title"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Total  string     `json:"total"`
}

// listHeader is the fixed column set of the receipt list.
var listHeader = []string{"日付", "店舗名", "金額", "カテゴリ"}

const listVendorMaxRunes = 25

// BuildListDocument lays out the receipt list, newest first, with a grand
// total. Vendor names are clipped so rows keep to one line.
func BuildListDocument(title string, records []*models.Record) (*ListDocument, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	sorted := make([]*models.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})

	doc := &ListDocument{
		Title:  title,
		Header: listHeader,
		Rows:   make([][]string, 0, len(sorted)),
	}

	var total int64
	for _, rec := range sorted {
		doc.Rows = append(doc.Rows, []string{
			rec.Date,
			clipRunes(rec.VendorName, listVendorMaxRunes),
			FormatYen(rec.TotalAmount),
			rec.CategoryOrDefault(),
		})
		total += rec.TotalAmount
	}
	doc.Total = FormatYen(total)

	return doc, nil
}

// FormatYen renders an amount as ¥-prefixed text with thousands separators,
// e.g. ¥12,340.
func FormatYen(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "¥-" + string(out)
	}
	return "¥" + string(out)
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
