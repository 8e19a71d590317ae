package receipt

import (
	"sort"

	"github.com/fujishima/keihi/internal/models"
)

// VendorAggregate is the rollup of all general-category records sharing one
// vendor name within a single export.
type VendorAggregate struct {
	Vendor   string
	Amount   int64
	Dates    []string // distinct non-empty dates, ascending
	Category string   // first non-empty category seen for this vendor
}

// TransportLineItem is one flattened transport row. A record with nested
// items yields one line item per entry; a record without items yields one.
type TransportLineItem struct {
	Date        string
	Vendor      string
	FromStation string
	ToStation   string
	Amount      int64
}

// DateOrder controls the transport list sort direction.
type DateOrder int

const (
	// DateDescending (newest first) matches the report layout and is the
	// default.
	DateDescending DateOrder = iota
	DateAscending
)

// Summary is everything the report needs, built fresh per export and
// discarded afterwards.
type Summary struct {
	ParkingTotal int64
	Vendors      []VendorAggregate   // sorted by amount descending
	Transport    []TransportLineItem // sorted by date per the requested order
}

// Aggregate rolls the classified buckets up into a report-ready summary.
// The result is independent of the input record order: vendors are sorted by
// amount descending with ties broken by vendor name, transport items by date.
func Aggregate(b *Buckets, order DateOrder) *Summary {
	s := &Summary{}

	for _, rec := range b.Parking {
		s.ParkingTotal += rec.TotalAmount
	}

	byVendor := make(map[string]*VendorAggregate)
	for _, rec := range b.General {
		vendor := rec.VendorOrDefault()
		agg, ok := byVendor[vendor]
		if !ok {
			agg = &VendorAggregate{Vendor: vendor}
			byVendor[vendor] = agg
		}
		agg.Amount += rec.TotalAmount
		if rec.Date != "" && !containsString(agg.Dates, rec.Date) {
			agg.Dates = append(agg.Dates, rec.Date)
		}
		if agg.Category == "" {
			agg.Category = rec.CategoryOrDefault()
		}
	}
	for _, agg := range byVendor {
		sort.Strings(agg.Dates)
		s.Vendors = append(s.Vendors, *agg)
	}
	sort.Slice(s.Vendors, func(i, j int) bool {
		if s.Vendors[i].Amount != s.Vendors[j].Amount {
			return s.Vendors[i].Amount > s.Vendors[j].Amount
		}
		return s.Vendors[i].Vendor < s.Vendors[j].Vendor
	})

	for _, rec := range b.Transport {
		s.Transport = append(s.Transport, flattenTransport(rec)...)
	}
	sort.SliceStable(s.Transport, func(i, j int) bool {
		if order == DateAscending {
			return s.Transport[i].Date < s.Transport[j].Date
		}
		return s.Transport[i].Date > s.Transport[j].Date
	})

	return s
}

// flattenTransport expands a transport record into line items. Multi-leg
// trips carry their legs in the nested items list.
func flattenTransport(rec *models.Record) []TransportLineItem {
	if len(rec.Items) == 0 {
		return []TransportLineItem{{
			Date:   rec.Date,
			Vendor: rec.VendorName,
			Amount: rec.TotalAmount,
		}}
	}

	lines := make([]TransportLineItem, 0, len(rec.Items))
	for _, item := range rec.Items {
		lines = append(lines, TransportLineItem{
			Date:        item.Date,
			Vendor:      item.ResolveVendor(rec.VendorName),
			FromStation: item.FromStation,
			ToStation:   item.ToStation,
			Amount:      item.ResolveAmount(),
		})
	}
	return lines
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
