package report

import (
	"sort"
	"strings"
	"time"

	"github.com/fujishima/keihi/internal/receipt"
	"go.uber.org/zap"
)

// Cell is one (row, column, value) assignment on the template grid. The
// populator only decides what goes where; serialization belongs to the
// writers.
type Cell struct {
	Row   int
	Col   int
	Value any
}

// Result is the populated cell sequence plus how much was truncated by the
// section row ceilings.
type Result struct {
	Cells            []Cell
	DroppedVendors   int
	DroppedTransport int
}

// Populator maps an aggregated summary onto the template's fixed slots.
type Populator struct {
	logger *zap.Logger
}

// NewPopulator creates a populator.
func NewPopulator(logger *zap.Logger) *Populator {
	return &Populator{logger: logger}
}

// Populate lays the summary out on the grid. Section row ceilings are hard:
// overflow is dropped, never wrapped into another section, and the dropped
// counts are reported back so callers can tell the user.
func (p *Populator) Populate(sum *receipt.Summary, today time.Time) *Result {
	res := &Result{}

	// Parking is a single merged total; the slot stays empty at zero.
	if sum.ParkingTotal > 0 {
		res.add(parkingRow, parkingCol, sum.ParkingTotal)
	}

	row := vendorRowStart
	for _, agg := range sum.Vendors {
		if row > vendorRowEnd {
			res.DroppedVendors++
			continue
		}
		res.add(row, vendorDateCol, formatDisplayDate(latestDate(agg.Dates)))
		res.add(row, vendorNameCol, wrapVendorName(agg.Vendor))
		res.add(row, vendorCatCol, agg.Category)
		res.add(row, vendorAmtCol, agg.Amount)
		row++
	}

	row = transportRowStart
	for _, line := range sum.Transport {
		if row > transportRowEnd {
			res.DroppedTransport++
			continue
		}
		res.add(row, transportDateCol, formatDisplayDate(line.Date))
		res.add(row, transportVendCol, line.Vendor)
		res.add(row, transportFromCol, line.FromStation)
		res.add(row, transportToCol, line.ToStation)
		res.add(row, transportAmtCol, line.Amount)
		row++
	}

	res.add(submitRow, submitCol, today.Format("2006/01/02"))

	if res.DroppedVendors > 0 || res.DroppedTransport > 0 {
		p.logger.Warn("Report sections truncated at their row ceilings",
			zap.Int("dropped_vendors", res.DroppedVendors),
			zap.Int("dropped_transport", res.DroppedTransport))
	}

	return res
}

func (r *Result) add(row, col int, value any) {
	r.Cells = append(r.Cells, Cell{Row: row, Col: col, Value: value})
}

// latestDate returns the most recent date from an ascending-sorted list.
func latestDate(dates []string) string {
	if len(dates) == 0 {
		return ""
	}
	sorted := make([]string, len(dates))
	copy(sorted, dates)
	sort.Sort(sort.Reverse(sort.StringSlice(sorted)))
	return sorted[0]
}

// formatDisplayDate turns an ISO date into the YYYY/MM/DD form the template
// uses. Dates that never normalized cleanly are shown as-is.
func formatDisplayDate(date string) string {
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.Format("2006/01/02")
	}
	return date
}

// wrapVendorName inserts a line break every vendorWrapWidth runes so long
// vendor names fit the fixed-width cell.
func wrapVendorName(name string) string {
	runes := []rune(name)
	if len(runes) <= vendorWrapWidth {
		return name
	}
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && i%vendorWrapWidth == 0 {
			b.WriteByte('\n')
		}
		b.WriteRune(r)
	}
	return b.String()
}
