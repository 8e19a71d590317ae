package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fujishima/keihi/internal/models"
)

// csvHeader matches the stored record fields, one row per receipt.
var csvHeader = []string{"date", "vendor_name", "category", "total_amount", "is_ic_transport", "is_parking"}

// WriteCSV writes the flat record table. The output is prefixed with a UTF-8
// BOM so Excel opens Japanese text correctly.
func WriteCSV(w io.Writer, records []*models.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.Date,
			rec.VendorName,
			rec.CategoryOrDefault(),
			strconv.FormatInt(rec.TotalAmount, 10),
			strconv.FormatBool(rec.IsICTransport),
			strconv.FormatBool(rec.IsParking),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
