package report

import (
	"fmt"
	"testing"
	"time"

	"github.com/fujishima/keihi/internal/receipt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func cellAt(t *testing.T, res *Result, row, col int) any {
	t.Helper()
	for _, c := range res.Cells {
		if c.Row == row && c.Col == col {
			return c.Value
		}
	}
	return nil
}

func TestPopulator_Populate(t *testing.T) {
	logger := zap.NewNop()
	today := time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)

	t.Run("writes parking total only when positive", func(t *testing.T) {
		p := NewPopulator(logger)

		res := p.Populate(&receipt.Summary{ParkingTotal: 1500}, today)
		assert.Equal(t, int64(1500), cellAt(t, res, 10, 19))

		res = p.Populate(&receipt.Summary{}, today)
		assert.Nil(t, cellAt(t, res, 10, 19))
	})

	t.Run("always writes the submission date", func(t *testing.T) {
		p := NewPopulator(logger)

		res := p.Populate(&receipt.Summary{}, today)
		assert.Equal(t, "2025/08/31", cellAt(t, res, 31, 4))
	})

	t.Run("lays vendor aggregates out from row 11", func(t *testing.T) {
		p := NewPopulator(logger)
		sum := &receipt.Summary{
			Vendors: []receipt.VendorAggregate{
				{Vendor: "Shop", Amount: 1000, Dates: []string{"2025-07-01", "2025-07-15"}, Category: "消耗品"},
				{Vendor: "Other", Amount: 300, Dates: []string{"2025-07-02"}, Category: "その他"},
			},
		}

		res := p.Populate(sum, today)

		// Most recent date, slash-formatted.
		assert.Equal(t, "2025/07/15", cellAt(t, res, 11, 2))
		assert.Equal(t, "Shop", cellAt(t, res, 11, 5))
		assert.Equal(t, "消耗品", cellAt(t, res, 11, 8))
		assert.Equal(t, int64(1000), cellAt(t, res, 11, 19))

		assert.Equal(t, "Other", cellAt(t, res, 12, 5))
	})

	t.Run("truncates vendors at the row ceiling", func(t *testing.T) {
		p := NewPopulator(logger)
		sum := &receipt.Summary{}
		for i := 0; i < 25; i++ {
			sum.Vendors = append(sum.Vendors, receipt.VendorAggregate{
				Vendor: fmt.Sprintf("Vendor%02d", i),
				Amount: int64(2500 - i*100),
			})
		}

		res := p.Populate(sum, today)

		// Rows 11-29 inclusive hold exactly 19 vendors.
		for i := 0; i < 19; i++ {
			assert.Equal(t, fmt.Sprintf("Vendor%02d", i), cellAt(t, res, 11+i, 5))
		}
		assert.Nil(t, cellAt(t, res, 30, 5))
		assert.Equal(t, 6, res.DroppedVendors)
	})

	t.Run("lays transport lines out from row 7", func(t *testing.T) {
		p := NewPopulator(logger)
		sum := &receipt.Summary{
			Transport: []receipt.TransportLineItem{
				{Date: "2025-07-03", Vendor: "名鉄", FromStation: "名古屋", ToStation: "金山", Amount: 270},
			},
		}

		res := p.Populate(sum, today)

		assert.Equal(t, "2025/07/03", cellAt(t, res, 7, 26))
		assert.Equal(t, "名鉄", cellAt(t, res, 7, 27))
		assert.Equal(t, "名古屋", cellAt(t, res, 7, 28))
		assert.Equal(t, "金山", cellAt(t, res, 7, 30))
		assert.Equal(t, int64(270), cellAt(t, res, 7, 31))
	})

	t.Run("truncates transport at the row ceiling", func(t *testing.T) {
		p := NewPopulator(logger)
		sum := &receipt.Summary{}
		for i := 0; i < 20; i++ {
			sum.Transport = append(sum.Transport, receipt.TransportLineItem{
				Date:   fmt.Sprintf("2025-07-%02d", 20-i),
				Amount: int64(100 + i),
			})
		}

		res := p.Populate(sum, today)

		// Rows 7-24 inclusive hold exactly 18 lines.
		require.NotNil(t, cellAt(t, res, 24, 26))
		assert.Nil(t, cellAt(t, res, 25, 26))
		assert.Equal(t, 2, res.DroppedTransport)
	})

	t.Run("malformed dates pass through to the grid", func(t *testing.T) {
		p := NewPopulator(logger)
		sum := &receipt.Summary{
			Vendors: []receipt.VendorAggregate{
				{Vendor: "Shop", Amount: 100, Dates: []string{"不明な日付"}},
			},
		}

		res := p.Populate(sum, today)
		assert.Equal(t, "不明な日付", cellAt(t, res, 11, 2))
	})
}

func TestWrapVendorName(t *testing.T) {
	assert.Equal(t, "short", wrapVendorName("short"))
	assert.Equal(t, "セブンイレブン", wrapVendorName("セブンイレブン")) // exactly 7 runes
	assert.Equal(t, "セブンイレブン\n名駅店", wrapVendorName("セブンイレブン名駅店"))
	assert.Equal(t, "ABCDEFG\nHIJKLMN\nOP", wrapVendorName("ABCDEFGHIJKLMNOP"))
}
