package receipt

import (
	"math/rand"
	"testing"

	"github.com/fujishima/keihi/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	t.Run("sums parking into one total", func(t *testing.T) {
		b := &Buckets{
			Parking: []*models.Record{
				{VendorName: "タイムズ", TotalAmount: 800},
				{VendorName: "リパーク", TotalAmount: 400},
			},
		}

		s := Aggregate(b, DateDescending)

		assert.Equal(t, int64(1200), s.ParkingTotal)
		assert.Empty(t, s.Vendors)
		assert.Empty(t, s.Transport)
	})

	t.Run("groups general records by vendor", func(t *testing.T) {
		b := &Buckets{
			General: []*models.Record{
				{VendorName: "Shop", TotalAmount: 500, Date: "2025-07-01", Category: "消耗品"},
				{VendorName: "Shop", TotalAmount: 500, Date: "2025-07-15", Category: "雑費"},
				{VendorName: "Other", TotalAmount: 300, Date: "2025-07-02"},
			},
		}

		s := Aggregate(b, DateDescending)

		require.Len(t, s.Vendors, 2)
		shop := s.Vendors[0] // larger amount sorts first
		assert.Equal(t, "Shop", shop.Vendor)
		assert.Equal(t, int64(1000), shop.Amount)
		assert.ElementsMatch(t, []string{"2025-07-01", "2025-07-15"}, shop.Dates)
		// First non-empty category wins and is not overwritten.
		assert.Equal(t, "消耗品", shop.Category)

		other := s.Vendors[1]
		assert.Equal(t, "Other", other.Vendor)
		assert.Equal(t, models.DefaultCategory, other.Category)
	})

	t.Run("deduplicates dates and skips empty ones", func(t *testing.T) {
		b := &Buckets{
			General: []*models.Record{
				{VendorName: "Shop", TotalAmount: 100, Date: "2025-07-01"},
				{VendorName: "Shop", TotalAmount: 100, Date: "2025-07-01"},
				{VendorName: "Shop", TotalAmount: 100},
			},
		}

		s := Aggregate(b, DateDescending)

		require.Len(t, s.Vendors, 1)
		assert.Equal(t, []string{"2025-07-01"}, s.Vendors[0].Dates)
		assert.Equal(t, int64(300), s.Vendors[0].Amount)
	})

	t.Run("empty vendor names collapse under the default", func(t *testing.T) {
		b := &Buckets{
			General: []*models.Record{
				{TotalAmount: 100},
				{TotalAmount: 200},
			},
		}

		s := Aggregate(b, DateDescending)

		require.Len(t, s.Vendors, 1)
		assert.Equal(t, models.DefaultVendorName, s.Vendors[0].Vendor)
		assert.Equal(t, int64(300), s.Vendors[0].Amount)
	})

	t.Run("is independent of input order", func(t *testing.T) {
		records := []*models.Record{
			{VendorName: "A", TotalAmount: 100, Date: "2025-01-01"},
			{VendorName: "B", TotalAmount: 900, Date: "2025-02-01"},
			{VendorName: "A", TotalAmount: 250, Date: "2025-03-01"},
			{VendorName: "C", TotalAmount: 350, Date: "2025-04-01"},
			{VendorName: "タイムズ駐車場", TotalAmount: 700},
			{VendorName: "JR", TotalAmount: 180, IsICTransport: true, Date: "2025-05-01"},
		}

		reference := Aggregate(Partition(records), DateDescending)

		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 10; i++ {
			shuffled := make([]*models.Record, len(records))
			copy(shuffled, records)
			rng.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})

			got := Aggregate(Partition(shuffled), DateDescending)
			assert.Equal(t, reference.ParkingTotal, got.ParkingTotal)
			assert.Equal(t, reference.Vendors, got.Vendors)
			assert.Equal(t, reference.Transport, got.Transport)
		}
	})
}

func TestAggregate_TransportFlattening(t *testing.T) {
	t.Run("record without items yields one line", func(t *testing.T) {
		b := &Buckets{
			Transport: []*models.Record{
				{VendorName: "JR東海", TotalAmount: 1340, Date: "2025-07-10", IsICTransport: true},
			},
		}

		s := Aggregate(b, DateDescending)

		require.Len(t, s.Transport, 1)
		assert.Equal(t, "JR東海", s.Transport[0].Vendor)
		assert.Equal(t, int64(1340), s.Transport[0].Amount)
		assert.Empty(t, s.Transport[0].FromStation)
	})

	t.Run("record with three items yields three lines", func(t *testing.T) {
		b := &Buckets{
			Transport: []*models.Record{
				{
					VendorName: "名古屋市交通局", Date: "2025-07-01", IsICTransport: true,
					Items: []models.SubItem{
						{Date: "2025-07-01", Amount: 210, FromStation: "栄", ToStation: "名古屋"},
						{Date: "2025-07-02", TotalAmount: 270, Vendor: "名鉄", FromStation: "名古屋", ToStation: "金山"},
						{Date: "2025-07-03", Amount: 210, VendorName: "地下鉄", FromStation: "金山", ToStation: "栄"},
					},
				},
			},
		}

		s := Aggregate(b, DateAscending)

		require.Len(t, s.Transport, 3)
		// Vendor fallback: vendor_name, then vendor, then the parent record.
		assert.Equal(t, "名古屋市交通局", s.Transport[0].Vendor)
		assert.Equal(t, "名鉄", s.Transport[1].Vendor)
		assert.Equal(t, "地下鉄", s.Transport[2].Vendor)
		// Amount fallback: total_amount, then amount.
		assert.Equal(t, int64(270), s.Transport[1].Amount)
		assert.Equal(t, "金山", s.Transport[1].ToStation)
	})

	t.Run("sort order is configurable", func(t *testing.T) {
		b := &Buckets{
			Transport: []*models.Record{
				{Date: "2025-07-02", TotalAmount: 1, IsICTransport: true},
				{Date: "2025-07-01", TotalAmount: 2, IsICTransport: true},
				{Date: "2025-07-03", TotalAmount: 3, IsICTransport: true},
			},
		}

		desc := Aggregate(b, DateDescending)
		assert.Equal(t, []string{"2025-07-03", "2025-07-02", "2025-07-01"},
			[]string{desc.Transport[0].Date, desc.Transport[1].Date, desc.Transport[2].Date})

		asc := Aggregate(b, DateAscending)
		assert.Equal(t, []string{"2025-07-01", "2025-07-02", "2025-07-03"},
			[]string{asc.Transport[0].Date, asc.Transport[1].Date, asc.Transport[2].Date})
	})
}
