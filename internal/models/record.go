package models

import "time"

// Record is one extracted receipt as returned by the analysis service and
// stored per user. Amounts are JPY in whole yen.
type Record struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"-" db:"user_id"`
	Date          string    `json:"date" db:"date"`
	VendorName    string    `json:"vendor_name" db:"vendor_name"`
	TotalAmount   int64     `json:"total_amount" db:"total_amount"`
	Category      string    `json:"category,omitempty" db:"category"`
	IsICTransport bool      `json:"is_ic_transport,omitempty" db:"is_ic_transport"`
	IsParking     bool      `json:"is_parking,omitempty" db:"is_parking"`
	Items         []SubItem `json:"items,omitempty" db:"-"`
	CreatedAt     time.Time `json:"created_at,omitempty" db:"created_at"`
}

// SubItem is one line of a multi-leg transport record. The analysis service
// is inconsistent about field names, so both spellings are accepted and
// resolved through the accessor methods.
type SubItem struct {
	Date        string `json:"date"`
	Vendor      string `json:"vendor,omitempty"`
	VendorName  string `json:"vendor_name,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
	TotalAmount int64  `json:"total_amount,omitempty"`
	FromStation string `json:"from_station,omitempty"`
	ToStation   string `json:"to_station,omitempty"`
}

// Defaults used when the analysis service omits a field.
const (
	DefaultVendorName = "不明"
	DefaultCategory   = "その他"
)

// VendorOrDefault returns the vendor name, or 不明 when empty.
func (r *Record) VendorOrDefault() string {
	if r.VendorName == "" {
		return DefaultVendorName
	}
	return r.VendorName
}

// CategoryOrDefault returns the category, or その他 when empty.
func (r *Record) CategoryOrDefault() string {
	if r.Category == "" {
		return DefaultCategory
	}
	return r.Category
}

// ResolveVendor picks the sub-item vendor, preferring vendor_name over
// vendor, falling back to the parent record's vendor.
func (s *SubItem) ResolveVendor(parent string) string {
	if s.VendorName != "" {
		return s.VendorName
	}
	if s.Vendor != "" {
		return s.Vendor
	}
	return parent
}

// ResolveAmount picks the sub-item amount, preferring total_amount over
// amount.
func (s *SubItem) ResolveAmount() int64 {
	if s.TotalAmount != 0 {
		return s.TotalAmount
	}
	return s.Amount
}
