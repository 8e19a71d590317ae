package report

// Template cell positions (based on the 経費精算書 template.xlsx structure).
// These coordinates are fixed by the template and must not drift.
const (
	// Parking total goes into a single slot, S10.
	parkingRow = 10
	parkingCol = 19

	// General ledger rows 11-29: B date, E vendor, H category, S amount.
	vendorRowStart = 11
	vendorRowEnd   = 29
	vendorDateCol  = 2
	vendorNameCol  = 5
	vendorCatCol   = 8
	vendorAmtCol   = 19

	// IC-transport rows 7-24: Z date, AA vendor, AB origin, AD destination,
	// AE amount.
	transportRowStart = 7
	transportRowEnd   = 24
	transportDateCol  = 26
	transportVendCol  = 27
	transportFromCol  = 28
	transportToCol    = 30
	transportAmtCol   = 31

	// Submission date, D31.
	submitRow = 31
	submitCol = 4

	// Vendor names wrap with a line break every 7 characters so they fit
	// the merged E-column cell.
	vendorWrapWidth = 7
)
