package repository

// MovementKind identifies what a ledger movement does to the balance.
// These are the canonical values; storage and business logic share them.
type MovementKind string

const (
	MovementEntryPurchase    MovementKind = "entry_purchase"
	MovementEntryDonation    MovementKind = "entry_donation"
	MovementUsageConsumption MovementKind = "usage_consumption"
	MovementUsageLoss        MovementKind = "usage_loss"
	// MovementAdjustment sets the balance to the movement quantity
	// instead of applying a delta. An absolute correction.
	MovementAdjustment MovementKind = "adjustment"
)

// IsEntry reports whether the kind adds to the balance
func (k MovementKind) IsEntry() bool {
	return k == MovementEntryPurchase || k == MovementEntryDonation
}

// IsUsage reports whether the kind subtracts from the balance
func (k MovementKind) IsUsage() bool {
	return k == MovementUsageConsumption || k == MovementUsageLoss
}

// Valid reports whether the kind is one of the canonical values
func (k MovementKind) Valid() bool {
	switch k {
	case MovementEntryPurchase, MovementEntryDonation,
		MovementUsageConsumption, MovementUsageLoss, MovementAdjustment:
		return true
	}
	return false
}

// AlertKind identifies the threshold condition an alert stands for
type AlertKind string

const (
	AlertLowStock     AlertKind = "low_stock"
	AlertStockOut     AlertKind = "stock_out"
	AlertExpiringSoon AlertKind = "expiring_soon"
)

// AlertSeverity ranks alerts for display and notification routing
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// ItemCategory groups supplies for filtering and code generation
type ItemCategory string

const (
	CategoryFeed         ItemCategory = "feed"
	CategoryVaccine      ItemCategory = "vaccine"
	CategoryMedicine     ItemCategory = "medicine"
	CategoryDisinfectant ItemCategory = "disinfectant"
	CategoryOther        ItemCategory = "other"
)

// Valid reports whether the category is one of the canonical values
func (c ItemCategory) Valid() bool {
	switch c {
	case CategoryFeed, CategoryVaccine, CategoryMedicine, CategoryDisinfectant, CategoryOther:
		return true
	}
	return false
}

// codePrefixes drive internal code generation on intake (FEE0001, VAC0012, ...)
var codePrefixes = map[ItemCategory]string{
	CategoryFeed:         "FEE",
	CategoryVaccine:      "VAC",
	CategoryMedicine:     "MED",
	CategoryDisinfectant: "DIS",
	CategoryOther:        "OTH",
}

// CodePrefix returns the three-letter internal code prefix for the category
func (c ItemCategory) CodePrefix() string {
	if p, ok := codePrefixes[c]; ok {
		return p
	}
	return "OTH"
}

// Trend classifies consumption direction over a report period
type Trend string

const (
	TrendGrowing Trend = "growing"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// CoverageStatus classifies how many days the current balance covers
type CoverageStatus string

const (
	CoverageOK       CoverageStatus = "ok"
	CoverageWarning  CoverageStatus = "warning"
	CoverageCritical CoverageStatus = "critical"
)
