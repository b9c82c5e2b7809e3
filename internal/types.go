package internal

// Row is one spreadsheet row keyed by column name. Cells may be strings,
// numbers or booleans depending on how the sheet was produced; missing cells
// are stored as "".
type Row map[string]any

// Sheet is a parsed worksheet. Column order and duplicate rows are preserved
// as they appear in the source file.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []Row
}

type SurchargeKind string

const (
	SurchargeFixed   SurchargeKind = "fixed"
	SurchargePercent SurchargeKind = "percent"
)

// CalcConfig drives one reconciliation run. Immutable during the run.
type CalcConfig struct {
	StockPercent     float64       `json:"stockPercent"`
	RetentionPercent float64       `json:"retentionPercent"`
	IncludeTaxes     bool          `json:"includeTaxes"`
	SurchargeAmount  float64       `json:"surchargeAmount"`
	SurchargeKind    SurchargeKind `json:"surchargeKind"`
	UseWeightTable   bool          `json:"useWeightTable"`
}

// WeightEntry maps a SKU to its shipping weight. SKU is the identity,
// last write wins.
type WeightEntry struct {
	SKU       string  `json:"sku"`
	Product   string  `json:"product"`
	WeightKg  float64 `json:"weight"`
	UpdatedAt string  `json:"updatedAt"`
}

// ShippingRate is one step of the piecewise shipping cost function. A set of
// rates is kept unordered in storage; lookup order is the engine's concern.
type ShippingRate struct {
	MaxWeightKg float64 `json:"maxWeight"`
	Cost        float64 `json:"cost"`
}

// FeeComponents is the parsed form of a marketplace fee expression such as
// "9.5% + 180". Percent is a fraction, Fixed an absolute amount.
type FeeComponents struct {
	Percent float64
	Fixed   float64
}

// ReconciledRow is one annotated output row of the reconciliation engine.
// Notes is "OK" or a " | "-joined list of warning tokens; a flagged row is
// still emitted with whatever values could be computed.
type ReconciledRow struct {
	SKU               string  `json:"sku"`
	ItemID            string  `json:"itemId"`
	Description       string  `json:"description"`
	RealStock         float64 `json:"realStock"`
	PublishedStock    int     `json:"publishedStock"`
	PrevMLStock       float64 `json:"prevMlStock"`
	Currency          string  `json:"currency"`
	BaseCost          float64 `json:"baseCost"`
	TargetTariff      float64 `json:"targetTariff"`
	FinalPrice        float64 `json:"finalPrice"`
	PrevMLPrice       float64 `json:"prevMlPrice"`
	SellingFee        float64 `json:"sellingFee"`
	FeePercent        float64 `json:"feePercent"`
	FeeFixed          float64 `json:"feeFixed"`
	FinancingPercent  float64 `json:"financingPercent"`
	FinancingCost     float64 `json:"financingCost"`
	RetentionCost     float64 `json:"retentionCost"`
	EstimatedTax      float64 `json:"estimatedTax"`
	NetReceipt        float64 `json:"netReceipt"`
	ListingType       string  `json:"listingType"`
	ShippingMethod    string  `json:"shippingMethod"`
	WeightKg          float64 `json:"weightKg"`
	ShippingSurcharge float64 `json:"shippingSurcharge"`
	Notes             string  `json:"notes"`
}

// Summary is the dashboard aggregate over one run's output.
type Summary struct {
	Total        int `json:"total"`
	Synced       int `json:"synced"`
	NotSynced    int `json:"notSynced"`
	PriceChanged int `json:"priceChanged"`
	StockChanged int `json:"stockChanged"`
	Warnings     int `json:"warnings"`
}

// RunRecord is one logged reconciliation run.
type RunRecord struct {
	ID        int
	TraceID   string
	MLFile    string
	OdooFile  string
	Counts    map[string]int
	Timings   map[string]float64
	CreatedAt string
}
