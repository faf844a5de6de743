package appraisal

// UnknownCategory is the category reported when the item could not be classified.
const UnknownCategory = "Unknown"

// DefaultCurrency is the currency of every price summary produced today.
const DefaultCurrency = "USD"

// IdentificationResult is what the identification service could tell about an
// item. Empty strings mean the field was not identified. Category is always set.
type IdentificationResult struct {
	Brand          string `json:"brand,omitempty"`
	Model          string `json:"model,omitempty"`
	Condition      string `json:"condition,omitempty"`
	Color          string `json:"color,omitempty"`
	Category       string `json:"category"`
	RawDescription string `json:"raw_description,omitempty"`
}

// CategoryOrUnknown returns the category, or UnknownCategory when it is blank.
func (r IdentificationResult) CategoryOrUnknown() string {
	if r.Category == "" {
		return UnknownCategory
	}
	return r.Category
}

// HasKnownCategory reports whether the category carries any information.
func (r IdentificationResult) HasKnownCategory() bool {
	return r.Category != "" && r.Category != UnknownCategory
}

// RawPrice is a single listing price as returned by a shopping source, before
// parsing. Extracted is preferred when the source already parsed the price.
type RawPrice struct {
	Extracted *float64
	Text      string
}

// PriceValue returns a RawPrice holding an already numeric price.
func PriceValue(v float64) RawPrice {
	return RawPrice{Extracted: &v}
}

// PriceText returns a RawPrice holding a display price such as "$149.99".
func PriceText(s string) RawPrice {
	return RawPrice{Text: s}
}

// PriceSummary is the outcome of the price statistics engine. Low, High and
// Average are nil when SampleCount is zero.
type PriceSummary struct {
	Low         *float64 `json:"low,omitempty"`
	High        *float64 `json:"high,omitempty"`
	Average     *float64 `json:"average,omitempty"`
	Currency    string   `json:"currency"`
	SampleCount int      `json:"sample_count"`
}

// HasAverage reports whether an average price is available.
func (s PriceSummary) HasAverage() bool {
	return s.Average != nil
}

// RarityTier classifies how hard an item is to come by.
type RarityTier string

const (
	RarityCommon    RarityTier = "Common"
	RarityUncommon  RarityTier = "Uncommon"
	RarityRare      RarityTier = "Rare"
	RarityEpic      RarityTier = "Epic"
	RarityLegendary RarityTier = "Legendary"
	RarityUnknown   RarityTier = "Unknown"
)

// DemandTier classifies market activity for an item.
type DemandTier string

const (
	DemandLow    DemandTier = "Low"
	DemandMedium DemandTier = "Medium"
	DemandHigh   DemandTier = "High"
)

// AnalysisReport is the final appraisal returned to callers.
type AnalysisReport struct {
	ItemName        string     `json:"item_name"`
	EstimatedValue  string     `json:"estimated_value"`
	ConfidenceScore float64    `json:"confidence_score"`
	Description     string     `json:"description"`
	RarityTier      RarityTier `json:"rarity_score"`
	Category        string     `json:"category"`
	MarketDemand    DemandTier `json:"market_demand"`
	SourceCount     int        `json:"source_count"`
}
