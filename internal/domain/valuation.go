package domain

// TickerMetrics is the buyback valuation summary for one insurer. Every
// numeric field is independently nullable.
type TickerMetrics struct {
	Ticker                    string   `json:"ticker"`
	Name                      string   `json:"name"`
	Currency                  string   `json:"currency"`
	Price                     *float64 `json:"price"`
	MarketCap                 *float64 `json:"marketCap"`
	SharesOutstanding         *float64 `json:"sharesOutstanding"`
	BookValuePerShare         *float64 `json:"bookValuePerShare"`
	TangibleBookValuePerShare *float64 `json:"tangibleBookValuePerShare"`
	PriceToBook               *float64 `json:"priceToBook"`
	PriceToTangibleBook       *float64 `json:"priceToTangibleBook"`
	ReturnOnEquity            *float64 `json:"returnOnEquity"`
	ImpliedBuybackReturn      *float64 `json:"impliedBuybackReturn"`
	Rule72PaybackYears        *float64 `json:"rule72PaybackYears"`
	PremiumPaybackYears       *float64 `json:"premiumPaybackYears"`
	GoodwillRatio             *float64 `json:"goodwillRatio"`
	RequiredReturnLabel       string   `json:"requiredReturnLabel"`
	RequiredReturn            float64  `json:"requiredReturn"`
	RedZoneThresholdPTBV      *float64 `json:"redZoneThresholdPTBV"`
	RedZoneDelta              *float64 `json:"redZoneDelta"`
	TotalEquity               *float64 `json:"totalEquity"`
	Goodwill                  *float64 `json:"goodwill"`
	IntangibleAssets          *float64 `json:"intangibleAssets"`
	NetIncome                 *float64 `json:"netIncome"`
	PayoutRatio               *float64 `json:"payoutRatio"`
	Beta                      *float64 `json:"beta"`
}

// RequiredReturn is a hurdle-rate bucket assigned to a ticker.
type RequiredReturn struct {
	Label          string  `json:"label" yaml:"label"`
	RequiredReturn float64 `json:"requiredReturn" yaml:"required_return"`
}
