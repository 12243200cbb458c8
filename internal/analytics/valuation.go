package analytics

// ValuationInput carries the per-share figures a buyback valuation needs.
type ValuationInput struct {
	Price                *float64
	BookValuePerShare    *float64
	TangibleBookPerShare *float64
	ReturnOnEquity       *float64
	RequiredReturn       float64
}

// Valuation holds the derived ratios. Each is nil when its inputs are.
type Valuation struct {
	PriceToBook          *float64
	PriceToTangibleBook  *float64
	ImpliedBuybackReturn *float64
	Rule72PaybackYears   *float64
	PremiumPaybackYears  *float64
	RedZoneThresholdPTBV *float64
	RedZoneDelta         *float64
}

// Valuate computes every valuation ratio from in.
func Valuate(in ValuationInput) Valuation {
	ptbv := Ratio(in.Price, in.TangibleBookPerShare)
	implied := ImpliedBuybackReturn(in.ReturnOnEquity, ptbv)
	threshold := RedZoneThreshold(in.ReturnOnEquity, in.RequiredReturn)
	return Valuation{
		PriceToBook:          Ratio(in.Price, in.BookValuePerShare),
		PriceToTangibleBook:  ptbv,
		ImpliedBuybackReturn: implied,
		Rule72PaybackYears:   Rule72PaybackYears(implied),
		PremiumPaybackYears:  PremiumPaybackYears(ptbv, in.ReturnOnEquity),
		RedZoneThresholdPTBV: threshold,
		RedZoneDelta:         RedZoneDelta(ptbv, threshold),
	}
}

// Ratio divides num by den. It is nil when either is missing or den is zero.
func Ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	return finite(*num / *den)
}

// ImpliedBuybackReturn is ROE/PTBV when PTBV is positive, otherwise raw ROE.
func ImpliedBuybackReturn(roe, ptbv *float64) *float64 {
	if roe == nil {
		return nil
	}
	if ptbv != nil && *ptbv > 0 {
		return finite(*roe / *ptbv)
	}
	r := *roe
	return &r
}

// Rule72PaybackYears is 72 over the implied return in percent, nil unless
// that return is positive.
func Rule72PaybackYears(implied *float64) *float64 {
	if implied == nil || *implied <= 0 {
		return nil
	}
	return finite(72 / (*implied * 100))
}

// PremiumPaybackYears is (PTBV-1)/ROE when trading above tangible book with a
// positive ROE, and 0 at or below tangible book.
func PremiumPaybackYears(ptbv, roe *float64) *float64 {
	if ptbv == nil {
		return nil
	}
	if *ptbv <= 1 {
		zero := 0.0
		return &zero
	}
	if roe == nil || *roe <= 0 {
		return nil
	}
	return finite((*ptbv - 1) / *roe)
}

// RedZoneThreshold is the PTBV at which the implied return equals the
// required return: ROE/required.
func RedZoneThreshold(roe *float64, required float64) *float64 {
	if roe == nil || required <= 0 {
		return nil
	}
	return finite(*roe / required)
}

// RedZoneDelta is how far PTBV sits above (positive) or below the threshold.
func RedZoneDelta(ptbv, threshold *float64) *float64 {
	if ptbv == nil || threshold == nil || *threshold == 0 {
		return nil
	}
	return finite(*ptbv / *threshold - 1)
}

// GoodwillRatio is total intangibles over stockholders' equity.
func GoodwillRatio(intangibles, equity *float64) *float64 {
	return Ratio(intangibles, equity)
}

// NormalizePriceToBook undoes a provider quirk where some price-to-book values
// arrive scaled by 100: values strictly between 40 and 1000 are divided by 100.
func NormalizePriceToBook(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if *v > 40 && *v < 1000 {
		return finite(*v / 100)
	}
	return finite(*v)
}
