// Package valuation estimates catalog acquisition offers and runs the
// cost-control qualification cascade that decides whether an artist is worth
// enrichment budget.
package valuation

// Metrics are the streaming signals a valuation is derived from.
type Metrics struct {
	MonthlyListeners int64
	RecentStreams    int64
	TrackCount       int
}

// Estimate is a point offer with a negotiation band.
type Estimate struct {
	PointUSD float64 `json:"point_usd"`
	LowUSD   float64 `json:"low_usd"`
	HighUSD  float64 `json:"high_usd"`
}

// Valuate derives an acquisition offer from streaming metrics. Pure and
// total: zero metrics yield a zero estimate, never an error.
//
// Monthly streams drive the estimate; when the stream count is missing the
// listener count approximates it. Annualized royalty revenue times a catalog
// multiple band gives the offer.
func Valuate(m Metrics, r Rules) Estimate {
	monthlyStreams := float64(m.RecentStreams)
	if monthlyStreams <= 0 && m.MonthlyListeners > 0 {
		monthlyStreams = float64(m.MonthlyListeners) * r.ListenerStreamRatio
	}
	if monthlyStreams <= 0 {
		return Estimate{}
	}

	annualRevenue := monthlyStreams * r.RoyaltyPerStreamUSD * 12

	return Estimate{
		PointUSD: annualRevenue * r.CatalogMultiplePoint,
		LowUSD:   annualRevenue * r.CatalogMultipleLow,
		HighUSD:  annualRevenue * r.CatalogMultipleHigh,
	}
}
