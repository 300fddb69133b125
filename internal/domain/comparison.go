package domain

// MarketPrice is one market's minimum price for a canonical product.
type MarketPrice struct {
	MarketID string  `json:"marketId"`
	Price    float64 `json:"price"`
}

// PriceComparison is the materialized price spread for one canonical product
// observed in at least two markets. The set is rebuilt wholesale on every
// aggregation run.
type PriceComparison struct {
	CanonicalName       string        `json:"canonicalName"`
	MarketPrices        []MarketPrice `json:"marketPrices"`
	MinPrice            float64       `json:"minPrice"`
	MaxPrice            float64       `json:"maxPrice"`
	PriceDiff           float64       `json:"priceDiff"`
	PriceDiffPercent    float64       `json:"priceDiffPercent"`
	CheapestMarket      string        `json:"cheapestMarket"`
	MostExpensiveMarket string        `json:"mostExpensiveMarket"`
	NumMarkets          int           `json:"numMarkets"`
}

// MarketStats summarizes how often a market wins or loses a comparison.
type MarketStats struct {
	MarketID           string  `json:"marketId"`
	TimesCheapest      int     `json:"timesCheapest"`
	TimesMostExpensive int     `json:"timesMostExpensive"`
	PercentCheapest    float64 `json:"percentCheapest"`
}

// CheapestOffer is the single lowest-priced record for a canonical product
// across all markets.
type CheapestOffer struct {
	CanonicalName string  `json:"canonicalName"`
	MarketID      string  `json:"marketId"`
	RawName       string  `json:"rawName"`
	Price         float64 `json:"price"`
	ProductLink   string  `json:"productLink,omitempty"`
	ImageURL      string  `json:"imageUrl,omitempty"`
	InStock       bool    `json:"inStock"`
}
