package domain

import "time"

// RawProductRecord is one row of a market's scraped catalog. Records are
// created by the scraping collaborator; this pipeline only ever fills in
// the two derived name fields.
type RawProductRecord struct {
	ID             int64     `json:"id"`
	MarketID       string    `json:"marketId"`
	RawName        string    `json:"rawName"`
	NormalizedName string    `json:"normalizedName,omitempty"` // derived, empty until normalization
	CanonicalName  string    `json:"canonicalName,omitempty"`  // derived, empty until sync
	Price          *float64  `json:"price,omitempty"`          // non-negative, nil when unparseable
	HighPrice      *float64  `json:"highPrice,omitempty"`      // reference "was" price, may be below Price
	InStock        bool      `json:"inStock"`
	ProductLink    string    `json:"productLink,omitempty"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	MainCategory   string    `json:"mainCategory,omitempty"`
	ObservedDate   time.Time `json:"observedDate,omitempty"`
}

// HasPrice reports whether the record carries a usable price.
func (r RawProductRecord) HasPrice() bool {
	return r.Price != nil && *r.Price >= 0
}

// MatchCandidate is one market's cheapest offer for an ad-hoc keyword query.
type MatchCandidate struct {
	MarketID string           `json:"marketId"`
	Product  RawProductRecord `json:"product"`
	Price    float64          `json:"price"`
}

// MatchResult is the on-the-fly comparison synthesized for a keyword query
// that matched in two or more markets.
type MatchResult struct {
	Query      string           `json:"query"`
	Candidates []MatchCandidate `json:"candidates"`
	Comparison PriceComparison  `json:"comparison"`
}
