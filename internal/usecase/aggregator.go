package usecase

import (
	"sort"

	"github.com/priceless/backend/internal/domain"
)

// AggregateComparisons derives the price comparison set from canonicalized
// records. Records are grouped by (canonicalName, marketId) taking the
// minimum price per group (a market may carry several SKUs mapped to the
// same canonical product), then per-market minimums are grouped by canonical
// name. Canonical names seen in fewer than two distinct markets yield no
// comparison. Records without a canonical name or a usable price are skipped.
//
// The output is sorted by priceDiffPercent descending, biggest arbitrage
// opportunities first.
func AggregateComparisons(records []domain.RawProductRecord) []domain.PriceComparison {
	type groupKey struct {
		canonical string
		market    string
	}

	minPrices := make(map[groupKey]float64)
	canonicalOrder := []string{}
	marketOrder := make(map[string][]string) // first-seen market order per canonical name

	for _, record := range records {
		if record.CanonicalName == "" || !record.HasPrice() {
			continue
		}

		key := groupKey{canonical: record.CanonicalName, market: record.MarketID}
		price, seen := minPrices[key]
		if !seen {
			if _, known := marketOrder[record.CanonicalName]; !known {
				canonicalOrder = append(canonicalOrder, record.CanonicalName)
			}
			marketOrder[record.CanonicalName] = append(marketOrder[record.CanonicalName], record.MarketID)
			minPrices[key] = *record.Price
			continue
		}
		if *record.Price < price {
			minPrices[key] = *record.Price
		}
	}

	var comparisons []domain.PriceComparison
	for _, canonical := range canonicalOrder {
		markets := marketOrder[canonical]
		if len(markets) < 2 {
			continue // single-market products yield no comparison
		}

		marketPrices := make([]domain.MarketPrice, 0, len(markets))
		for _, market := range markets {
			marketPrices = append(marketPrices, domain.MarketPrice{
				MarketID: market,
				Price:    minPrices[groupKey{canonical: canonical, market: market}],
			})
		}

		comparisons = append(comparisons, buildComparison(canonical, marketPrices))
	}

	// Presentation policy, not an invariant: biggest spread first, with the
	// canonical name as a deterministic tie-break.
	sort.SliceStable(comparisons, func(i, j int) bool {
		if comparisons[i].PriceDiffPercent != comparisons[j].PriceDiffPercent {
			return comparisons[i].PriceDiffPercent > comparisons[j].PriceDiffPercent
		}
		return comparisons[i].CanonicalName < comparisons[j].CanonicalName
	})

	return comparisons
}

// buildComparison computes the spread statistics for one canonical product
// from its per-market minimum prices. Cheapest and most expensive markets
// are resolved by ranking minimums with ties broken by first-seen market.
// The percent spread is zero when the minimum price is zero.
func buildComparison(canonicalName string, marketPrices []domain.MarketPrice) domain.PriceComparison {
	minPrice := marketPrices[0].Price
	maxPrice := marketPrices[0].Price
	cheapest := marketPrices[0].MarketID
	mostExpensive := marketPrices[0].MarketID

	for _, mp := range marketPrices[1:] {
		if mp.Price < minPrice {
			minPrice = mp.Price
			cheapest = mp.MarketID
		}
		if mp.Price > maxPrice {
			maxPrice = mp.Price
			mostExpensive = mp.MarketID
		}
	}

	priceDiff := maxPrice - minPrice
	priceDiffPercent := 0.0
	if minPrice > 0 {
		priceDiffPercent = priceDiff / minPrice * 100
	}

	return domain.PriceComparison{
		CanonicalName:       canonicalName,
		MarketPrices:        marketPrices,
		MinPrice:            minPrice,
		MaxPrice:            maxPrice,
		PriceDiff:           priceDiff,
		PriceDiffPercent:    priceDiffPercent,
		CheapestMarket:      cheapest,
		MostExpensiveMarket: mostExpensive,
		NumMarkets:          len(marketPrices),
	}
}

// ComputeMarketStats counts, per market, how often it is the cheapest or the
// most expensive source across the comparison set. Markets that never win or
// lose still appear with zero counts.
func ComputeMarketStats(comparisons []domain.PriceComparison, markets []string) []domain.MarketStats {
	stats := make([]domain.MarketStats, len(markets))
	index := make(map[string]int, len(markets))
	for i, market := range markets {
		stats[i] = domain.MarketStats{MarketID: market}
		index[market] = i
	}

	for _, comparison := range comparisons {
		if i, ok := index[comparison.CheapestMarket]; ok {
			stats[i].TimesCheapest++
		}
		if i, ok := index[comparison.MostExpensiveMarket]; ok {
			stats[i].TimesMostExpensive++
		}
	}

	if total := len(comparisons); total > 0 {
		for i := range stats {
			stats[i].PercentCheapest = float64(stats[i].TimesCheapest) / float64(total) * 100
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TimesCheapest != stats[j].TimesCheapest {
			return stats[i].TimesCheapest > stats[j].TimesCheapest
		}
		return stats[i].MarketID < stats[j].MarketID
	})

	return stats
}

// CheapestOffers returns the single lowest-priced record per canonical name
// across all markets, sorted by canonical name. Unlike comparisons, a
// product present in only one market still yields an offer.
func CheapestOffers(records []domain.RawProductRecord) []domain.CheapestOffer {
	best := make(map[string]domain.RawProductRecord)
	var order []string

	for _, record := range records {
		if record.CanonicalName == "" || !record.HasPrice() {
			continue
		}
		current, seen := best[record.CanonicalName]
		if !seen {
			best[record.CanonicalName] = record
			order = append(order, record.CanonicalName)
			continue
		}
		if *record.Price < *current.Price {
			best[record.CanonicalName] = record
		}
	}

	sort.Strings(order)

	offers := make([]domain.CheapestOffer, 0, len(order))
	for _, canonical := range order {
		record := best[canonical]
		offers = append(offers, domain.CheapestOffer{
			CanonicalName: canonical,
			MarketID:      record.MarketID,
			RawName:       record.RawName,
			Price:         *record.Price,
			ProductLink:   record.ProductLink,
			ImageURL:      record.ImageURL,
			InStock:       record.InStock,
		})
	}

	return offers
}
