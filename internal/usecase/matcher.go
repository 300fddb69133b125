package usecase

import (
	"context"
	"log"
	"strings"
	"unicode"

	"golang.org/x/text/transform"

	"github.com/priceless/backend/internal/domain"
)

// quantityTokens are unit and count tokens stripped from match queries.
// A query like "pınar süt 1 lt" should match against "sut" listings of any size.
var quantityTokens = map[string]bool{
	"ml": true, "l": true, "lt": true, "g": true, "gr": true, "kg": true,
	"ad": true, "adet": true, "x": true, "paket": true, "pkt": true,
}

// MatchServiceConfig holds configuration for the ad-hoc matcher
type MatchServiceConfig struct {
	EnableDebugLogging bool
}

// MatchService answers free-text price lookups for product names that have
// no precomputed canonical name. It bypasses the clustering pipeline and
// queries the raw per-market catalogs directly.
type MatchService struct {
	catalogs           []domain.Catalog
	enableDebugLogging bool
}

// NewMatchService creates a match service over the given market catalogs.
func NewMatchService(catalogs []domain.Catalog, config MatchServiceConfig) *MatchService {
	return &MatchService{
		catalogs:           catalogs,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// MatchByKeyword finds, per market, the cheapest product matching the query
// and synthesizes an on-the-fly comparison when at least two markets have a
// candidate. A market that errors during matching is skipped, never fatal.
// Returns ErrNotMultiMarket when fewer than two markets match.
func (s *MatchService) MatchByKeyword(ctx context.Context, query string) (*domain.MatchResult, error) {
	cleaned := CleanQuery(query)
	if cleaned == "" {
		return nil, domain.ErrInvalidQuery
	}

	keywords := keywordTokens(cleaned)

	if s.enableDebugLogging {
		log.Printf("[MATCH] query=%q cleaned=%q keywords=%v", query, cleaned, keywords)
	}

	var candidates []domain.MatchCandidate
	for _, catalog := range s.catalogs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		records, err := catalog.FetchAll(ctx)
		if err != nil {
			log.Printf("[MATCH] market %s unavailable, skipping: %v", catalog.MarketID(), err)
			continue
		}

		best, found := cheapestMatch(records, cleaned, keywords)
		if !found {
			continue
		}

		candidates = append(candidates, domain.MatchCandidate{
			MarketID: catalog.MarketID(),
			Product:  best,
			Price:    *best.Price,
		})
	}

	if len(candidates) < 2 {
		return nil, domain.ErrNotMultiMarket
	}

	marketPrices := make([]domain.MarketPrice, 0, len(candidates))
	for _, candidate := range candidates {
		marketPrices = append(marketPrices, domain.MarketPrice{
			MarketID: candidate.MarketID,
			Price:    candidate.Price,
		})
	}

	result := &domain.MatchResult{
		Query:      cleaned,
		Candidates: candidates,
		Comparison: buildComparison(cleaned, marketPrices),
	}

	if s.enableDebugLogging {
		log.Printf("[MATCH] %q matched in %d markets, cheapest=%s",
			cleaned, result.Comparison.NumMarkets, result.Comparison.CheapestMarket)
	}

	return result, nil
}

// cheapestMatch returns the lowest-priced record in one market that matches
// the cleaned query, guarding against a market contributing many
// near-duplicate matches.
func cheapestMatch(records []domain.RawProductRecord, cleaned string, keywords []string) (domain.RawProductRecord, bool) {
	var best domain.RawProductRecord
	found := false

	for _, record := range records {
		if !record.HasPrice() {
			continue
		}
		if !matches(record, cleaned, keywords) {
			continue
		}
		if !found || *record.Price < *best.Price {
			best = record
			found = true
		}
	}

	return best, found
}

// matches applies the candidate selection rules in order of strictness:
// exact match on normalized name, substring on normalized name, substring
// on raw name, then substring on any keyword from the cleaned query.
func matches(record domain.RawProductRecord, cleaned string, keywords []string) bool {
	normalized := record.NormalizedName
	rawLower := foldForMatch(record.RawName)

	if normalized == cleaned {
		return true
	}
	if normalized != "" && strings.Contains(normalized, cleaned) {
		return true
	}
	if strings.Contains(rawLower, cleaned) {
		return true
	}
	for _, keyword := range keywords {
		if normalized != "" && strings.Contains(normalized, keyword) {
			return true
		}
		if strings.Contains(rawLower, keyword) {
			return true
		}
	}
	return false
}

// CleanQuery applies the lighter query-time transform: lowercase, diacritic
// folding, and removal of quantity/unit tokens and standalone numbers.
// Unlike NormalizeName it preserves token order and does not strip brand
// suffixes, since interactive queries are already terse.
func CleanQuery(query string) string {
	name := strings.ToLowerSpecial(unicode.TurkishCase, query)
	name = dotlessFold.Replace(name)
	if folded, _, err := transform.String(asciiFold, name); err == nil {
		name = folded
	}
	name = nonAlphanumericOrSpaceRegex.ReplaceAllString(name, " ")

	tokens := strings.Fields(name)
	kept := tokens[:0]
	for _, token := range tokens {
		if quantityTokens[token] || isNumeric(token) {
			continue
		}
		kept = append(kept, token)
	}

	return collapseWhitespace(strings.Join(kept, " "))
}

// keywordTokens returns the cleaned query's tokens longer than two characters.
func keywordTokens(cleaned string) []string {
	var keywords []string
	for _, token := range strings.Fields(cleaned) {
		if len(token) > 2 {
			keywords = append(keywords, token)
		}
	}
	return keywords
}

// foldForMatch lowercases and diacritic-folds a raw name for substring checks.
func foldForMatch(s string) string {
	out := strings.ToLowerSpecial(unicode.TurkishCase, s)
	out = dotlessFold.Replace(out)
	if folded, _, err := transform.String(asciiFold, out); err == nil {
		out = folded
	}
	return out
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
