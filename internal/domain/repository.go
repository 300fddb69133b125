package domain

import (
	"context"
)

// Catalog provides access to one market's product records. One implementation
// exists per market source; new markets are onboarded by implementing this
// interface (or, for Postgres-backed markets, by the table naming convention).
type Catalog interface {
	// MarketID returns the stable key identifying the source market.
	MarketID() string

	// FetchAll returns the full catalog snapshot for this market.
	FetchAll(ctx context.Context) ([]RawProductRecord, error)

	// EnsureDerivedColumns idempotently prepares the store for the derived
	// normalized_name and canonical_name fields.
	EnsureDerivedColumns(ctx context.Context) error

	// UpdateNormalizedNames persists the NormalizedName of each given record,
	// keyed by record ID, in bounded batches.
	UpdateNormalizedNames(ctx context.Context, records []RawProductRecord) (int, error)

	// UpdateCanonicalNames overwrites canonical_name on every record whose
	// normalized name appears in the mapping, in bounded batches with a
	// commit boundary after each batch. Records without a normalized name
	// are left untouched. Returns the number of updated records.
	UpdateCanonicalNames(ctx context.Context, mapping map[string]string) (int, error)
}

// ComparisonStore persists the materialized price comparison set.
type ComparisonStore interface {
	// ReplaceAll atomically swaps the whole comparison set for a new one.
	// Readers never observe a half-updated state.
	ReplaceAll(ctx context.Context, comparisons []PriceComparison) error

	// GetByCanonicalName returns one comparison, or ErrComparisonNotFound.
	GetByCanonicalName(ctx context.Context, canonicalName string) (*PriceComparison, error)

	// ListAll returns every multi-market comparison, biggest spread first.
	ListAll(ctx context.Context) ([]PriceComparison, error)
}

// CacheRepository defines the interface for caching query-time results.
// The store owns its TTL and eviction policy.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
