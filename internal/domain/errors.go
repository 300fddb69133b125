package domain

import "errors"

var (
	// ErrComparisonNotFound is returned when no comparison exists for a canonical name
	ErrComparisonNotFound = errors.New("price comparison not found")

	// ErrNotMultiMarket is returned when a keyword query matched in fewer than two markets
	ErrNotMultiMarket = errors.New("product not found in multiple markets")

	// ErrInvalidQuery is returned when a match query is empty or unusable
	ErrInvalidQuery = errors.New("invalid match query")

	// ErrNoNormalizedNames is returned when a clustering run sees zero distinct normalized names
	ErrNoNormalizedNames = errors.New("no normalized names available for clustering")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
