package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/priceless/backend/internal/domain"
)

const (
	comparisonTable       = "price_comparison"
	comparisonShadowTable = "price_comparison_new"
)

// ComparisonStore persists the derived price comparison table in Postgres.
//
// ReplaceAll builds the next generation in a shadow table and swaps it in
// with a single transactional rename, so readers always see either the
// previous complete result set or the new one, never a partial write.
type ComparisonStore struct {
	db *sql.DB
}

func NewComparisonStore(db *sql.DB) *ComparisonStore {
	return &ComparisonStore{db: db}
}

// ReplaceAll atomically replaces the comparison table contents.
func (s *ComparisonStore) ReplaceAll(ctx context.Context, comparisons []domain.PriceComparison) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+comparisonShadowTable); err != nil {
		return fmt.Errorf("dropping stale shadow table: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE `+comparisonShadowTable+` (
			canonical_name        TEXT PRIMARY KEY,
			market_prices         TEXT NOT NULL,
			min_price             DOUBLE PRECISION NOT NULL,
			max_price             DOUBLE PRECISION NOT NULL,
			price_diff            DOUBLE PRECISION NOT NULL,
			price_diff_percent    DOUBLE PRECISION NOT NULL,
			cheapest_market       TEXT NOT NULL,
			most_expensive_market TEXT NOT NULL,
			num_markets           INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating shadow table: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning comparison insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO `+comparisonShadowTable+` (
			canonical_name, market_prices, min_price, max_price,
			price_diff, price_diff_percent, cheapest_market,
			most_expensive_market, num_markets
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing comparison insert: %w", err)
	}
	defer stmt.Close()

	for _, comparison := range comparisons {
		marketPrices, err := json.Marshal(comparison.MarketPrices)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encoding market prices for %q: %w", comparison.CanonicalName, err)
		}
		_, err = stmt.ExecContext(ctx,
			comparison.CanonicalName, string(marketPrices),
			comparison.MinPrice, comparison.MaxPrice,
			comparison.PriceDiff, comparison.PriceDiffPercent,
			comparison.CheapestMarket, comparison.MostExpensiveMarket,
			comparison.NumMarkets,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting comparison for %q: %w", comparison.CanonicalName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing comparison inserts: %w", err)
	}

	swap, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning comparison swap: %w", err)
	}
	if _, err := swap.ExecContext(ctx, "DROP TABLE IF EXISTS "+comparisonTable); err != nil {
		swap.Rollback()
		return fmt.Errorf("dropping previous comparison table: %w", err)
	}
	if _, err := swap.ExecContext(ctx,
		"ALTER TABLE "+comparisonShadowTable+" RENAME TO "+comparisonTable); err != nil {
		swap.Rollback()
		return fmt.Errorf("renaming shadow table: %w", err)
	}
	if err := swap.Commit(); err != nil {
		return fmt.Errorf("committing comparison swap: %w", err)
	}

	return nil
}

// GetByCanonicalName returns the comparison for one canonical product.
func (s *ComparisonStore) GetByCanonicalName(ctx context.Context, canonicalName string) (*domain.PriceComparison, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT canonical_name, market_prices, min_price, max_price,
		       price_diff, price_diff_percent, cheapest_market,
		       most_expensive_market, num_markets
		FROM `+comparisonTable+`
		WHERE canonical_name = $1
	`, canonicalName)

	comparison, err := scanComparison(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrComparisonNotFound
		}
		return nil, fmt.Errorf("fetching comparison for %q: %w", canonicalName, err)
	}
	return comparison, nil
}

// ListAll returns every comparison, largest relative price spread first.
func (s *ComparisonStore) ListAll(ctx context.Context) ([]domain.PriceComparison, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT canonical_name, market_prices, min_price, max_price,
		       price_diff, price_diff_percent, cheapest_market,
		       most_expensive_market, num_markets
		FROM `+comparisonTable+`
		ORDER BY price_diff_percent DESC, canonical_name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing comparisons: %w", err)
	}
	defer rows.Close()

	var comparisons []domain.PriceComparison
	for rows.Next() {
		comparison, err := scanComparison(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning comparison: %w", err)
		}
		comparisons = append(comparisons, *comparison)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comparisons: %w", err)
	}

	return comparisons, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComparison(row rowScanner) (*domain.PriceComparison, error) {
	var (
		comparison   domain.PriceComparison
		marketPrices string
	)
	err := row.Scan(
		&comparison.CanonicalName, &marketPrices,
		&comparison.MinPrice, &comparison.MaxPrice,
		&comparison.PriceDiff, &comparison.PriceDiffPercent,
		&comparison.CheapestMarket, &comparison.MostExpensiveMarket,
		&comparison.NumMarkets,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(marketPrices), &comparison.MarketPrices); err != nil {
		return nil, fmt.Errorf("decoding market prices: %w", err)
	}
	return &comparison, nil
}
