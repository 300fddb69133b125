package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/priceless/backend/internal/domain"
	"github.com/priceless/backend/internal/observability"
)

// requiredColumns must exist in a market table for it to be usable.
var requiredColumns = []string{"id", "name", "price"}

// optionalColumns are selected when present and substituted with NULL
// otherwise, so markets with sparse schemas still load.
var optionalColumns = []string{
	"normalized_name", "canonical_name", "high_price", "in_stock",
	"product_link", "image_url", "main_category", "date",
}

// CatalogOptions tunes batching and retry behavior for catalog writes.
type CatalogOptions struct {
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
	Metrics      *observability.Metrics
}

func (o CatalogOptions) withDefaults() CatalogOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = 1000
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 500 * time.Millisecond
	}
	return o
}

// Catalog is the Postgres-backed implementation of domain.Catalog for one
// market's product table.
type Catalog struct {
	db       *sql.DB
	table    string
	marketID string
	opts     CatalogOptions
}

// NewCatalog wraps one market product table. The market id is the table
// name with the discovery suffix removed ("a101_products" -> "a101").
func NewCatalog(db *sql.DB, table, suffix string, opts CatalogOptions) *Catalog {
	return &Catalog{
		db:       db,
		table:    table,
		marketID: strings.TrimSuffix(table, suffix),
		opts:     opts.withDefaults(),
	}
}

// DiscoverCatalogs finds market product tables by the configured naming
// convention (suffix match in the public schema), so new markets are
// onboarded by convention alone. Results are ordered by table name for
// deterministic processing order.
func DiscoverCatalogs(ctx context.Context, db *sql.DB, suffix string, opts CatalogOptions) ([]*Catalog, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name LIKE '%' || $1
		ORDER BY table_name
	`, suffix)
	if err != nil {
		return nil, fmt.Errorf("discovering market tables: %w", err)
	}
	defer rows.Close()

	var catalogs []*Catalog
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		catalogs = append(catalogs, NewCatalog(db, table, suffix, opts))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating market tables: %w", err)
	}

	return catalogs, nil
}

// MarketID returns the stable key identifying this market.
func (c *Catalog) MarketID() string {
	return c.marketID
}

// Table returns the underlying table name, for logging.
func (c *Catalog) Table() string {
	return c.table
}

// EnsureDerivedColumns verifies the table has the minimum required columns
// and idempotently adds the derived normalized_name and canonical_name
// columns when absent.
func (c *Catalog) EnsureDerivedColumns(ctx context.Context) error {
	present, err := c.loadColumns(ctx)
	if err != nil {
		return err
	}

	for _, column := range requiredColumns {
		if !present[column] {
			return fmt.Errorf("table %s is missing required column %q", c.table, column)
		}
	}

	for _, column := range []string{"normalized_name", "canonical_name"} {
		if present[column] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT",
			pq.QuoteIdentifier(c.table), pq.QuoteIdentifier(column))
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("adding column %s to %s: %w", column, c.table, err)
		}
	}

	return nil
}

// FetchAll returns the full catalog snapshot for this market. Optional
// columns absent from the table are read as NULL; records with an
// unparseable price keep a nil price and are filtered downstream.
func (c *Catalog) FetchAll(ctx context.Context) ([]domain.RawProductRecord, error) {
	present, err := c.loadColumns(ctx)
	if err != nil {
		return nil, err
	}

	selects := make([]string, 0, len(requiredColumns)+len(optionalColumns))
	for _, column := range requiredColumns {
		selects = append(selects, pq.QuoteIdentifier(column))
	}
	for _, column := range optionalColumns {
		if present[column] {
			selects = append(selects, pq.QuoteIdentifier(column))
		} else {
			selects = append(selects, "NULL AS "+pq.QuoteIdentifier(column))
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), pq.QuoteIdentifier(c.table))
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetching records from %s: %w", c.table, err)
	}
	defer rows.Close()

	var records []domain.RawProductRecord
	for rows.Next() {
		var (
			id                    int64
			name                  sql.NullString
			price, highPrice      sql.NullString
			normalized, canonical sql.NullString
			inStock               sql.NullString
			link, image, category sql.NullString
			observed              sql.NullTime
		)
		if err := rows.Scan(
			&id, &name, &price,
			&normalized, &canonical, &highPrice, &inStock,
			&link, &image, &category, &observed,
		); err != nil {
			return nil, fmt.Errorf("scanning record from %s: %w", c.table, err)
		}

		record := domain.RawProductRecord{
			ID:             id,
			MarketID:       c.marketID,
			RawName:        name.String,
			NormalizedName: normalized.String,
			CanonicalName:  canonical.String,
			Price:          parsePrice(price),
			HighPrice:      parsePrice(highPrice),
			InStock:        parseInStock(inStock),
			ProductLink:    link.String,
			ImageURL:       image.String,
			MainCategory:   category.String,
		}
		if observed.Valid {
			record.ObservedDate = observed.Time
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records from %s: %w", c.table, err)
	}

	return records, nil
}

// UpdateNormalizedNames persists each record's normalized name by ID.
// Records that did not survive normalization are written as NULL.
func (c *Catalog) UpdateNormalizedNames(ctx context.Context, records []domain.RawProductRecord) (int, error) {
	updates := make([]rowUpdate, 0, len(records))
	for _, record := range records {
		updates = append(updates, rowUpdate{id: record.ID, value: record.NormalizedName})
	}

	stmt := fmt.Sprintf("UPDATE %s SET normalized_name = $1 WHERE id = $2", pq.QuoteIdentifier(c.table))
	return c.applyBatched(ctx, stmt, updates)
}

// UpdateCanonicalNames overwrites canonical_name on every record whose
// normalized name appears in the mapping. This is a full overwrite per run:
// re-running clustering on an updated catalog can reassign canonical names.
func (c *Catalog) UpdateCanonicalNames(ctx context.Context, mapping map[string]string) (int, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT id, normalized_name FROM %s WHERE normalized_name IS NOT NULL",
		pq.QuoteIdentifier(c.table)))
	if err != nil {
		return 0, fmt.Errorf("fetching normalized names from %s: %w", c.table, err)
	}
	defer rows.Close()

	var updates []rowUpdate
	for rows.Next() {
		var (
			id         int64
			normalized sql.NullString
		)
		if err := rows.Scan(&id, &normalized); err != nil {
			return 0, fmt.Errorf("scanning normalized name from %s: %w", c.table, err)
		}
		canonical, ok := mapping[normalized.String]
		if !ok {
			continue
		}
		updates = append(updates, rowUpdate{id: id, value: canonical})
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating normalized names from %s: %w", c.table, err)
	}

	stmt := fmt.Sprintf("UPDATE %s SET canonical_name = $1 WHERE id = $2", pq.QuoteIdentifier(c.table))
	return c.applyBatched(ctx, stmt, updates)
}

// rowUpdate sets one text column value for one record.
type rowUpdate struct {
	id    int64
	value string // empty means NULL
}

// applyBatched applies per-row updates in fixed-size batches, each inside
// its own transaction with an explicit commit boundary. A crash mid-run
// leaves earlier batches durably applied and only the in-flight batch lost.
// A failing batch is rolled back and retried with backoff; once retries are
// exhausted the error is returned with the count applied so far.
func (c *Catalog) applyBatched(ctx context.Context, stmt string, updates []rowUpdate) (int, error) {
	applied := 0
	for start := 0; start < len(updates); start += c.opts.BatchSize {
		end := start + c.opts.BatchSize
		if end > len(updates) {
			end = len(updates)
		}

		if err := c.applyBatchWithRetry(ctx, stmt, updates[start:end]); err != nil {
			c.opts.Metrics.IncBatchFailure()
			return applied, fmt.Errorf("batch %d-%d on %s: %w", start, end, c.table, err)
		}

		applied += end - start
		c.opts.Metrics.IncBatchCommitted()
	}

	return applied, nil
}

func (c *Catalog) applyBatchWithRetry(ctx context.Context, stmt string, batch []rowUpdate) error {
	var err error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[SYNC] retrying batch on %s (attempt %d/%d): %v",
				c.table, attempt, c.opts.MaxRetries, err)
			select {
			case <-time.After(c.opts.RetryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = c.applyBatch(ctx, stmt, batch); err == nil {
			return nil
		}
	}
	return err
}

func (c *Catalog) applyBatch(ctx context.Context, stmt string, batch []rowUpdate) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning batch transaction: %w", err)
	}

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing batch statement: %w", err)
	}
	defer prepared.Close()

	for _, update := range batch {
		value := sql.NullString{String: update.value, Valid: update.value != ""}
		if _, err := prepared.ExecContext(ctx, value, update.id); err != nil {
			tx.Rollback()
			return fmt.Errorf("updating record %d: %w", update.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// loadColumns returns the set of column names present on the table.
func (c *Catalog) loadColumns(ctx context.Context) (map[string]bool, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
	`, c.table)
	if err != nil {
		return nil, fmt.Errorf("loading columns for %s: %w", c.table, err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, fmt.Errorf("scanning column name for %s: %w", c.table, err)
		}
		present[column] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns for %s: %w", c.table, err)
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("table %s not found", c.table)
	}

	return present, nil
}

// parsePrice converts a raw price value to a non-negative float, returning
// nil for missing or unparseable values. Scraped tables sometimes store
// prices as text with a comma decimal separator.
func parsePrice(raw sql.NullString) *float64 {
	if !raw.Valid {
		return nil
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw.String, ",", "."))
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return nil
	}
	return &price
}

// parseInStock interprets the loosely-typed in_stock column.
func parseInStock(raw sql.NullString) bool {
	if !raw.Valid {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(raw.String)) {
	case "true", "t", "yes", "1":
		return true
	default:
		return false
	}
}
