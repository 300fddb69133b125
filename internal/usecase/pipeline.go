package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/priceless/backend/internal/domain"
	"github.com/priceless/backend/internal/observability"
)

// PipelineConfig holds configuration for a full reprocessing run
type PipelineConfig struct {
	Clustering         ClusterConfig
	EnableDebugLogging bool
}

// RunReport summarizes one pipeline run for logging and diagnostics.
type RunReport struct {
	MarketsProcessed  int
	MarketsSkipped    int
	RecordsFetched    int
	RecordsNormalized int
	DistinctNames     int
	Clusters          int
	NoisePoints       int
	RecordsSynced     int
	Comparisons       int
	Duration          time.Duration
}

// marketSnapshot is the immutable per-market working set for one run.
type marketSnapshot struct {
	catalog domain.Catalog
	records []domain.RawProductRecord
}

// Pipeline runs the offline batch job: fetch and normalize every market's
// catalog, cluster the union of distinct normalized names, write canonical
// names back per market, and rebuild the materialized comparison set.
//
// The pipeline is a single-writer job over a full catalog snapshot. Each
// phase produces an immutable intermediate result, and every external-I/O
// boundary follows catch-log-continue semantics: one market's failure never
// aborts the run, since partial results beat an all-or-nothing failure.
type Pipeline struct {
	catalogs           []domain.Catalog
	store              domain.ComparisonStore
	clusterer          *Clusterer
	metrics            *observability.Metrics
	enableDebugLogging bool
}

// NewPipeline creates a pipeline over the given catalogs and comparison store.
// metrics may be nil.
func NewPipeline(catalogs []domain.Catalog, store domain.ComparisonStore, metrics *observability.Metrics, config PipelineConfig) *Pipeline {
	return &Pipeline{
		catalogs:           catalogs,
		store:              store,
		clusterer:          NewClusterer(config.Clustering),
		metrics:            metrics,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Run executes one full reprocessing pass. Reruns with an identical input
// catalog are idempotent at the level of final state. When no normalized
// names survive, the run exits early with a diagnostic error and leaves
// previously assigned canonical names and the existing comparison set
// untouched. A run with zero clusters still completes: noise points keep
// their own names as canonical.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	start := time.Now()
	report := &RunReport{}

	// Phase 1: fetch and normalize, independently per market
	snapshots := p.collectSnapshots(ctx, report)
	if len(snapshots) == 0 {
		report.Duration = time.Since(start)
		return report, fmt.Errorf("no market catalogs usable: %w", domain.ErrNoNormalizedNames)
	}

	// Phase 2: the clustering unit is the union of all markets' distinct
	// normalized names, in deterministic first-seen order
	names := distinctNormalizedNames(snapshots)
	report.DistinctNames = len(names)
	if len(names) == 0 {
		report.Duration = time.Since(start)
		return report, domain.ErrNoNormalizedNames
	}
	log.Printf("[PIPELINE] %d distinct normalized names across %d markets", len(names), len(snapshots))

	// Phase 3: vectorize and build the distance matrix
	tfidf := FitTFIDF(names)
	distances := CosineDistanceMatrix(tfidf.Vectors)

	// Phase 4: density clustering
	labels := p.clusterer.Fit(distances)
	report.Clusters = NumClusters(labels)
	report.NoisePoints = countLabel(labels, NoiseLabel)
	p.metrics.SetClusteringStats(report.DistinctNames, report.Clusters, report.NoisePoints)
	log.Printf("[PIPELINE] %d clusters, %d noise points", report.Clusters, report.NoisePoints)

	// Zero clusters is not fatal: every name is noise, keeps itself as
	// canonical, and identical normalized names across markets still
	// produce comparisons.
	if report.Clusters == 0 {
		log.Printf("[PIPELINE] no clusters found, all %d names keep their own canonical name", report.DistinctNames)
	}

	// Phase 5: canonical name assignment (total mapping)
	mapping := AssignCanonicalNames(names, labels)

	// Phase 6: write canonical names back, market by market
	p.syncCanonicalNames(ctx, snapshots, mapping, report)

	// Phase 7: aggregate and swap in the new comparison set
	comparisons := AggregateComparisons(applyMapping(snapshots, mapping))
	report.Comparisons = len(comparisons)
	p.metrics.SetComparisonsBuilt(len(comparisons))

	if err := p.store.ReplaceAll(ctx, comparisons); err != nil {
		report.Duration = time.Since(start)
		return report, fmt.Errorf("replacing comparison set: %w", err)
	}

	report.Duration = time.Since(start)
	p.metrics.ObservePipelineDuration(report.Duration.Seconds())
	log.Printf("[PIPELINE] run complete: %d comparisons in %s", report.Comparisons, report.Duration)

	return report, nil
}

// collectSnapshots fetches and normalizes each market's catalog. The
// read/normalize phase is independent per market, so markets are processed
// concurrently; results keep registry order for determinism. A market that
// fails preparation, fetch, or normalized-name persistence is logged and
// dropped from the run.
func (p *Pipeline) collectSnapshots(ctx context.Context, report *RunReport) []marketSnapshot {
	results := make([]*marketSnapshot, len(p.catalogs))

	var wg sync.WaitGroup
	for i, catalog := range p.catalogs {
		wg.Add(1)
		go func(i int, catalog domain.Catalog) {
			defer wg.Done()
			snapshot, err := p.prepareMarket(ctx, catalog)
			if err != nil {
				log.Printf("[PIPELINE] skipping market %s: %v", catalog.MarketID(), err)
				p.metrics.IncMarketSkipped("prepare")
				return
			}
			results[i] = snapshot
		}(i, catalog)
	}
	wg.Wait()

	var snapshots []marketSnapshot
	for _, snapshot := range results {
		if snapshot == nil {
			report.MarketsSkipped++
			continue
		}
		report.MarketsProcessed++
		report.RecordsFetched += len(snapshot.records)
		for _, record := range snapshot.records {
			if record.NormalizedName != "" {
				report.RecordsNormalized++
			}
		}
		p.metrics.IncMarketProcessed()
		snapshots = append(snapshots, *snapshot)
	}
	p.metrics.AddRecordsNormalized(report.RecordsNormalized)

	return snapshots
}

// prepareMarket produces one market's normalized snapshot and persists the
// normalized names. Records whose raw name does not survive normalization
// keep an empty normalized name and are excluded from clustering.
func (p *Pipeline) prepareMarket(ctx context.Context, catalog domain.Catalog) (*marketSnapshot, error) {
	if err := catalog.EnsureDerivedColumns(ctx); err != nil {
		return nil, fmt.Errorf("preparing derived columns: %w", err)
	}

	records, err := catalog.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}

	normalized := 0
	for i := range records {
		name, ok := NormalizeName(records[i].RawName)
		if !ok {
			records[i].NormalizedName = ""
			continue
		}
		records[i].NormalizedName = name
		normalized++
	}

	if _, err := catalog.UpdateNormalizedNames(ctx, records); err != nil {
		return nil, fmt.Errorf("persisting normalized names: %w", err)
	}

	if p.enableDebugLogging {
		log.Printf("[PIPELINE] market %s: %d records, %d normalized",
			catalog.MarketID(), len(records), normalized)
	}

	return &marketSnapshot{catalog: catalog, records: records}, nil
}

// syncCanonicalNames applies the mapping to every market's store. One
// market's write failure is logged and skipped without aborting the rest.
func (p *Pipeline) syncCanonicalNames(ctx context.Context, snapshots []marketSnapshot, mapping map[string]string, report *RunReport) {
	for _, snapshot := range snapshots {
		updated, err := snapshot.catalog.UpdateCanonicalNames(ctx, mapping)
		report.RecordsSynced += updated
		if err != nil {
			log.Printf("[SYNC] market %s: canonical name sync failed after %d updates: %v",
				snapshot.catalog.MarketID(), updated, err)
			p.metrics.IncMarketSkipped("sync")
			continue
		}
		if p.enableDebugLogging {
			log.Printf("[SYNC] market %s: %d records updated", snapshot.catalog.MarketID(), updated)
		}
	}
}

// distinctNormalizedNames returns the union of normalized names across all
// snapshots, deduplicated, in first-seen order.
func distinctNormalizedNames(snapshots []marketSnapshot) []string {
	seen := make(map[string]bool)
	var names []string
	for _, snapshot := range snapshots {
		for _, record := range snapshot.records {
			if record.NormalizedName == "" || seen[record.NormalizedName] {
				continue
			}
			seen[record.NormalizedName] = true
			names = append(names, record.NormalizedName)
		}
	}
	return names
}

// applyMapping returns a flat copy of all snapshot records with canonical
// names resolved in memory, ready for aggregation.
func applyMapping(snapshots []marketSnapshot, mapping map[string]string) []domain.RawProductRecord {
	var records []domain.RawProductRecord
	for _, snapshot := range snapshots {
		for _, record := range snapshot.records {
			if canonical, ok := mapping[record.NormalizedName]; ok {
				record.CanonicalName = canonical
			}
			records = append(records, record)
		}
	}
	return records
}
