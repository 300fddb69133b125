package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/priceless/backend/internal/domain"
)

// fakeStore is an in-memory domain.ComparisonStore recording swaps.
type fakeStore struct {
	comparisons []domain.PriceComparison
	replaceErr  error
	replaces    int
}

func (s *fakeStore) ReplaceAll(ctx context.Context, comparisons []domain.PriceComparison) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.comparisons = comparisons
	s.replaces++
	return nil
}

func (s *fakeStore) GetByCanonicalName(ctx context.Context, canonicalName string) (*domain.PriceComparison, error) {
	for i := range s.comparisons {
		if s.comparisons[i].CanonicalName == canonicalName {
			return &s.comparisons[i], nil
		}
	}
	return nil, domain.ErrComparisonNotFound
}

func (s *fakeStore) ListAll(ctx context.Context) ([]domain.PriceComparison, error) {
	return s.comparisons, nil
}

func rawRecord(id int64, market, raw string, p *float64) domain.RawProductRecord {
	return domain.RawProductRecord{ID: id, MarketID: market, RawName: raw, Price: p}
}

func testPipelineConfig() PipelineConfig {
	// Short synthetic corpora need a lower core threshold than production.
	return PipelineConfig{Clustering: ClusterConfig{Eps: 0.6, MinSamples: 2}}
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("end to end over three markets", func(t *testing.T) {
		m1 := &fakeCatalog{marketID: "a101", records: []domain.RawProductRecord{
			rawRecord(1, "a101", "Süt 1 L", price(20)),
			rawRecord(2, "a101", "Süt 1 L Tam Yağlı", price(25)),
		}}
		m2 := &fakeCatalog{marketID: "migros", records: []domain.RawProductRecord{
			rawRecord(3, "migros", "1 L Süt", price(22)),
			rawRecord(4, "migros", "Peynir", price(50)),
		}}
		broken := &fakeCatalog{marketID: "broken", fetchErr: errors.New("connection refused")}
		store := &fakeStore{}

		pipeline := NewPipeline([]domain.Catalog{m1, m2, broken}, store, nil, testPipelineConfig())
		report, err := pipeline.Run(ctx)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if report.MarketsProcessed != 2 || report.MarketsSkipped != 1 {
			t.Errorf("markets processed/skipped = %d/%d, want 2/1",
				report.MarketsProcessed, report.MarketsSkipped)
		}
		if report.DistinctNames != 3 {
			t.Errorf("distinctNames = %d, want 3", report.DistinctNames)
		}
		if report.Clusters != 1 || report.NoisePoints != 1 {
			t.Errorf("clusters/noise = %d/%d, want 1/1", report.Clusters, report.NoisePoints)
		}
		if report.Comparisons != 1 {
			t.Errorf("comparisons = %d, want 1", report.Comparisons)
		}

		// The two sut listings resolve to one comparison across both markets.
		if len(store.comparisons) != 1 {
			t.Fatalf("store holds %d comparisons, want 1", len(store.comparisons))
		}
		c := store.comparisons[0]
		if c.CanonicalName != "1 l sut" {
			t.Errorf("canonicalName = %q, want %q", c.CanonicalName, "1 l sut")
		}
		if c.NumMarkets != 2 || c.CheapestMarket != "a101" || c.MinPrice != 20 {
			t.Errorf("unexpected comparison: %+v", c)
		}

		// Canonical names were written back to both surviving markets.
		if m1.canonicalWrites != 1 || m2.canonicalWrites != 1 {
			t.Errorf("canonical writes = %d/%d, want 1/1", m1.canonicalWrites, m2.canonicalWrites)
		}
		for _, record := range m1.records {
			if record.CanonicalName != "1 l sut" {
				t.Errorf("record %d canonicalName = %q, want %q", record.ID, record.CanonicalName, "1 l sut")
			}
		}
		if report.RecordsSynced != 4 {
			t.Errorf("recordsSynced = %d, want 4", report.RecordsSynced)
		}
	})

	t.Run("rerun on identical input is idempotent", func(t *testing.T) {
		m1 := &fakeCatalog{marketID: "a101", records: []domain.RawProductRecord{
			rawRecord(1, "a101", "Süt 1 L", price(20)),
			rawRecord(2, "a101", "Süt 1 L Tam Yağlı", price(25)),
		}}
		m2 := &fakeCatalog{marketID: "migros", records: []domain.RawProductRecord{
			rawRecord(3, "migros", "1 L Süt", price(22)),
		}}
		store := &fakeStore{}

		pipeline := NewPipeline([]domain.Catalog{m1, m2}, store, nil, testPipelineConfig())
		if _, err := pipeline.Run(ctx); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		first := store.comparisons

		if _, err := pipeline.Run(ctx); err != nil {
			t.Fatalf("second run failed: %v", err)
		}

		if len(first) != len(store.comparisons) {
			t.Fatalf("comparison count changed between runs: %d vs %d", len(first), len(store.comparisons))
		}
		for i := range first {
			if first[i].CanonicalName != store.comparisons[i].CanonicalName ||
				first[i].MinPrice != store.comparisons[i].MinPrice {
				t.Errorf("comparison %d changed between runs: %+v vs %+v",
					i, first[i], store.comparisons[i])
			}
		}
	})

	t.Run("fails when every market is unusable", func(t *testing.T) {
		broken := &fakeCatalog{marketID: "broken", fetchErr: errors.New("connection refused")}
		store := &fakeStore{}

		pipeline := NewPipeline([]domain.Catalog{broken}, store, nil, testPipelineConfig())
		_, err := pipeline.Run(ctx)

		if !errors.Is(err, domain.ErrNoNormalizedNames) {
			t.Errorf("err = %v, want ErrNoNormalizedNames", err)
		}
		if store.replaces != 0 {
			t.Error("store must stay untouched on a failed run")
		}
	})

	t.Run("fails when no names survive normalization", func(t *testing.T) {
		m1 := &fakeCatalog{marketID: "a101", records: []domain.RawProductRecord{
			rawRecord(1, "a101", "!!!", price(10)),
			rawRecord(2, "a101", "   ", price(11)),
		}}
		store := &fakeStore{}

		pipeline := NewPipeline([]domain.Catalog{m1}, store, nil, testPipelineConfig())
		_, err := pipeline.Run(ctx)

		if !errors.Is(err, domain.ErrNoNormalizedNames) {
			t.Errorf("err = %v, want ErrNoNormalizedNames", err)
		}
		if store.replaces != 0 {
			t.Error("store must stay untouched on a degenerate run")
		}
	})

	t.Run("identical names across markets compare even without clusters", func(t *testing.T) {
		// Two markets list the same milk under reordered names and a third
		// lists an unrelated product. The two milk listings normalize to one
		// name, which stays noise at the production core threshold; it must
		// still keep itself as canonical and yield the comparison.
		m1 := &fakeCatalog{marketID: "a101", records: []domain.RawProductRecord{
			rawRecord(1, "a101", "Süt 1 L", price(20)),
		}}
		m2 := &fakeCatalog{marketID: "migros", records: []domain.RawProductRecord{
			rawRecord(2, "migros", "1 l süt", price(22)),
		}}
		m3 := &fakeCatalog{marketID: "carrefour", records: []domain.RawProductRecord{
			rawRecord(3, "carrefour", "Peynir", price(50)),
		}}
		store := &fakeStore{}

		pipeline := NewPipeline([]domain.Catalog{m1, m2, m3}, store, nil, PipelineConfig{
			Clustering: ClusterConfig{Eps: 0.6, MinSamples: 4},
		})
		report, err := pipeline.Run(ctx)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if report.DistinctNames != 2 {
			t.Errorf("distinctNames = %d, want 2", report.DistinctNames)
		}
		if report.Clusters != 0 || report.NoisePoints != 2 {
			t.Errorf("clusters/noise = %d/%d, want 0/2", report.Clusters, report.NoisePoints)
		}
		if report.Comparisons != 1 {
			t.Errorf("comparisons = %d, want 1", report.Comparisons)
		}

		if len(store.comparisons) != 1 {
			t.Fatalf("store holds %d comparisons, want 1", len(store.comparisons))
		}
		c := store.comparisons[0]
		if c.CanonicalName != "1 l sut" {
			t.Errorf("canonicalName = %q, want %q", c.CanonicalName, "1 l sut")
		}
		if c.NumMarkets != 2 || c.CheapestMarket != "a101" {
			t.Errorf("unexpected comparison: %+v", c)
		}

		// The single-market peynir record got its identity canonical name
		// but no comparison.
		if m3.records[0].CanonicalName != "peynir" {
			t.Errorf("peynir canonicalName = %q, want peynir", m3.records[0].CanonicalName)
		}
	})

	t.Run("propagates comparison store failure", func(t *testing.T) {
		m1 := &fakeCatalog{marketID: "a101", records: []domain.RawProductRecord{
			rawRecord(1, "a101", "Süt 1 L", price(20)),
			rawRecord(2, "a101", "Süt 1 L Tam", price(21)),
		}}
		m2 := &fakeCatalog{marketID: "migros", records: []domain.RawProductRecord{
			rawRecord(3, "migros", "1 L Süt", price(22)),
		}}
		store := &fakeStore{replaceErr: errors.New("disk full")}

		pipeline := NewPipeline([]domain.Catalog{m1, m2}, store, nil, testPipelineConfig())
		_, err := pipeline.Run(ctx)

		if err == nil {
			t.Fatal("expected error from store failure")
		}
	})
}
