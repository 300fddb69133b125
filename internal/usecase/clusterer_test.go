package usecase

import (
	"reflect"
	"testing"
)

// matrixFor builds the distance matrix for a set of normalized names.
func matrixFor(names []string) [][]float64 {
	return CosineDistanceMatrix(FitTFIDF(names).Vectors)
}

func TestClustererFit(t *testing.T) {
	t.Run("groups near-identical names", func(t *testing.T) {
		names := []string{
			"1 l sut", "1 l sut tam", "1 l sut yagli",
			"beyaz peynir", "beyaz peynir tam", "beyaz peynir yagli",
		}
		clusterer := NewClusterer(ClusterConfig{Eps: 0.6, MinSamples: 2})
		labels := clusterer.Fit(matrixFor(names))

		if NumClusters(labels) != 2 {
			t.Fatalf("got %d clusters, want 2 (labels %v)", NumClusters(labels), labels)
		}
		if labels[0] != labels[1] || labels[1] != labels[2] {
			t.Errorf("sut variants not in one cluster: %v", labels)
		}
		if labels[3] != labels[4] || labels[4] != labels[5] {
			t.Errorf("peynir variants not in one cluster: %v", labels)
		}
		if labels[0] == labels[3] {
			t.Errorf("sut and peynir should be distinct clusters: %v", labels)
		}
	})

	t.Run("isolated names become noise", func(t *testing.T) {
		names := []string{"1 l sut", "1 l sut tam", "zeytin"}
		clusterer := NewClusterer(ClusterConfig{Eps: 0.6, MinSamples: 2})
		labels := clusterer.Fit(matrixFor(names))

		if labels[2] != NoiseLabel {
			t.Errorf("isolated name label = %d, want %d", labels[2], NoiseLabel)
		}
	})

	t.Run("sparse points stay noise below min samples", func(t *testing.T) {
		names := []string{"1 l sut", "beyaz peynir", "zeytin"}
		clusterer := NewClusterer(ClusterConfig{Eps: 0.6, MinSamples: 4})
		labels := clusterer.Fit(matrixFor(names))

		for i, label := range labels {
			if label != NoiseLabel {
				t.Errorf("labels[%d] = %d, want noise", i, label)
			}
		}
		if NumClusters(labels) != 0 {
			t.Errorf("NumClusters = %d, want 0", NumClusters(labels))
		}
	})

	t.Run("labels are deterministic across runs", func(t *testing.T) {
		names := []string{
			"1 l sut", "1 l sut tam", "1 l sut yagli",
			"beyaz peynir", "beyaz peynir tam",
		}
		matrix := matrixFor(names)
		clusterer := NewClusterer(ClusterConfig{Eps: 0.6, MinSamples: 2})

		first := clusterer.Fit(matrix)
		for run := 0; run < 5; run++ {
			if got := clusterer.Fit(matrix); !reflect.DeepEqual(got, first) {
				t.Fatalf("run %d labels %v differ from first %v", run, got, first)
			}
		}
	})

	t.Run("empty matrix yields no labels", func(t *testing.T) {
		clusterer := NewClusterer(ClusterConfig{})
		labels := clusterer.Fit(nil)

		if len(labels) != 0 {
			t.Errorf("got %d labels for empty input", len(labels))
		}
	})
}

func TestNewClustererDefaults(t *testing.T) {
	clusterer := NewClusterer(ClusterConfig{})

	if clusterer.eps != 0.6 {
		t.Errorf("default eps = %v, want 0.6", clusterer.eps)
	}
	if clusterer.minSamples != 4 {
		t.Errorf("default minSamples = %d, want 4", clusterer.minSamples)
	}
}

func TestAssignCanonicalNames(t *testing.T) {
	t.Run("shortest member wins", func(t *testing.T) {
		names := []string{"milk 1 l", "milk", "milk tam"}
		labels := []int{0, 0, 0}

		mapping := AssignCanonicalNames(names, labels)

		for _, name := range names {
			if mapping[name] != "milk" {
				t.Errorf("mapping[%q] = %q, want milk", name, mapping[name])
			}
		}
	})

	t.Run("length ties break lexicographically", func(t *testing.T) {
		names := []string{"ba", "ab"}
		labels := []int{0, 0}

		mapping := AssignCanonicalNames(names, labels)

		if mapping["ba"] != "ab" || mapping["ab"] != "ab" {
			t.Errorf("tie break failed: %v", mapping)
		}
	})

	t.Run("noise keeps its own name", func(t *testing.T) {
		names := []string{"milk", "zeytin"}
		labels := []int{0, NoiseLabel}

		mapping := AssignCanonicalNames(names, labels)

		if mapping["zeytin"] != "zeytin" {
			t.Errorf("mapping[zeytin] = %q, want zeytin", mapping["zeytin"])
		}
	})

	t.Run("mapping is total", func(t *testing.T) {
		names := []string{"a", "b", "c", "d"}
		labels := []int{0, 0, NoiseLabel, 1}

		mapping := AssignCanonicalNames(names, labels)

		if len(mapping) != len(names) {
			t.Fatalf("mapping size = %d, want %d", len(mapping), len(names))
		}
		for _, name := range names {
			if _, ok := mapping[name]; !ok {
				t.Errorf("name %q missing from mapping", name)
			}
		}
	})
}
