package usecase

import (
	"log"
	"sort"
)

// NoiseLabel marks a point not reachable from any core point. A noise point
// keeps its own normalized name as its canonical name.
const NoiseLabel = -1

// ClusterConfig holds configuration for the density clusterer
type ClusterConfig struct {
	Eps                float64
	MinSamples         int
	EnableDebugLogging bool
}

// Clusterer groups normalized names into equivalence clusters by density,
// operating purely on a precomputed distance matrix.
type Clusterer struct {
	eps                float64
	minSamples         int
	enableDebugLogging bool
}

// NewClusterer creates a clusterer with the given configuration.
// Defaults were chosen empirically for short Turkish grocery names.
func NewClusterer(config ClusterConfig) *Clusterer {
	eps := config.Eps
	if eps <= 0 {
		eps = 0.6
	}

	minSamples := config.MinSamples
	if minSamples <= 0 {
		minSamples = 4
	}

	return &Clusterer{
		eps:                eps,
		minSamples:         minSamples,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Fit runs density clustering over the distance matrix and returns one label
// per point: a non-negative cluster id, or NoiseLabel. A point is a core
// point when at least minSamples points (itself included) lie within eps of
// it; clusters are the sets of points density-reachable from a core point.
// Points are visited in index order, so labels are deterministic for a fixed
// matrix and fixed parameters.
func (c *Clusterer) Fit(distances [][]float64) []int {
	n := len(distances)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = NoiseLabel
	}

	visited := make([]bool, n)
	clusterID := 0

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := c.regionQuery(distances, i)
		if len(neighbors) < c.minSamples {
			continue // stays noise unless border-reachable later
		}

		c.expandCluster(distances, i, neighbors, clusterID, labels, visited)
		clusterID++
	}

	if c.enableDebugLogging {
		log.Printf("[CLUSTER] eps=%.2f minSamples=%d points=%d clusters=%d noise=%d",
			c.eps, c.minSamples, n, clusterID, countLabel(labels, NoiseLabel))
	}

	return labels
}

// expandCluster grows a cluster from a core point by breadth-first
// expansion through density-reachable neighbors.
func (c *Clusterer) expandCluster(distances [][]float64, point int, neighbors []int, clusterID int, labels []int, visited []bool) {
	labels[point] = clusterID

	queue := append([]int(nil), neighbors...)
	for head := 0; head < len(queue); head++ {
		q := queue[head]

		if labels[q] == NoiseLabel {
			labels[q] = clusterID // border or core point joins the cluster
		}

		if visited[q] {
			continue
		}
		visited[q] = true

		qNeighbors := c.regionQuery(distances, q)
		if len(qNeighbors) >= c.minSamples {
			queue = append(queue, qNeighbors...)
		}
	}
}

// regionQuery returns the indices within eps of point, point itself included.
func (c *Clusterer) regionQuery(distances [][]float64, point int) []int {
	var neighbors []int
	for j, d := range distances[point] {
		if d <= c.eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

// NumClusters returns the number of distinct non-noise cluster labels.
func NumClusters(labels []int) int {
	max := -1
	for _, label := range labels {
		if label > max {
			max = label
		}
	}
	return max + 1
}

func countLabel(labels []int, target int) int {
	count := 0
	for _, label := range labels {
		if label == target {
			count++
		}
	}
	return count
}

// AssignCanonicalNames maps every normalized name to its canonical name.
// Within a cluster the canonical name is the shortest member by character
// count, ties broken lexicographically, so the same cluster always yields
// the same canonical name across re-runs. Noise points keep their own name.
// The resulting mapping is total: every input name gets a canonical name.
func AssignCanonicalNames(names []string, labels []int) map[string]string {
	members := make(map[int][]string)
	for i, label := range labels {
		if label != NoiseLabel {
			members[label] = append(members[label], names[i])
		}
	}

	canonical := make(map[int]string, len(members))
	for label, clusterNames := range members {
		sort.Slice(clusterNames, func(i, j int) bool {
			if len(clusterNames[i]) != len(clusterNames[j]) {
				return len(clusterNames[i]) < len(clusterNames[j])
			}
			return clusterNames[i] < clusterNames[j]
		})
		canonical[label] = clusterNames[0]
	}

	mapping := make(map[string]string, len(names))
	for i, label := range labels {
		if label == NoiseLabel {
			mapping[names[i]] = names[i]
		} else {
			mapping[names[i]] = canonical[label]
		}
	}

	return mapping
}
