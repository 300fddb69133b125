package usecase

import (
	"math"
	"strings"
)

// SparseVector is a TF-IDF feature vector keyed by vocabulary index.
// Product names are short, so most dimensions are zero and a map
// representation keeps the memory cost proportional to token count.
type SparseVector map[int]float64

// TFIDF holds a fitted vocabulary and one document vector per input name.
type TFIDF struct {
	Vocabulary map[string]int
	Vectors    []SparseVector
}

// FitTFIDF builds term-frequency/inverse-document-frequency vectors for the
// given normalized names. Every distinct whitespace-delimited token across
// all names is one feature dimension. IDF is smoothed so terms appearing in
// every document still get a small positive weight, and each vector is
// L2-normalized so cosine similarity reduces to a dot product.
func FitTFIDF(names []string) *TFIDF {
	vocabulary := make(map[string]int)
	docFrequency := make(map[int]int)
	termCounts := make([]map[int]int, len(names))

	for i, name := range names {
		counts := make(map[int]int)
		for _, token := range strings.Fields(name) {
			idx, ok := vocabulary[token]
			if !ok {
				idx = len(vocabulary)
				vocabulary[token] = idx
			}
			counts[idx]++
		}
		for idx := range counts {
			docFrequency[idx]++
		}
		termCounts[i] = counts
	}

	n := float64(len(names))
	idf := make(map[int]float64, len(docFrequency))
	for idx, df := range docFrequency {
		idf[idx] = math.Log((1+n)/(1+float64(df))) + 1
	}

	vectors := make([]SparseVector, len(names))
	for i, counts := range termCounts {
		vector := make(SparseVector, len(counts))
		var squaredSum float64
		for idx, count := range counts {
			w := float64(count) * idf[idx]
			vector[idx] = w
			squaredSum += w * w
		}
		if norm := math.Sqrt(squaredSum); norm > 0 {
			for idx := range vector {
				vector[idx] /= norm
			}
		}
		vectors[i] = vector
	}

	return &TFIDF{Vocabulary: vocabulary, Vectors: vectors}
}

// Dot returns the dot product of two sparse vectors.
func (v SparseVector) Dot(other SparseVector) float64 {
	// Iterate the smaller map
	if len(other) < len(v) {
		v, other = other, v
	}
	var sum float64
	for idx, w := range v {
		sum += w * other[idx]
	}
	return sum
}

// CosineDistanceMatrix computes the pairwise distance matrix
// distance(i,j) = 1 - cosine_similarity(i,j) over L2-normalized vectors.
// The result is symmetric with a zero diagonal, and values are clamped at
// zero to guard against floating-point negative artifacts.
func CosineDistanceMatrix(vectors []SparseVector) [][]float64 {
	n := len(vectors)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := 1 - vectors[i].Dot(vectors[j])
			if d < 0 {
				d = 0
			}
			matrix[i][j] = d
			matrix[j][i] = d
		}
	}

	return matrix
}
