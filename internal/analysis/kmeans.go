package analysis

import (
	"math"
	"math/rand"
	"time"
)

const (
	kmeansMaxIterations = 100
	kmeansTolerance     = 1e-4
)

// KMeansResult holds the cluster membership and final centroids of one run.
// Clusters[i] lists input vector indices assigned to Centroids[i]; clusters
// left empty by the final assignment are dropped from both slices.
type KMeansResult struct {
	Clusters  [][]int
	Centroids [][]float64
}

// KMeans partitions vectors into at most k clusters by iterative Lloyd
// refinement: random centroid initialization from the data, Euclidean
// assignment, centroid recomputation, until centroids move less than the
// tolerance or the iteration cap is hit.
//
// Degenerate inputs short-circuit: empty input yields zero clusters, and
// k >= len(vectors) yields one singleton cluster per vector with centroids
// equal to the points. A nil rng falls back to a time-seeded source; tests
// pass a fixed-seed rng for reproducible assignments.
func KMeans(vectors [][]float64, k int, rng *rand.Rand) (KMeansResult, error) {
	if len(vectors) == 0 {
		return KMeansResult{Clusters: [][]int{}, Centroids: [][]float64{}}, nil
	}
	if k < 1 {
		k = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if k >= len(vectors) {
		clusters := make([][]int, len(vectors))
		centroids := make([][]float64, len(vectors))
		for i, v := range vectors {
			clusters[i] = []int{i}
			centroids[i] = append([]float64(nil), v...)
		}
		return KMeansResult{Clusters: clusters, Centroids: centroids}, nil
	}

	dim := len(vectors[0])

	// Initialize centroids from k distinct random data points.
	centroids := make([][]float64, k)
	for i, pick := range rng.Perm(len(vectors))[:k] {
		centroids[i] = append([]float64(nil), vectors[pick]...)
	}

	assignments := make([]int, len(vectors))
	for iter := 0; iter < kmeansMaxIterations; iter++ {
		// Assign every vector to its nearest centroid.
		for i, v := range vectors {
			best := 0
			bestDist := math.MaxFloat64
			for c, centroid := range centroids {
				d, err := EuclideanDistance(v, centroid)
				if err != nil {
					return KMeansResult{}, err
				}
				if d < bestDist {
					bestDist = d
					best = c
				}
			}
			assignments[i] = best
		}

		// Recompute centroids as member means; empty clusters keep theirs.
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := assignments[i]
			counts[c]++
			for j, x := range v {
				sums[c][j] += x
			}
		}

		moved := 0.0
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			next := make([]float64, dim)
			for j := range next {
				next[j] = sums[c][j] / float64(counts[c])
			}
			d, err := EuclideanDistance(centroids[c], next)
			if err != nil {
				return KMeansResult{}, err
			}
			if d > moved {
				moved = d
			}
			centroids[c] = next
		}

		if moved < kmeansTolerance {
			break
		}
	}

	members := make([][]int, k)
	for c := range members {
		members[c] = []int{}
	}
	for i, c := range assignments {
		members[c] = append(members[c], i)
	}

	result := KMeansResult{Clusters: make([][]int, 0, k), Centroids: make([][]float64, 0, k)}
	for c := range members {
		if len(members[c]) == 0 {
			continue
		}
		result.Clusters = append(result.Clusters, members[c])
		result.Centroids = append(result.Centroids, centroids[c])
	}

	return result, nil
}
