package analysis

import (
	"log/slog"
	"math"

	"github.com/kiranshivaraju/evalhunter/pkg/models"
	"github.com/kiranshivaraju/evalhunter/pkg/prompts"
)

// groupRecord ties one failed test to its synthesized embedding text and
// vector. A single composite slice replaces parallel arrays so records can
// never drift out of alignment with their vectors.
type groupRecord struct {
	test   models.FailedTest
	text   string
	vector []float64
}

// buildCluster assembles one enriched Cluster from a raw k-means member
// list: short error texts, per-member cohesion, the representative closest
// to the centroid, and the average pairwise similarity. Member indices
// outside the group are logged and dropped rather than failing the run.
// The category is left zero for the caller to resolve.
func buildCluster(id int, memberIndices []int, centroid []float64, records []groupRecord) (models.Cluster, error) {
	valid := make([]int, 0, len(memberIndices))
	for _, idx := range memberIndices {
		if idx < 0 || idx >= len(records) {
			slog.Warn("dropping out-of-range cluster member",
				"cluster_id", id, "index", idx, "group_size", len(records))
			continue
		}
		valid = append(valid, idx)
	}

	var b prompts.Builder
	members := make([]models.ClusterMember, 0, len(valid))
	for _, idx := range valid {
		rec := records[idx]
		sim, err := meanSimilarityToOthers(idx, valid, records)
		if err != nil {
			return models.Cluster{}, err
		}
		members = append(members, models.ClusterMember{
			Index:         idx,
			TestID:        rec.test.ID,
			ErrorText:     b.ErrorSummary(rec.text),
			Score:         rec.test.Score,
			AssertionType: rec.test.AssertionType,
			Similarity:    sim,
		})
	}

	repIdx, err := representative(valid, centroid, records)
	if err != nil {
		return models.Cluster{}, err
	}
	repError := ""
	if repIdx >= 0 {
		repError = b.ErrorSummary(records[repIdx].text)
	}

	avg, err := avgPairwiseSimilarity(valid, records)
	if err != nil {
		return models.Cluster{}, err
	}

	return models.Cluster{
		ID:                  id,
		Size:                len(valid),
		MemberIndices:       valid,
		Members:             members,
		RepresentativeIndex: repIdx,
		RepresentativeError: repError,
		AvgSimilarity:       avg,
	}, nil
}

// representative returns the member index nearest the centroid, ties broken
// by first occurrence. Returns -1 for an empty member list.
func representative(memberIndices []int, centroid []float64, records []groupRecord) (int, error) {
	best := -1
	bestDist := math.MaxFloat64
	for _, idx := range memberIndices {
		d, err := EuclideanDistance(records[idx].vector, centroid)
		if err != nil {
			return -1, err
		}
		if d < bestDist {
			bestDist = d
			best = idx
		}
	}
	return best, nil
}

// meanSimilarityToOthers returns the mean cosine similarity between one
// member and every other member, rounded to 2 decimals. Exactly 1.0 when
// the member has no peers.
func meanSimilarityToOthers(self int, memberIndices []int, records []groupRecord) (float64, error) {
	if len(memberIndices) <= 1 {
		return 1.0, nil
	}

	var sum float64
	count := 0
	for _, other := range memberIndices {
		if other == self {
			continue
		}
		s, err := CosineSimilarity(records[self].vector, records[other].vector)
		if err != nil {
			return 0, err
		}
		sum += s
		count++
	}

	return round2(sum / float64(count)), nil
}

// avgPairwiseSimilarity returns the mean cosine similarity over all i<j
// member pairs, rounded to 2 decimals. Exactly 1.0 for 0 or 1 members.
func avgPairwiseSimilarity(memberIndices []int, records []groupRecord) (float64, error) {
	if len(memberIndices) <= 1 {
		return 1.0, nil
	}

	var sum float64
	pairs := 0
	for i := 0; i < len(memberIndices); i++ {
		for j := i + 1; j < len(memberIndices); j++ {
			s, err := CosineSimilarity(records[memberIndices[i]].vector, records[memberIndices[j]].vector)
			if err != nil {
				return 0, err
			}
			sum += s
			pairs++
		}
	}

	return round2(sum / float64(pairs)), nil
}
