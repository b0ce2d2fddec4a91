package models

// Cluster is one semantically coherent group of failed tests within a single
// prompt group. Indices are 0-based positions in that prompt group, and every
// group index appears in exactly one cluster.
type Cluster struct {
	ID                  int             `json:"id"`
	Size                int             `json:"size"`
	MemberIndices       []int           `json:"memberIndices"`
	Members             []ClusterMember `json:"members"`
	RepresentativeIndex int             `json:"representativeIndex"`
	RepresentativeError string          `json:"representativeError"`
	AvgSimilarity       float64         `json:"avgSimilarity"`
	Category            ClusterCategory `json:"category"`
}

// ClusterMember is an enriched view of one failed test inside a cluster:
// the short error text plus its mean cosine similarity to the other members.
type ClusterMember struct {
	Index         int     `json:"index"`
	TestID        string  `json:"testId"`
	ErrorText     string  `json:"errorText"`
	Score         float64 `json:"score"`
	AssertionType string  `json:"assertionType"`
	Similarity    float64 `json:"similarity"`
}

// ClusterCategory is the human-readable explanation attached to a cluster.
// AI-generated categories carry ErrorIndices so they can be matched back to
// k-means clusters; synthesized fallbacks leave it empty.
type ClusterCategory struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	ErrorIndices   []int    `json:"errorIndices,omitempty"`
	CommonPatterns []string `json:"commonPatterns"`
	Suggestions    []string `json:"suggestions"`
}
