package models

// PromptReport is the clustering output for one prompt group.
type PromptReport struct {
	Prompt           string    `json:"prompt"`
	TotalFailedTests int       `json:"totalFailedTests"`
	ClustersFound    int       `json:"clustersFound"`
	AvgClusterSize   float64   `json:"avgClusterSize"`
	Clusters         []Cluster `json:"clusters"`
	Insights         string    `json:"insights"`
}

// ClusteringSummary aggregates totals across all prompt groups.
// AnalysisTime is wall-clock milliseconds for the whole clustering call.
type ClusteringSummary struct {
	TotalFailed  int   `json:"totalFailed"`
	TotalPrompts int   `json:"totalPrompts"`
	AnalysisTime int64 `json:"analysisTime"`
}

// ClusteringResult is the top-level clustering payload returned to the
// evaluation runner. Field names follow the runner's existing camelCase
// contract rather than the snake_case used by service-owned entities.
type ClusteringResult struct {
	PromptClusters []PromptReport    `json:"promptClusters"`
	Summary        ClusteringSummary `json:"summary"`
	Insights       string            `json:"insights"`
}
