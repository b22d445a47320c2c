package models

import "time"

// WorkSummary is a short report on one standard work in the index.
type WorkSummary struct {
	Name        string `json:"name"`
	Books       int    `json:"books"`
	TotalTokens int    `json:"total_tokens"`
	Vocabulary  int    `json:"vocabulary"`
}

// ArtifactUsage is the on-disk size of one build artifact. Missing
// artifacts report Exists false and zero bytes.
type ArtifactUsage struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
	Exists bool   `json:"exists"`
}

// StatusReport describes the serving index and the artifacts behind it.
type StatusReport struct {
	IndexPath   string          `json:"index_path"`
	BuildID     string          `json:"build_id,omitempty"`
	BuiltAt     time.Time       `json:"built_at,omitempty"`
	Works       []WorkSummary   `json:"works"`
	Books       int             `json:"books"`
	TotalTokens int             `json:"total_tokens"`
	Vocabulary  int             `json:"vocabulary"`
	Verses      int64           `json:"verses"`
	LatestBuild *BuildRecord    `json:"latest_build,omitempty"`
	Artifacts   []ArtifactUsage `json:"artifacts"`
	DiskBytes   int64           `json:"disk_bytes"`
}
