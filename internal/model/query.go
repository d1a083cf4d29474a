package model

// SearchRequest represents a natural language search request
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResponse is returned by POST /api/search. Failures keep the same
// shape with Success=false and a generic Error.
type SearchResponse struct {
	Success        bool             `json:"success"`
	Query          string           `json:"query"`
	Intent         *QueryIntent     `json:"intent,omitempty"`
	Results        []PropertyRecord `json:"results"`
	TotalResults   int              `json:"total_results"`
	SQLQuery       string           `json:"sql_query,omitempty"`
	ProcessingTime float64          `json:"processing_time"` // seconds
	Error          string           `json:"error,omitempty"`
}

// SearchResult is what the search service hands back to the HTTP layer.
type SearchResult struct {
	Intent   *QueryIntent
	Records  []PropertyRecord
	SQL      string
	Attempts int
	Cached   bool
}

// ComponentHealth describes one dependency in the health report.
type ComponentHealth struct {
	Status    string         `json:"status"`
	Connected bool           `json:"connected"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Error     string         `json:"error,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// TableStats summarises the listings table for the database health report.
type TableStats struct {
	Table    string `json:"table"`
	RowCount int64  `json:"row_count"`
}

// AcceleratorHealth reports generation slot usage.
type AcceleratorHealth struct {
	Status string `json:"status"`
	Slots  int64  `json:"slots"`
	InUse  int64  `json:"in_use"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Database    ComponentHealth   `json:"database"`
	Generator   ComponentHealth   `json:"generator"`
	Accelerator AcceleratorHealth `json:"accelerator"`
}
