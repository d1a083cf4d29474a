package model

// TrainingExample is a worked natural-language-to-SQL pair used as a
// few-shot example.
type TrainingExample struct {
	Query       string   `json:"query"`
	SQL         string   `json:"sql"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords"`
	Explanation string   `json:"explanation,omitempty"`
}

// SampleQuery is a UI hint returned by the examples endpoint.
type SampleQuery struct {
	Query       string `json:"query"`
	Description string `json:"description"`
}
