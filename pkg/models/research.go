package models

import "time"

// ResearchQuery is one unit of background research, built from a group
// of checklist gaps sharing a topic.
type ResearchQuery struct {
	QueryText     string        `json:"query_text"`
	SourceType    string        `json:"source_type"`     // Backend family (e.g., "web", "registry", "llm")
	Priority      Priority      `json:"priority"`        // Highest priority among the targeted gaps
	ChecklistKeys []string      `json:"checklist_items"` // Gap keys this query targets
	MaxResults    int           `json:"max_results"`
	Timeout       time.Duration `json:"timeout"`
}

// ResearchFinding is a confidence-scored fact extracted from a backend
// result, tagged with the checklist keys it may satisfy.
type ResearchFinding struct {
	Content       string    `json:"content"`
	Source        string    `json:"source"`
	Confidence    float64   `json:"confidence"` // Clamped to [0,1]; 0 means unusable
	ChecklistKeys []string  `json:"checklist_items"`
	Timestamp     time.Time `json:"timestamp"`
}
