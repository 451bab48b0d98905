package models

import "time"

type ItemStatus string

const (
	PendingItemStatus            ItemStatus = "PENDING"
	AskedItemStatus              ItemStatus = "ASKED"
	AnsweredItemStatus           ItemStatus = "ANSWERED"
	VerifiedItemStatus           ItemStatus = "VERIFIED"
	AutoFilledItemStatus         ItemStatus = "AUTO_FILLED"
	NeedsClarificationItemStatus ItemStatus = "NEEDS_CLARIFICATION"
	NotApplicableItemStatus      ItemStatus = "NOT_APPLICABLE"
)

type Priority string

const (
	CriticalPriority Priority = "CRITICAL"
	HighPriority     Priority = "HIGH"
	MediumPriority   Priority = "MEDIUM"
	LowPriority      Priority = "LOW"
)

// Rank maps a priority to a sortable value, lower runs first.
// Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case CriticalPriority:
		return 0
	case HighPriority:
		return 1
	case MediumPriority:
		return 2
	case LowPriority:
		return 3
	default:
		return 4
	}
}

type ValueSource string

const (
	UserValueSource     ValueSource = "USER"
	ResearchValueSource ValueSource = "RESEARCH"
)

// ChecklistItem is one discrete fact the onboarding session must obtain
// before it can complete.
type ChecklistItem struct {
	Key              string      `json:"key" db:"key"`                 // Stable unique identifier (e.g., "tax_id")
	Prompt           string      `json:"prompt" db:"prompt"`           // Question text template
	Category         string      `json:"category" db:"category"`       // Topical group (e.g., "legal", "banking")
	Required         bool        `json:"required" db:"required"`       // Counts toward completion
	Priority         Priority    `json:"priority" db:"priority"`       // "CRITICAL", "HIGH", "MEDIUM", "LOW"
	Dependencies     []string    `json:"dependencies,omitempty"`       // Keys that must be terminal before this item is asked
	RequiresResearch bool        `json:"requires_research,omitempty"`  // Eligible for background research
	ValueKind        string      `json:"value_kind,omitempty"`         // Expected answer shape ("text", "email", "number", "date", "choice")
	Choices          []string    `json:"choices,omitempty"`            // Allowed values when ValueKind is "choice"
	Status           ItemStatus  `json:"status" db:"status"`           // Lifecycle state
	Value            string      `json:"value,omitempty" db:"value"`   // Set once ANSWERED/VERIFIED/AUTO_FILLED
	Confidence       float64     `json:"confidence,omitempty"`         // Only meaningful for AUTO_FILLED
	Source           ValueSource `json:"source,omitempty" db:"source"` // Where the value came from
	Attempts         int         `json:"attempts" db:"attempts"`       // Times this item has been asked
	AskedAt          *time.Time  `json:"asked_at,omitempty"`
	AnsweredAt       *time.Time  `json:"answered_at,omitempty"`
	VerifiedAt       *time.Time  `json:"verified_at,omitempty"`
}

// Terminal reports whether the item no longer needs work: it is either
// resolved or excluded from the session.
func (it ChecklistItem) Terminal() bool {
	switch it.Status {
	case VerifiedItemStatus, AutoFilledItemStatus, NotApplicableItemStatus:
		return true
	}
	return false
}

// Resolved reports whether the item carries a usable value.
func (it ChecklistItem) Resolved() bool {
	return it.Status == VerifiedItemStatus || it.Status == AutoFilledItemStatus
}

// CompletionMetrics is derived from the checklist each turn, never
// mutated independently.
type CompletionMetrics struct {
	RequiredTotal    int     `json:"required_total"`    // Required items not NOT_APPLICABLE
	RequiredResolved int     `json:"required_resolved"` // Required items VERIFIED or AUTO_FILLED
	Ratio            float64 `json:"ratio"`
	Complete         bool    `json:"complete"`
}
