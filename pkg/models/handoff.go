package models

import "time"

// HandoffRecord is the structured package handed to a human operator
// when a session escalates. It carries enough context to pick the
// conversation up without replaying the whole session.
type HandoffRecord struct {
	ID        int64           `json:"id" db:"id"`
	SessionID string          `json:"session_id" db:"session_id"`
	Reason    string          `json:"reason" db:"reason"`
	Messages  []Message       `json:"messages"`  // Last N conversation turns
	Checklist []ChecklistItem `json:"checklist"` // Snapshot at escalation time
	TicketID  string          `json:"ticket_id" db:"ticket_id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
