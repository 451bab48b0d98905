package models

import "time"

type SessionStatus string

const (
	ActiveSessionStatus           SessionStatus = "ACTIVE"
	EscalatedSessionStatus        SessionStatus = "ESCALATED"
	CompletedSessionStatus        SessionStatus = "COMPLETED"
	AbortedSessionStatus          SessionStatus = "ABORTED"
	RecoverableErrorSessionStatus SessionStatus = "RECOVERABLE_ERROR"
)

// EngineState identifies a node of the onboarding state machine. The
// current state is persisted with every checkpoint so a crashed or
// suspended session resumes at the exact point it left off.
type EngineState string

const (
	IntakeState               EngineState = "INTAKE"
	ResearchDecisionState     EngineState = "RESEARCH_DECISION"
	ConductResearchState      EngineState = "CONDUCT_RESEARCH"
	ParseAndIndexState        EngineState = "PARSE_AND_INDEX"
	UpdateChecklistState      EngineState = "UPDATE_CHECKLIST"
	GenerateQuestionState     EngineState = "GENERATE_QUESTION"
	AwaitResponseState        EngineState = "AWAIT_RESPONSE"
	ProcessResponseState      EngineState = "PROCESS_RESPONSE"
	EvaluateContinuationState EngineState = "EVALUATE_CONTINUATION"
	EscalateState             EngineState = "ESCALATE"
	FinalConfirmationState    EngineState = "FINAL_CONFIRMATION"
	SaveResultsState          EngineState = "SAVE_RESULTS"
	EndState                  EngineState = "END"
)

type MessageRole string

const (
	UserMessageRole      MessageRole = "user"
	AssistantMessageRole MessageRole = "assistant"
	SystemMessageRole    MessageRole = "system"
)

// Message is one turn of the onboarding conversation. The message log
// is append-only.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// WorkflowState is the single mutable aggregate of a session. It is
// owned exclusively by the engine, mutated only under the session lock,
// and checkpointed after every state transition.
type WorkflowState struct {
	SessionID   string `json:"session_id" db:"session_id"`
	UserID      string `json:"user_id" db:"user_id"`
	ServiceType string `json:"service_type" db:"service_type"`

	State  EngineState   `json:"state" db:"state"`
	Status SessionStatus `json:"status" db:"status"`

	Checklist []ChecklistItem   `json:"checklist"`
	Messages  []Message         `json:"messages"`
	Profile   map[string]string `json:"profile,omitempty"` // Seed facts supplied at session start

	// Findings holds the parsed results of the most recent research pass.
	Findings       []ResearchFinding `json:"findings,omitempty"`
	LastResearchAt *time.Time        `json:"last_research_at,omitempty"`
	CollectionID   string            `json:"collection_id,omitempty"` // Context-index collection for this session

	// CurrentItemKey is the checklist item the outstanding question
	// targets while suspended at AWAIT_RESPONSE.
	CurrentItemKey string `json:"current_item_key,omitempty"`

	// LastValidationErrors carries the reasons the previous answer was
	// rejected, so a resumed session can still phrase the re-ask.
	LastValidationErrors []string `json:"last_validation_errors,omitempty"`

	ValidationFailures int    `json:"validation_failures"`
	EscalationReason   string `json:"escalation_reason,omitempty"`

	Metrics CompletionMetrics `json:"metrics"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AppendMessage records a conversation turn. Messages are never edited
// in place.
func (s *WorkflowState) AppendMessage(role MessageRole, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, Timestamp: time.Now().UTC()})
}

// Item returns a pointer to the checklist item with the given key, or
// nil when absent.
func (s *WorkflowState) Item(key string) *ChecklistItem {
	for i := range s.Checklist {
		if s.Checklist[i].Key == key {
			return &s.Checklist[i]
		}
	}
	return nil
}
