package storage

import (
	"github.com/Jubii100/Growbal-sub000/pkg/models"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a session or handoff does not exist.
// The transport layer maps it to a session-not-found response.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations for onboarding sessions.
// SaveSession is the checkpoint primitive: each call persists the full
// WorkflowState atomically, and a turn is not complete until its
// checkpoint is durable.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Session operations
	SaveSession(s models.WorkflowState) error // Insert or replace by session_id
	GetSession(sessionID string) (models.WorkflowState, error)
	ListSessions() ([]models.WorkflowState, error)
	UpdateSessionStatus(sessionID string, status models.SessionStatus) error

	// Handoff operations
	SaveHandoff(h models.HandoffRecord) (int64, error)
	ListHandoffs(sessionID string) ([]models.HandoffRecord, error)
}
