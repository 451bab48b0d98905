package storage

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Jubii100/Growbal-sub000/pkg/models"
	"github.com/pkg/errors"
)

// mockStore implements Store with in-memory storage. Sessions are
// stored as deep copies so callers cannot mutate checkpointed state
// behind the store's back, mirroring the round-trip through JSONB in
// the Postgres store.
type mockStore struct {
	mu            sync.Mutex
	sessions      map[string]models.WorkflowState
	handoffs      []models.HandoffRecord
	nextHandoffID int64
	committed     bool // Transaction state

	// SaveErr, when set, makes SaveSession fail. Tests use it to
	// exercise checkpoint retry and recoverable-error behavior.
	SaveErr error
}

func (m *mockStore) Begin() (Store, error) {
	return m, nil
}

func (m *mockStore) Commit() error {
	if m.committed {
		return errors.New("already committed")
	}
	return nil
}

func (m *mockStore) Rollback() error {
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

func cloneSession(s models.WorkflowState) models.WorkflowState {
	raw, err := json.Marshal(s)
	if err != nil {
		return s
	}
	var out models.WorkflowState
	if err := json.Unmarshal(raw, &out); err != nil {
		return s
	}
	return out
}

func (m *mockStore) SaveSession(s models.WorkflowState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	s.UpdatedAt = time.Now()
	m.sessions[s.SessionID] = cloneSession(s)
	return nil
}

func (m *mockStore) GetSession(sessionID string) (models.WorkflowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return models.WorkflowState{}, ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *mockStore) ListSessions() ([]models.WorkflowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.WorkflowState, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, cloneSession(s))
	}
	return out, nil
}

func (m *mockStore) UpdateSessionStatus(sessionID string, status models.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	m.sessions[sessionID] = s
	return nil
}

func (m *mockStore) SaveHandoff(h models.HandoffRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextHandoffID++
	h.ID = m.nextHandoffID
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	m.handoffs = append(m.handoffs, h)
	return h.ID, nil
}

func (m *mockStore) ListHandoffs(sessionID string) ([]models.HandoffRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.HandoffRecord
	for _, h := range m.handoffs {
		if h.SessionID == sessionID {
			out = append(out, h)
		}
	}
	return out, nil
}

func NewMockStore() Store {
	return &mockStore{sessions: make(map[string]models.WorkflowState)}
}

// NewFailingMockStore returns a mock store whose SaveSession always
// fails with the given error.
func NewFailingMockStore(err error) Store {
	return &mockStore{sessions: make(map[string]models.WorkflowState), SaveErr: err}
}
