package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Jubii100/Growbal-sub000/pkg/models"
	"github.com/Jubii100/Growbal-sub000/pkg/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// PostgresStore persists sessions and handoffs. The full WorkflowState
// travels as a JSONB payload next to the scalar columns used for
// listing and filtering; a checkpoint is one upsert, so it is atomic.
type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

type sessionRow struct {
	SessionID string `db:"session_id"`
	Payload   []byte `db:"payload"`
}

// SaveSession checkpoints a session: insert on first save, full replace
// afterwards.
func (s *PostgresStore) SaveSession(w models.WorkflowState) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", w.SessionID, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO sessions (session_id, user_id, service_type, status, state, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO UPDATE
		SET status = EXCLUDED.status,
		    state = EXCLUDED.state,
		    payload = EXCLUDED.payload,
		    updated_at = EXCLUDED.updated_at`,
		w.SessionID, w.UserID, w.ServiceType, w.Status, w.State, payload, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session %s: %w", w.SessionID, err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *PostgresStore) GetSession(sessionID string) (models.WorkflowState, error) {
	var row sessionRow
	err := s.db.Get(&row, "SELECT session_id, payload FROM sessions WHERE session_id = $1", sessionID)
	if err == sql.ErrNoRows {
		return models.WorkflowState{}, storage.ErrNotFound
	}
	if err != nil {
		return models.WorkflowState{}, err
	}
	var state models.WorkflowState
	if err := json.Unmarshal(row.Payload, &state); err != nil {
		return models.WorkflowState{}, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return state, nil
}

func (s *PostgresStore) ListSessions() ([]models.WorkflowState, error) {
	var rows []sessionRow
	err := s.db.Select(&rows, "SELECT session_id, payload FROM sessions ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	sessions := make([]models.WorkflowState, 0, len(rows))
	for _, row := range rows {
		var state models.WorkflowState
		if err := json.Unmarshal(row.Payload, &state); err != nil {
			return nil, fmt.Errorf("unmarshal session %s: %w", row.SessionID, err)
		}
		sessions = append(sessions, state)
	}
	return sessions, nil
}

// UpdateSessionStatus updates the status columns and the payload copy
// in one statement.
func (s *PostgresStore) UpdateSessionStatus(sessionID string, status models.SessionStatus) error {
	res, err := s.db.Exec(`
		UPDATE sessions
		SET status = $1,
		    payload = jsonb_set(payload, '{status}', to_jsonb($1::text)),
		    updated_at = CURRENT_TIMESTAMP
		WHERE session_id = $2`,
		string(status), sessionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SaveHandoff persists an escalation record and returns its ID.
func (s *PostgresStore) SaveHandoff(h models.HandoffRecord) (int64, error) {
	payload, err := json.Marshal(struct {
		Messages  []models.Message       `json:"messages"`
		Checklist []models.ChecklistItem `json:"checklist"`
	}{h.Messages, h.Checklist})
	if err != nil {
		return 0, fmt.Errorf("marshal handoff for %s: %w", h.SessionID, err)
	}
	var id int64
	err = s.db.QueryRowx(`
		INSERT INTO handoffs (session_id, reason, ticket_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		h.SessionID, h.Reason, h.TicketID, payload, h.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save handoff for %s: %w", h.SessionID, err)
	}
	return id, nil
}

type handoffRow struct {
	ID        int64        `db:"id"`
	SessionID string       `db:"session_id"`
	Reason    string       `db:"reason"`
	TicketID  string       `db:"ticket_id"`
	Payload   []byte       `db:"payload"`
	CreatedAt sql.NullTime `db:"created_at"`
}

func (s *PostgresStore) ListHandoffs(sessionID string) ([]models.HandoffRecord, error) {
	var rows []handoffRow
	err := s.db.Select(&rows, "SELECT id, session_id, reason, ticket_id, payload, created_at FROM handoffs WHERE session_id = $1 ORDER BY id", sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]models.HandoffRecord, 0, len(rows))
	for _, row := range rows {
		rec := models.HandoffRecord{
			ID:        row.ID,
			SessionID: row.SessionID,
			Reason:    row.Reason,
			TicketID:  row.TicketID,
		}
		if row.CreatedAt.Valid {
			rec.CreatedAt = row.CreatedAt.Time
		}
		var payload struct {
			Messages  []models.Message       `json:"messages"`
			Checklist []models.ChecklistItem `json:"checklist"`
		}
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal handoff %d: %w", row.ID, err)
		}
		rec.Messages = payload.Messages
		rec.Checklist = payload.Checklist
		out = append(out, rec)
	}
	return out, nil
}
