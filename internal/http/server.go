package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Jubii100/Growbal-sub000/internal/log"
	"github.com/Jubii100/Growbal-sub000/pkg/checklist"
	"github.com/Jubii100/Growbal-sub000/pkg/engine"
	"github.com/pkg/errors"
)

// StartServer exposes the engine's three entry points plus health and
// metrics. No wire format beyond these JSON bodies is part of the core
// contract.
func StartServer(port string, eng *engine.Engine, metricsHandler http.Handler) error {
	mux := NewMux(eng, metricsHandler)
	log.GetLogger().Infof("Starting Growbal server on :%s", port)
	return http.ListenAndServe(":"+port, mux)
}

// NewMux wires the HTTP routes. Split out so tests can run the mux
// under httptest.
func NewMux(eng *engine.Engine, metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/sessions", SessionsHandler(eng))
	mux.HandleFunc("/sessions/", SessionByIDHandler(eng))
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}
	return mux
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type startSessionRequest struct {
	UserID      string            `json:"user_id"`
	ServiceType string            `json:"service_type"`
	Profile     map[string]string `json:"profile,omitempty"`
}

type startSessionResponse struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

// SessionsHandler serves POST /sessions (start) and GET /sessions
// (list).
func SessionsHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			startSessionHTTP(w, r, eng)
		case http.MethodGet:
			listSessionsHTTP(w, r, eng)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func startSessionHTTP(w http.ResponseWriter, r *http.Request, eng *engine.Engine) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.ServiceType == "" {
		http.Error(w, "user_id and service_type are required", http.StatusBadRequest)
		return
	}
	sessionID, res, err := eng.StartSession(r.Context(), req.UserID, req.ServiceType, req.Profile)
	if err != nil {
		if errors.Is(err, checklist.ErrUnknownServiceType) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.GetLogger().Errorf("Failed to start session: %v", err)
		http.Error(w, "Failed to start session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, startSessionResponse{SessionID: sessionID, Prompt: res.Prompt})
}

func listSessionsHTTP(w http.ResponseWriter, _ *http.Request, eng *engine.Engine) {
	sessions, err := eng.ListSessions()
	if err != nil {
		log.GetLogger().Errorf("Failed to list sessions: %v", err)
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

type respondRequest struct {
	Text string `json:"text"`
}

type escalationRequest struct {
	Decision string `json:"decision"`
}

// SessionByIDHandler serves GET /sessions/{id}, POST
// /sessions/{id}/respond, and POST /sessions/{id}/escalation.
func SessionByIDHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
		parts := strings.SplitN(rest, "/", 2)
		sessionID := parts[0]
		if sessionID == "" {
			http.Error(w, "Missing session ID", http.StatusBadRequest)
			return
		}
		action := ""
		if len(parts) == 2 {
			action = parts[1]
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			statusHTTP(w, r, eng, sessionID)
		case action == "respond" && r.Method == http.MethodPost:
			respondHTTP(w, r, eng, sessionID)
		case action == "escalation" && r.Method == http.MethodPost:
			escalationHTTP(w, r, eng, sessionID)
		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	}
}

func statusHTTP(w http.ResponseWriter, _ *http.Request, eng *engine.Engine, sessionID string) {
	progress, err := eng.GetStatus(sessionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func respondHTTP(w http.ResponseWriter, r *http.Request, eng *engine.Engine, sessionID string) {
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	res, err := eng.SubmitResponse(r.Context(), sessionID, req.Text)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func escalationHTTP(w http.ResponseWriter, r *http.Request, eng *engine.Engine, sessionID string) {
	var req escalationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	res, err := eng.ResolveEscalation(r.Context(), sessionID, engine.EscalationDecision(req.Decision))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrSessionNotActive):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.GetLogger().Errorf("Engine call failed: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.GetLogger().Errorf("Failed to encode response: %v", err)
	}
}
