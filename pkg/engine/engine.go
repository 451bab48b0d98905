// Package engine implements the adaptive onboarding workflow: a
// session-scoped state machine that interviews the user one question at
// a time, rewrites its checklist from answers and background research,
// and escalates to a human when automated progress stalls. Every state
// transition is checkpointed, so a session survives a crash and resumes
// at its suspension point.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Jubii100/Growbal-sub000/pkg/checklist"
	"github.com/Jubii100/Growbal-sub000/pkg/contextindex"
	"github.com/Jubii100/Growbal-sub000/pkg/llm"
	"github.com/Jubii100/Growbal-sub000/pkg/models"
	"github.com/Jubii100/Growbal-sub000/pkg/research"
	"github.com/Jubii100/Growbal-sub000/pkg/storage"
	"github.com/Jubii100/Growbal-sub000/pkg/validation"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrSessionNotFound is returned when a session ID is unknown.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionNotActive is returned when input arrives for a session that
// is escalated or terminal.
var ErrSessionNotActive = errors.New("session not active")

// Logger defines the logging interface for the engine.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Notifier delivers escalation handoffs to the human queue.
type Notifier interface {
	Escalate(ctx context.Context, rec models.HandoffRecord) (ticketID string, err error)
}

// LogNotifier is the default Notifier: it logs the handoff and mints a
// ticket ID. Deployments plug in a real ticketing integration.
type LogNotifier struct {
	Logger Logger
}

func (n LogNotifier) Escalate(_ context.Context, rec models.HandoffRecord) (string, error) {
	ticketID := "ticket-" + uuid.New().String()[:8]
	n.Logger.Infof("Escalating session %s (%s) as %s", rec.SessionID, rec.Reason, ticketID)
	return ticketID, nil
}

// Metrics receives engine counters. internal/metrics provides the
// Prometheus implementation; NopMetrics keeps tests quiet.
type Metrics interface {
	SessionStarted(serviceType string)
	TurnProcessed()
	SessionCompleted()
	SessionEscalated(reason string)
	ItemAutoFilled()
	ResearchPass()
}

type NopMetrics struct{}

func (NopMetrics) SessionStarted(string)   {}
func (NopMetrics) TurnProcessed()          {}
func (NopMetrics) SessionCompleted()       {}
func (NopMetrics) SessionEscalated(string) {}
func (NopMetrics) ItemAutoFilled()         {}
func (NopMetrics) ResearchPass()           {}

// TurnResult is what a transport call gets back: the next prompt or the
// session's terminal outcome.
type TurnResult struct {
	SessionID  string                   `json:"session_id"`
	Prompt     string                   `json:"prompt,omitempty"`
	Status     models.SessionStatus     `json:"status"`
	State      models.EngineState       `json:"state"`
	Completion models.CompletionMetrics `json:"completion"`
	Escalated  bool                     `json:"escalated,omitempty"`
	TicketID   string                   `json:"ticket_id,omitempty"`
	Done       bool                     `json:"done,omitempty"`
}

// Progress is the read-only status view of a session.
type Progress struct {
	SessionID        string                   `json:"session_id"`
	Status           models.SessionStatus     `json:"status"`
	State            models.EngineState       `json:"state"`
	Completion       models.CompletionMetrics `json:"completion"`
	CurrentPrompt    string                   `json:"current_prompt,omitempty"`
	EscalationReason string                   `json:"escalation_reason,omitempty"`
}

// Engine drives onboarding sessions. One Engine per process, wired with
// its collaborators at construction; sessions never reach it through
// global lookup.
type Engine struct {
	store     storage.Store
	validator validation.Validator
	research  *research.Orchestrator
	index     contextindex.Index
	questions *QuestionGenerator
	escalator EscalationEvaluator
	notifier  Notifier
	cfg       Config
	logger    Logger
	metrics   Metrics

	// locks serializes turns per session: no two turns of the same
	// session ever execute concurrently.
	locks sync.Map // session ID -> *sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier sets the escalation notifier.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func New(
	store storage.Store,
	validator validation.Validator,
	orch *research.Orchestrator,
	index contextindex.Index,
	gen llm.Generator,
	cfg Config,
	logger Logger,
	opts ...Option,
) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		store:     store,
		validator: validator,
		research:  orch,
		index:     index,
		questions: NewQuestionGenerator(gen, index, cfg.RetrieveTopK, logger),
		escalator: EscalationEvaluator{
			AttemptCap:           cfg.AttemptCap,
			ValidationFailureCap: cfg.ValidationFailureCap,
		},
		cfg:     cfg,
		logger:  logger,
		metrics: NopMetrics{},
	}
	e.notifier = LogNotifier{Logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// StartSession creates a session from the service-type template and an
// optional seed profile, checkpoints it, and returns the intake prompt.
func (e *Engine) StartSession(ctx context.Context, userID, serviceType string, profile map[string]string) (string, TurnResult, error) {
	items, err := checklist.Initialize(serviceType, profile)
	if err != nil {
		return "", TurnResult{}, err
	}

	now := time.Now().UTC()
	state := &models.WorkflowState{
		SessionID:   uuid.New().String(),
		UserID:      userID,
		ServiceType: serviceType,
		State:       models.IntakeState,
		Status:      models.ActiveSessionStatus,
		Checklist:   items,
		Profile:     profile,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	state.Metrics = checklist.Completion(state.Checklist)

	prompt := fmt.Sprintf("Welcome! To get your %s underway, tell me a bit about yourself and your business.", strings.ReplaceAll(serviceType, "_", " "))
	state.AppendMessage(models.AssistantMessageRole, prompt)

	if err := e.checkpoint(ctx, state); err != nil {
		return "", TurnResult{}, err
	}
	e.metrics.SessionStarted(serviceType)
	e.logger.Infof("Started session %s for user %s (%s)", state.SessionID, userID, serviceType)
	return state.SessionID, e.result(state, prompt), nil
}

// SubmitResponse delivers the user's response and advances the session
// until it suspends again or terminates.
func (e *Engine) SubmitResponse(ctx context.Context, sessionID, text string) (TurnResult, error) {
	mu := e.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := e.load(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	switch state.Status {
	case models.ActiveSessionStatus, models.RecoverableErrorSessionStatus:
	default:
		return e.result(state, ""), errors.Wrapf(ErrSessionNotActive, "session %s is %s", sessionID, state.Status)
	}

	state.Status = models.ActiveSessionStatus
	state.AppendMessage(models.UserMessageRole, text)
	if state.State == models.AwaitResponseState {
		state.State = models.ProcessResponseState
	}

	res, err := e.run(ctx, state, text)
	if err == nil {
		e.metrics.TurnProcessed()
	}
	return res, err
}

// GetStatus returns the session's progress without advancing it.
func (e *Engine) GetStatus(sessionID string) (Progress, error) {
	state, err := e.load(sessionID)
	if err != nil {
		return Progress{}, err
	}
	return Progress{
		SessionID:        state.SessionID,
		Status:           state.Status,
		State:            state.State,
		Completion:       state.Metrics,
		CurrentPrompt:    lastAssistantMessage(state),
		EscalationReason: state.EscalationReason,
	}, nil
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	SessionID   string                   `json:"session_id"`
	UserID      string                   `json:"user_id"`
	ServiceType string                   `json:"service_type"`
	Status      models.SessionStatus     `json:"status"`
	Completion  models.CompletionMetrics `json:"completion"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// ListSessions returns a summary of every stored session.
func (e *Engine) ListSessions() ([]SessionSummary, error) {
	sessions, err := e.store.ListSessions()
	if err != nil {
		return nil, err
	}
	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionSummary{
			SessionID:   s.SessionID,
			UserID:      s.UserID,
			ServiceType: s.ServiceType,
			Status:      s.Status,
			Completion:  s.Metrics,
			CreatedAt:   s.CreatedAt,
			UpdatedAt:   s.UpdatedAt,
		})
	}
	return out, nil
}

// EscalationDecision is the human operator's verdict on an escalated
// session.
type EscalationDecision string

const (
	ResumeDecision   EscalationDecision = "resume"   // Return control to the engine
	FinalizeDecision EscalationDecision = "finalize" // Human completed the remaining items
	AbortDecision    EscalationDecision = "abort"
)

// ResolveEscalation applies the human decision to an escalated session.
func (e *Engine) ResolveEscalation(ctx context.Context, sessionID string, decision EscalationDecision) (TurnResult, error) {
	mu := e.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := e.load(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	if state.Status != models.EscalatedSessionStatus {
		return e.result(state, ""), errors.Wrapf(ErrSessionNotActive, "session %s is %s, not escalated", sessionID, state.Status)
	}

	switch decision {
	case ResumeDecision:
		// The human resolved whatever stalled the session; stale
		// counters would only re-trigger the same escalation.
		state.Status = models.ActiveSessionStatus
		state.EscalationReason = ""
		state.ValidationFailures = 0
		state.Checklist = resetAttempts(state.Checklist)
		state.State = models.UpdateChecklistState
		return e.run(ctx, state, "")
	case FinalizeDecision:
		state.Status = models.ActiveSessionStatus
		state.State = models.FinalConfirmationState
		return e.run(ctx, state, "")
	case AbortDecision:
		state.Status = models.AbortedSessionStatus
		state.State = models.EndState
		if err := e.checkpoint(ctx, state); err != nil {
			return TurnResult{}, err
		}
		e.release(sessionID)
		return e.result(state, ""), nil
	default:
		return TurnResult{}, fmt.Errorf("unknown escalation decision %q", decision)
	}
}

func resetAttempts(items []models.ChecklistItem) []models.ChecklistItem {
	out := make([]models.ChecklistItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Attempts = 0
	}
	return out
}

// run advances the state machine until it suspends at AWAIT_RESPONSE,
// escalates, or terminates. The checkpoint after every transition is
// what makes the session crash-safe.
func (e *Engine) run(ctx context.Context, state *models.WorkflowState, input string) (TurnResult, error) {
	confused := false
	var clarify []string

	for {
		prev := state.State
		switch state.State {

		case models.IntakeState:
			confused = e.routeAfterIntake(ctx, state, input)

		case models.ResearchDecisionState:
			if e.shouldResearch(state) {
				state.State = models.ConductResearchState
			} else {
				state.State = models.UpdateChecklistState
			}

		case models.ConductResearchState:
			// Per-query failures are handled inside the orchestrator;
			// nothing here can abort the session.
			findings := e.research.Run(ctx, state.SessionID, state.Checklist, e.providerInfo(state))
			now := time.Now().UTC()
			state.Findings = findings
			state.LastResearchAt = &now
			e.metrics.ResearchPass()
			state.State = models.ParseAndIndexState

		case models.ParseAndIndexState:
			if len(state.Findings) > 0 {
				collectionID, err := e.index.Index(ctx, state.CollectionID, state.Findings, map[string]string{
					"session_id":   state.SessionID,
					"service_type": state.ServiceType,
				})
				if err != nil {
					e.logger.Errorf("Context indexing failed for session %s: %v", state.SessionID, err)
				} else {
					state.CollectionID = collectionID
				}
			}
			state.State = models.UpdateChecklistState

		case models.UpdateChecklistState:
			before := autoFilledCount(state.Checklist)
			state.Checklist = checklist.ApplyResearch(state.Checklist, state.Findings, e.cfg.ConfidenceThreshold, time.Now().UTC())
			for i := autoFilledCount(state.Checklist) - before; i > 0; i-- {
				e.metrics.ItemAutoFilled()
			}
			state.Metrics = checklist.Completion(state.Checklist)
			if state.Metrics.Complete {
				state.State = models.FinalConfirmationState
			} else {
				state.State = models.GenerateQuestionState
			}

		case models.GenerateQuestionState:
			item, err := NextItem(state.Checklist)
			if err != nil {
				return TurnResult{}, errors.Wrap(err, "select next item")
			}
			if item == nil {
				state.State = models.FinalConfirmationState
				break
			}
			state.Checklist = checklist.MarkAsked(state.Checklist, item.Key, time.Now().UTC())
			state.CurrentItemKey = item.Key
			if len(clarify) == 0 {
				clarify = state.LastValidationErrors
			}
			prompt := e.questions.Phrase(ctx, state, *item, clarify)
			state.LastValidationErrors = nil
			clarify = nil
			state.AppendMessage(models.AssistantMessageRole, prompt)
			state.State = models.AwaitResponseState

		case models.AwaitResponseState:
			// The only suspension point: checkpoint and hand control
			// back to the caller until a response arrives.
			if err := e.checkpoint(ctx, state); err != nil {
				return TurnResult{}, err
			}
			return e.result(state, lastAssistantMessage(state)), nil

		case models.ProcessResponseState:
			confused, clarify = e.processResponse(ctx, state, input)

		case models.EvaluateContinuationState:
			state.State = e.determineNextAction(state, input, confused)
			confused = false

		case models.EscalateState:
			return e.escalate(ctx, state)

		case models.FinalConfirmationState:
			state.Metrics = checklist.Completion(state.Checklist)
			state.AppendMessage(models.AssistantMessageRole, e.summary(state))
			state.State = models.SaveResultsState

		case models.SaveResultsState:
			state.Status = models.CompletedSessionStatus
			state.State = models.EndState

		case models.EndState:
			if err := e.checkpoint(ctx, state); err != nil {
				return TurnResult{}, err
			}
			e.release(state.SessionID)
			if state.Status == models.CompletedSessionStatus {
				e.metrics.SessionCompleted()
			}
			e.logger.Infof("Session %s finished with status %s", state.SessionID, state.Status)
			return e.result(state, lastAssistantMessage(state)), nil
		}

		e.logger.Debugf("Session %s: %s -> %s", state.SessionID, prev, state.State)
		if err := e.checkpoint(ctx, state); err != nil {
			return TurnResult{}, err
		}
	}
}

// routeAfterIntake scores how much of the checklist the free-form
// intake answer already addresses and routes accordingly. Returns the
// confusion signal from the validation layer.
func (e *Engine) routeAfterIntake(ctx context.Context, state *models.WorkflowState, input string) bool {
	res, err := e.validator.Validate(ctx, input, models.ChecklistItem{Key: "intake", ValueKind: "text"})
	if err != nil {
		e.logger.Errorf("Intake validation failed for session %s: %v", state.SessionID, err)
	}
	if res.Confused {
		state.State = models.EscalateState
		return true
	}

	score := intakeSatisfaction(state.Checklist, input)
	e.logger.Infof("Session %s intake satisfaction %.2f", state.SessionID, score)
	if score >= e.cfg.IntakeSkipScore {
		state.State = models.UpdateChecklistState
	} else {
		state.State = models.ResearchDecisionState
	}
	return false
}

// intakeSatisfaction is the priority-weighted fraction of required,
// unresolved checklist items whose key or category terms occur in the
// intake text. Monotonic in the number of items addressed.
func intakeSatisfaction(items []models.ChecklistItem, text string) float64 {
	lower := strings.ToLower(text)
	var total, addressed float64
	for _, it := range items {
		if !it.Required || it.Terminal() {
			continue
		}
		weight := float64(4 - it.Priority.Rank())
		total += weight
		if mentionsItem(lower, it) {
			addressed += weight
		}
	}
	if total == 0 {
		return 1
	}
	return addressed / total
}

func mentionsItem(lowerText string, it models.ChecklistItem) bool {
	terms := strings.Split(it.Key, "_")
	terms = append(terms, it.Category)
	for _, t := range terms {
		if len(t) < 3 {
			continue
		}
		if strings.Contains(lowerText, t) {
			return true
		}
	}
	return false
}

// processResponse validates the answer against the outstanding item and
// applies it. Returns the confusion signal and any clarification
// errors.
func (e *Engine) processResponse(ctx context.Context, state *models.WorkflowState, input string) (bool, []string) {
	defer func() { state.State = models.EvaluateContinuationState }()

	item := state.Item(state.CurrentItemKey)
	if item == nil {
		e.logger.Errorf("Session %s has no outstanding item for response", state.SessionID)
		return false, nil
	}

	res, err := e.validator.Validate(ctx, input, *item)
	if err != nil {
		// Collaborator failure is not the user's fault: re-ask rather
		// than surfacing a raw error.
		e.logger.Errorf("Validation error for session %s item %s: %v", state.SessionID, item.Key, err)
		res = validation.Result{Errors: []string{"could not check the answer, please rephrase"}}
	}
	if res.Confused {
		return true, nil
	}

	updated, outcome := checklist.ApplyAnswer(state.Checklist, item.Key, res, time.Now().UTC())
	state.Checklist = updated
	if outcome.NeedsClarification {
		state.ValidationFailures++
		state.LastValidationErrors = outcome.Errors
		return false, outcome.Errors
	}
	if outcome.Verified {
		state.CurrentItemKey = ""
		state.LastValidationErrors = nil
	}
	state.Metrics = checklist.Completion(state.Checklist)
	return false, nil
}

// determineNextAction picks the next state, in strict priority order:
// completion, escalation, research, next question.
func (e *Engine) determineNextAction(state *models.WorkflowState, input string, confused bool) models.EngineState {
	state.Metrics = checklist.Completion(state.Checklist)
	if state.Metrics.Complete {
		return models.FinalConfirmationState
	}
	if reason, yes := e.escalator.Evaluate(state, input, confused); yes {
		state.EscalationReason = reason
		return models.EscalateState
	}
	if e.shouldResearch(state) {
		return models.ResearchDecisionState
	}
	return models.UpdateChecklistState
}

// shouldResearch gates research on volume and a cooldown so a pass does
// not rerun on every turn.
func (e *Engine) shouldResearch(state *models.WorkflowState) bool {
	if checklist.PendingCount(state.Checklist) <= e.cfg.ResearchPendingThreshold {
		return false
	}
	if state.LastResearchAt == nil {
		return true
	}
	return time.Since(*state.LastResearchAt) > e.cfg.ResearchCooldown
}

// escalate builds the handoff record, persists it, notifies the human
// queue, and suspends the session as ESCALATED.
func (e *Engine) escalate(ctx context.Context, state *models.WorkflowState) (TurnResult, error) {
	if state.EscalationReason == "" {
		state.EscalationReason = "confusion detected in user response"
	}

	msgs := state.Messages
	if len(msgs) > e.cfg.HandoffMessageCount {
		msgs = msgs[len(msgs)-e.cfg.HandoffMessageCount:]
	}
	rec := models.HandoffRecord{
		SessionID: state.SessionID,
		Reason:    state.EscalationReason,
		Messages:  append([]models.Message(nil), msgs...),
		Checklist: append([]models.ChecklistItem(nil), state.Checklist...),
		CreatedAt: time.Now().UTC(),
	}

	ticketID, err := e.notifier.Escalate(ctx, rec)
	if err != nil {
		e.logger.Errorf("Escalation notify failed for session %s: %v", state.SessionID, err)
		ticketID = "ticket-" + uuid.New().String()[:8]
	}
	rec.TicketID = ticketID

	state.Status = models.EscalatedSessionStatus
	if err := e.persistEscalation(state, rec); err != nil {
		e.logger.Errorf("Failed to persist handoff for session %s: %v", state.SessionID, err)
		// The escalated status still has to land; the checkpoint retry
		// path owns its durability.
		if err := e.checkpoint(ctx, state); err != nil {
			return TurnResult{}, err
		}
	}
	e.metrics.SessionEscalated(state.EscalationReason)
	e.logger.Infof("Session %s escalated (%s), ticket %s", state.SessionID, state.EscalationReason, ticketID)

	res := e.result(state, "")
	res.Escalated = true
	res.TicketID = ticketID
	return res, nil
}

func (e *Engine) summary(state *models.WorkflowState) string {
	var lines []string
	for _, it := range state.Checklist {
		if it.Resolved() {
			lines = append(lines, fmt.Sprintf("- %s: %s", it.Key, it.Value))
		}
	}
	return fmt.Sprintf("That's everything I need. Here's what we have:\n%s\nWe'll take it from here.", strings.Join(lines, "\n"))
}

// providerInfo summarizes what is known about the client for research
// query synthesis.
func (e *Engine) providerInfo(state *models.WorkflowState) string {
	var parts []string
	parts = append(parts, strings.ReplaceAll(state.ServiceType, "_", " "))
	for k, v := range state.Profile {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	for _, m := range state.Messages {
		if m.Role == models.UserMessageRole {
			parts = append(parts, m.Content)
			break
		}
	}
	return strings.Join(parts, "; ")
}

// persistEscalation writes the handoff record and the escalated session
// state in a single transaction, so a handoff row never exists without
// its session marked ESCALATED.
func (e *Engine) persistEscalation(state *models.WorkflowState, rec models.HandoffRecord) error {
	state.UpdatedAt = time.Now().UTC()
	tx, err := e.store.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.SaveHandoff(rec); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.SaveSession(*state); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// release drops per-session resources once a session reaches a terminal
// state. The research cache and the turn lock are both keyed by session
// ID and have nothing left to serve.
func (e *Engine) release(sessionID string) {
	e.research.ForgetSession(sessionID)
	e.locks.Delete(sessionID)
}

// checkpoint persists the state with bounded retries. Exhausted retries
// flip the session to RECOVERABLE_ERROR and surface the failure; the
// state is never silently lost.
func (e *Engine) checkpoint(ctx context.Context, state *models.WorkflowState) error {
	state.UpdatedAt = time.Now().UTC()

	var err error
	backoff := e.cfg.CheckpointBackoff
	for attempt := 0; attempt <= e.cfg.CheckpointRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if err = e.store.SaveSession(*state); err == nil {
			return nil
		}
		e.logger.Errorf("Checkpoint attempt %d failed for session %s: %v", attempt+1, state.SessionID, err)
	}

	state.Status = models.RecoverableErrorSessionStatus
	return errors.Wrapf(err, "checkpoint failed for session %s after %d attempts", state.SessionID, e.cfg.CheckpointRetries+1)
}

func (e *Engine) load(sessionID string) (*models.WorkflowState, error) {
	state, err := e.store.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errors.Wrapf(ErrSessionNotFound, "%s", sessionID)
		}
		return nil, err
	}
	return &state, nil
}

func (e *Engine) result(state *models.WorkflowState, prompt string) TurnResult {
	return TurnResult{
		SessionID:  state.SessionID,
		Prompt:     prompt,
		Status:     state.Status,
		State:      state.State,
		Completion: state.Metrics,
		Done:       state.Status != models.ActiveSessionStatus,
	}
}

func lastAssistantMessage(state *models.WorkflowState) string {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == models.AssistantMessageRole {
			return state.Messages[i].Content
		}
	}
	return ""
}

func autoFilledCount(items []models.ChecklistItem) int {
	n := 0
	for _, it := range items {
		if it.Status == models.AutoFilledItemStatus {
			n++
		}
	}
	return n
}
