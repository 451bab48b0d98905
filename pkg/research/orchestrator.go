// Package research turns checklist gaps into prioritized queries,
// executes them concurrently against pluggable backends, and returns
// confidence-scored findings. Backend failures are strictly per-query:
// a batch never fails because one source did.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Jubii100/Growbal-sub000/pkg/models"
)

// Logger is the narrow logging interface the orchestrator needs.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Gap is a PENDING checklist item flagged for research, carrying the
// item's prompt as the research intent.
type Gap struct {
	Key      string
	Intent   string
	Category string
	Priority models.Priority
}

// Config holds the orchestrator tunables.
type Config struct {
	MaxQueriesPerPass int           // Cap on queries per research pass
	QueryTimeout      time.Duration // Independent timeout per query
	MaxResults        int           // Max results requested per query
}

func DefaultConfig() Config {
	return Config{
		MaxQueriesPerPass: 10,
		QueryTimeout:      15 * time.Second,
		MaxResults:        5,
	}
}

// Orchestrator fans research queries out to the configured backends
// with bounded concurrency. It is shared across sessions; the query
// cache is per session.
type Orchestrator struct {
	backends []Backend
	cfg      Config
	logger   Logger

	mu     sync.Mutex
	caches map[string]*queryCache // keyed by session ID
}

func NewOrchestrator(backends []Backend, cfg Config, logger Logger) *Orchestrator {
	if cfg.MaxQueriesPerPass <= 0 {
		cfg.MaxQueriesPerPass = DefaultConfig().MaxQueriesPerPass
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultConfig().QueryTimeout
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig().MaxResults
	}
	return &Orchestrator{
		backends: backends,
		cfg:      cfg,
		logger:   logger,
		caches:   make(map[string]*queryCache),
	}
}

// IdentifyGaps returns the PENDING items flagged for research.
func (o *Orchestrator) IdentifyGaps(items []models.ChecklistItem) []Gap {
	var gaps []Gap
	for _, it := range items {
		if it.Status != models.PendingItemStatus || !it.RequiresResearch {
			continue
		}
		gaps = append(gaps, Gap{
			Key:      it.Key,
			Intent:   it.Prompt,
			Category: it.Category,
			Priority: it.Priority,
		})
	}
	return gaps
}

// BuildQueries groups gaps by category into at most one query per
// group, capped at MaxQueriesPerPass. Each query takes the highest
// priority among its gaps.
func (o *Orchestrator) BuildQueries(gaps []Gap, providerInfo string) []models.ResearchQuery {
	groups := make(map[string][]Gap)
	var order []string
	for _, g := range gaps {
		if _, ok := groups[g.Category]; !ok {
			order = append(order, g.Category)
		}
		groups[g.Category] = append(groups[g.Category], g)
	}

	var queries []models.ResearchQuery
	for _, category := range order {
		group := groups[category]
		priority := models.LowPriority
		var keys, intents []string
		for _, g := range group {
			keys = append(keys, g.Key)
			intents = append(intents, g.Intent)
			if g.Priority.Rank() < priority.Rank() {
				priority = g.Priority
			}
		}
		text := fmt.Sprintf("Client: %s. Topic: %s. Questions: %s", providerInfo, category, strings.Join(intents, " "))
		queries = append(queries, models.ResearchQuery{
			QueryText:     text,
			Priority:      priority,
			ChecklistKeys: keys,
			MaxResults:    o.cfg.MaxResults,
			Timeout:       o.cfg.QueryTimeout,
		})
	}

	sort.SliceStable(queries, func(i, j int) bool {
		return queries[i].Priority.Rank() < queries[j].Priority.Rank()
	})
	if len(queries) > o.cfg.MaxQueriesPerPass {
		queries = queries[:o.cfg.MaxQueriesPerPass]
	}
	return queries
}

// Run is the full research pass: identify gaps, build queries, execute.
func (o *Orchestrator) Run(ctx context.Context, sessionID string, items []models.ChecklistItem, providerInfo string) []models.ResearchFinding {
	gaps := o.IdentifyGaps(items)
	if len(gaps) == 0 {
		return nil
	}
	queries := o.BuildQueries(gaps, providerInfo)
	return o.Execute(ctx, sessionID, queries)
}

// Execute runs the batch: the CRITICAL batch completes fully before any
// other query starts, then the remaining queries run concurrently with
// each other through a worker pool sized to the backend count. A
// timed-out or erroring query yields no findings for its gaps and is
// logged; it is never fatal to the batch. Cancelling ctx stops the
// batch and returns whatever completed.
func (o *Orchestrator) Execute(ctx context.Context, sessionID string, queries []models.ResearchQuery) []models.ResearchFinding {
	var critical, rest []models.ResearchQuery
	for _, q := range queries {
		if q.Priority == models.CriticalPriority {
			critical = append(critical, q)
		} else {
			rest = append(rest, q)
		}
	}

	cache := o.sessionCache(sessionID)
	findings := o.runBatch(ctx, cache, critical)
	if ctx.Err() != nil {
		return findings
	}
	return append(findings, o.runBatch(ctx, cache, rest)...)
}

func (o *Orchestrator) runBatch(ctx context.Context, cache *queryCache, queries []models.ResearchQuery) []models.ResearchFinding {
	if len(queries) == 0 {
		return nil
	}

	workers := len(o.backends)
	if workers < 1 {
		workers = 1
	}
	if workers > len(queries) {
		workers = len(queries)
	}

	queryChan := make(chan models.ResearchQuery)
	results := make([][]models.ResearchFinding, 0, len(queries))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range queryChan {
				if ctx.Err() != nil {
					return
				}
				fs := o.runQuery(ctx, cache, q)
				mu.Lock()
				results = append(results, fs)
				mu.Unlock()
			}
		}()
	}

	for _, q := range queries {
		select {
		case queryChan <- q:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(queryChan)
	wg.Wait()

	var out []models.ResearchFinding
	for _, fs := range results {
		out = append(out, fs...)
	}
	return out
}

// runQuery executes one query against the matching backends, with the
// query's independent timeout. A cache hit short-circuits execution.
func (o *Orchestrator) runQuery(ctx context.Context, cache *queryCache, q models.ResearchQuery) []models.ResearchFinding {
	if cached, ok := cache.get(q.QueryText, q.SourceType); ok {
		o.logger.Infof("Research cache hit for query %q", truncateQuery(q.QueryText))
		return cached
	}

	timeout := q.Timeout
	if timeout <= 0 {
		timeout = o.cfg.QueryTimeout
	}
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		findings  []models.ResearchFinding
		succeeded bool
	)
	for _, backend := range o.backends {
		if q.SourceType != "" && backend.SourceType() != q.SourceType {
			continue
		}
		raw, err := backend.Search(queryCtx, q)
		if err != nil {
			o.logger.Errorf("Research backend %s failed for query %q: %v", backend.Name(), truncateQuery(q.QueryText), err)
			continue
		}
		succeeded = true
		findings = append(findings, o.extractFindings(raw, q)...)
	}

	// Failed queries are not cached so a later pass can retry them.
	if succeeded {
		cache.put(q.QueryText, q.SourceType, findings)
	}
	return findings
}

// extractFindings parses backend payloads into scored findings.
// Confidence is clamped to [0,1]; a payload that fails to parse becomes
// a zero-confidence finding rather than an error.
func (o *Orchestrator) extractFindings(raw []RawResult, q models.ResearchQuery) []models.ResearchFinding {
	targeted := make(map[string]struct{}, len(q.ChecklistKeys))
	for _, k := range q.ChecklistKeys {
		targeted[k] = struct{}{}
	}

	now := time.Now().UTC()
	var findings []models.ResearchFinding
	for _, r := range raw {
		var env answerEnvelope
		if err := json.Unmarshal([]byte(r.Payload), &env); err != nil {
			o.logger.Errorf("Unparseable research payload from %s: %v", r.Source, err)
			findings = append(findings, models.ResearchFinding{
				Content:       truncateQuery(r.Payload),
				Source:        r.Source,
				Confidence:    0,
				ChecklistKeys: q.ChecklistKeys,
				Timestamp:     now,
			})
			continue
		}
		for _, a := range env.Answers {
			if _, ok := targeted[a.Key]; !ok {
				continue
			}
			findings = append(findings, models.ResearchFinding{
				Content:       a.Value,
				Source:        r.Source,
				Confidence:    clamp01(a.Confidence),
				ChecklistKeys: []string{a.Key},
				Timestamp:     now,
			})
		}
	}
	return findings
}

// ForgetSession drops the session's query cache. Called when a session
// reaches a terminal state.
func (o *Orchestrator) ForgetSession(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.caches, sessionID)
}

func (o *Orchestrator) sessionCache(sessionID string) *queryCache {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.caches[sessionID]
	if !ok {
		c = newQueryCache()
		o.caches[sessionID] = c
	}
	return c
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func truncateQuery(s string) string {
	if len(s) <= 80 {
		return s
	}
	return s[:80] + "..."
}
