package research_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Jubii100/Growbal-sub000/pkg/checklist"
	"github.com/Jubii100/Growbal-sub000/pkg/models"
	"github.com/Jubii100/Growbal-sub000/pkg/research"
	"github.com/stretchr/testify/assert"
)

type testLogger struct{}

func (testLogger) Infof(string, ...interface{})  {}
func (testLogger) Errorf(string, ...interface{}) {}

// recordingBackend wraps a StaticBackend and records the priority of
// every query it serves, in arrival order.
type recordingBackend struct {
	research.StaticBackend

	mu         sync.Mutex
	priorities []models.Priority
	calls      int
}

func (b *recordingBackend) Search(ctx context.Context, q models.ResearchQuery) ([]research.RawResult, error) {
	b.mu.Lock()
	b.priorities = append(b.priorities, q.Priority)
	b.calls++
	b.mu.Unlock()
	return b.StaticBackend.Search(ctx, q)
}

func researchItem(key, category string, priority models.Priority) models.ChecklistItem {
	return models.ChecklistItem{
		Key:              key,
		Prompt:           "What is " + key + "?",
		Category:         category,
		Required:         true,
		Priority:         priority,
		RequiresResearch: true,
		Status:           models.PendingItemStatus,
	}
}

func TestIdentifyGaps(t *testing.T) {
	o := research.NewOrchestrator(nil, research.DefaultConfig(), testLogger{})
	items := []models.ChecklistItem{
		researchItem("jurisdiction", "legal", models.HighPriority),
		{Key: "full_name", Status: models.PendingItemStatus},                          // not flagged for research
		{Key: "company_name", RequiresResearch: true, Status: models.AskedItemStatus}, // not PENDING
	}
	gaps := o.IdentifyGaps(items)
	assert.Len(t, gaps, 1)
	assert.Equal(t, "jurisdiction", gaps[0].Key)
	assert.Equal(t, "What is jurisdiction?", gaps[0].Intent)
}

func TestBuildQueries(t *testing.T) {
	t.Run("GroupsByCategoryWithHighestPriority", func(t *testing.T) {
		o := research.NewOrchestrator(nil, research.DefaultConfig(), testLogger{})
		gaps := o.IdentifyGaps([]models.ChecklistItem{
			researchItem("legal_structure", "legal", models.CriticalPriority),
			researchItem("jurisdiction", "legal", models.HighPriority),
			researchItem("office_type", "operations", models.MediumPriority),
		})
		queries := o.BuildQueries(gaps, "Acme Trading")

		assert.Len(t, queries, 2)
		assert.Equal(t, models.CriticalPriority, queries[0].Priority)
		assert.ElementsMatch(t, []string{"legal_structure", "jurisdiction"}, queries[0].ChecklistKeys)
		assert.Equal(t, models.MediumPriority, queries[1].Priority)
		assert.Contains(t, queries[0].QueryText, "Acme Trading")
	})

	t.Run("CapsQueriesPerPass", func(t *testing.T) {
		o := research.NewOrchestrator(nil, research.Config{MaxQueriesPerPass: 2}, testLogger{})
		var gaps []research.Gap
		for _, cat := range []string{"a", "b", "c", "d"} {
			gaps = append(gaps, research.Gap{Key: cat + "_key", Intent: "?", Category: cat, Priority: models.LowPriority})
		}
		queries := o.BuildQueries(gaps, "client")
		assert.Len(t, queries, 2)
	})
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("CriticalBatchCompletesFirst", func(t *testing.T) {
		backend := &recordingBackend{StaticBackend: research.StaticBackend{
			Results: map[string]research.StaticResult{
				"legal_structure": {Value: "LLC", Confidence: 0.9},
				"office_type":     {Value: "flexi-desk", Confidence: 0.8},
			},
		}}
		o := research.NewOrchestrator([]research.Backend{backend}, research.DefaultConfig(), testLogger{})
		findings := o.Run(ctx, "s1", []models.ChecklistItem{
			researchItem("office_type", "operations", models.MediumPriority),
			researchItem("legal_structure", "legal", models.CriticalPriority),
		}, "client")

		assert.Len(t, findings, 2)
		assert.Equal(t, []models.Priority{models.CriticalPriority, models.MediumPriority}, backend.priorities)
	})

	t.Run("FailingBackendDoesNotPoisonBatch", func(t *testing.T) {
		failing := &research.StaticBackend{BackendName: "down", Err: errors.New("upstream 503")}
		working := &research.StaticBackend{BackendName: "up", Results: map[string]research.StaticResult{
			"jurisdiction": {Value: "DMCC", Confidence: 0.85},
		}}
		o := research.NewOrchestrator([]research.Backend{failing, working}, research.DefaultConfig(), testLogger{})
		findings := o.Run(ctx, "s1", []models.ChecklistItem{
			researchItem("jurisdiction", "legal", models.HighPriority),
		}, "client")

		assert.Len(t, findings, 1)
		assert.Equal(t, "DMCC", findings[0].Content)
		assert.Equal(t, "up", findings[0].Source)
	})

	t.Run("AllBackendsFailingYieldsNoFindings", func(t *testing.T) {
		failing := &research.StaticBackend{Err: errors.New("timeout")}
		o := research.NewOrchestrator([]research.Backend{failing}, research.DefaultConfig(), testLogger{})
		findings := o.Run(ctx, "s1", []models.ChecklistItem{
			researchItem("jurisdiction", "legal", models.HighPriority),
		}, "client")
		assert.Empty(t, findings)
	})

	t.Run("ConfidenceIsClamped", func(t *testing.T) {
		backend := &research.StaticBackend{Results: map[string]research.StaticResult{
			"jurisdiction": {Value: "DIFC", Confidence: 3.5},
		}}
		o := research.NewOrchestrator([]research.Backend{backend}, research.DefaultConfig(), testLogger{})
		findings := o.Run(ctx, "s1", []models.ChecklistItem{
			researchItem("jurisdiction", "legal", models.HighPriority),
		}, "client")
		assert.Len(t, findings, 1)
		assert.Equal(t, 1.0, findings[0].Confidence)
	})

	t.Run("UnparseablePayloadBecomesZeroConfidenceFinding", func(t *testing.T) {
		backend := &garbageBackend{}
		o := research.NewOrchestrator([]research.Backend{backend}, research.DefaultConfig(), testLogger{})
		findings := o.Execute(ctx, "s1", []models.ResearchQuery{{
			QueryText:     "anything",
			ChecklistKeys: []string{"jurisdiction"},
		}})
		assert.Len(t, findings, 1)
		assert.Equal(t, 0.0, findings[0].Confidence)
		assert.Equal(t, []string{"jurisdiction"}, findings[0].ChecklistKeys)
	})

	t.Run("TimedOutQueryIsSkippedNotFatal", func(t *testing.T) {
		slow := &blockingBackend{}
		fast := &research.StaticBackend{BackendName: "registry", Type: "registry", Results: map[string]research.StaticResult{
			"license_type": {Value: "commercial", Confidence: 0.9},
		}}
		o := research.NewOrchestrator([]research.Backend{slow, fast}, research.DefaultConfig(), testLogger{})

		findings := o.Execute(ctx, "s1", []models.ResearchQuery{
			{
				QueryText:     "registration requirements",
				SourceType:    "web",
				ChecklistKeys: []string{"registration_number"},
				Timeout:       20 * time.Millisecond,
			},
			{
				QueryText:     "license classification",
				SourceType:    "registry",
				ChecklistKeys: []string{"license_type"},
				Timeout:       5 * time.Second,
			},
		})

		assert.Len(t, findings, 1, "the surviving query's findings must come through")
		assert.Equal(t, []string{"license_type"}, findings[0].ChecklistKeys)
		assert.Equal(t, "commercial", findings[0].Content)

		items := checklist.ApplyResearch([]models.ChecklistItem{
			researchItem("license_type", "legal", models.HighPriority),
			researchItem("registration_number", "legal", models.HighPriority),
		}, findings, 0.75, time.Now().UTC())
		assert.Equal(t, models.AutoFilledItemStatus, items[0].Status)
		assert.Equal(t, "commercial", items[0].Value)
		assert.Equal(t, models.PendingItemStatus, items[1].Status, "the timed-out gap stays open for the interview")
	})

	t.Run("CancelledContextReturnsPartialResults", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		backend := &recordingBackend{}
		o := research.NewOrchestrator([]research.Backend{backend}, research.DefaultConfig(), testLogger{})
		findings := o.Execute(cancelled, "s1", []models.ResearchQuery{{
			QueryText:     "anything",
			ChecklistKeys: []string{"jurisdiction"},
		}})
		assert.Empty(t, findings)
		assert.Equal(t, 0, backend.calls)
	})
}

// blockingBackend never answers; Search returns only once the query's
// deadline expires.
type blockingBackend struct{}

func (blockingBackend) Name() string       { return "slow-web" }
func (blockingBackend) SourceType() string { return "web" }
func (blockingBackend) Search(ctx context.Context, _ models.ResearchQuery) ([]research.RawResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// garbageBackend returns a payload that is not the answer envelope.
type garbageBackend struct{}

func (garbageBackend) Name() string       { return "garbage" }
func (garbageBackend) SourceType() string { return "static" }
func (garbageBackend) Search(context.Context, models.ResearchQuery) ([]research.RawResult, error) {
	return []research.RawResult{{Payload: "sorry, I could not find anything", Source: "garbage"}}, nil
}

func TestQueryCache(t *testing.T) {
	ctx := context.Background()
	query := models.ResearchQuery{
		QueryText:     "Topic: legal",
		ChecklistKeys: []string{"jurisdiction"},
		Timeout:       time.Second,
	}
	backend := &recordingBackend{StaticBackend: research.StaticBackend{
		Results: map[string]research.StaticResult{
			"jurisdiction": {Value: "DMCC", Confidence: 0.85},
		},
	}}
	o := research.NewOrchestrator([]research.Backend{backend}, research.DefaultConfig(), testLogger{})

	first := o.Execute(ctx, "s1", []models.ResearchQuery{query})
	second := o.Execute(ctx, "s1", []models.ResearchQuery{query})
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.calls, "identical query within a session must hit the cache")

	// Another session never shares the cache.
	o.Execute(ctx, "s2", []models.ResearchQuery{query})
	assert.Equal(t, 2, backend.calls)

	// Dropping the session cache forces re-execution.
	o.ForgetSession("s1")
	o.Execute(ctx, "s1", []models.ResearchQuery{query})
	assert.Equal(t, 3, backend.calls)
}
