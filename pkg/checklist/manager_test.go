package checklist_test

import (
	"testing"
	"time"

	"github.com/Jubii100/Growbal-sub000/pkg/checklist"
	"github.com/Jubii100/Growbal-sub000/pkg/models"
	"github.com/Jubii100/Growbal-sub000/pkg/validation"
	"github.com/stretchr/testify/assert"
)

func item(key string, required bool, priority models.Priority, deps ...string) models.ChecklistItem {
	return models.ChecklistItem{
		Key:          key,
		Prompt:       "What is " + key + "?",
		Category:     "general",
		Required:     required,
		Priority:     priority,
		Dependencies: deps,
		Status:       models.PendingItemStatus,
	}
}

func keys(items []models.ChecklistItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Key)
	}
	return out
}

func TestReorder(t *testing.T) {
	t.Run("DependencyNeverPrecedesDependent", func(t *testing.T) {
		items := []models.ChecklistItem{
			item("tax_id", true, models.CriticalPriority, "name"),
			item("bank", true, models.HighPriority, "tax_id"),
			item("name", true, models.LowPriority),
		}
		ordered, err := checklist.Reorder(items)
		assert.NoError(t, err)

		pos := make(map[string]int)
		for i, it := range ordered {
			pos[it.Key] = i
		}
		for _, it := range ordered {
			for _, dep := range it.Dependencies {
				assert.Less(t, pos[dep], pos[it.Key], "item %s placed before its dependency %s", it.Key, dep)
			}
		}
	})

	t.Run("RequiredBeforeOptionalThenPriority", func(t *testing.T) {
		items := []models.ChecklistItem{
			item("opt_critical", false, models.CriticalPriority),
			item("req_low", true, models.LowPriority),
			item("req_high", true, models.HighPriority),
			item("req_high_later", true, models.HighPriority),
		}
		ordered, err := checklist.Reorder(items)
		assert.NoError(t, err)
		assert.Equal(t, []string{"req_high", "req_high_later", "req_low", "opt_critical"}, keys(ordered))
	})

	t.Run("CycleIsStructuralError", func(t *testing.T) {
		items := []models.ChecklistItem{
			item("a", true, models.HighPriority, "b"),
			item("b", true, models.HighPriority, "a"),
		}
		_, err := checklist.Reorder(items)
		assert.ErrorIs(t, err, checklist.ErrCycle)
	})

	t.Run("UnknownDependencyIsError", func(t *testing.T) {
		items := []models.ChecklistItem{
			item("a", true, models.HighPriority, "ghost"),
		}
		_, err := checklist.Reorder(items)
		assert.ErrorIs(t, err, checklist.ErrUnknownDependency)
	})
}

func TestApplyAnswer(t *testing.T) {
	now := time.Now().UTC()

	t.Run("ValidAnswerVerifies", func(t *testing.T) {
		items := checklist.MarkAsked([]models.ChecklistItem{item("name", true, models.HighPriority)}, "name", now)
		updated, outcome := checklist.ApplyAnswer(items, "name", validation.Result{Valid: true, Normalized: "Acme LLC"}, now)
		assert.True(t, outcome.Applied)
		assert.True(t, outcome.Verified)
		assert.Equal(t, models.VerifiedItemStatus, updated[0].Status)
		assert.Equal(t, "Acme LLC", updated[0].Value)
		assert.Equal(t, models.UserValueSource, updated[0].Source)
		assert.Equal(t, 0, updated[0].Attempts)
	})

	t.Run("InvalidAnswerNeedsClarification", func(t *testing.T) {
		items := checklist.MarkAsked([]models.ChecklistItem{item("name", true, models.HighPriority)}, "name", now)
		updated, outcome := checklist.ApplyAnswer(items, "name", validation.Result{Errors: []string{"empty"}}, now)
		assert.True(t, outcome.Applied)
		assert.True(t, outcome.NeedsClarification)
		assert.Equal(t, models.NeedsClarificationItemStatus, updated[0].Status)
		assert.Empty(t, updated[0].Value)
	})

	t.Run("ReplayOnVerifiedItemIsNoOp", func(t *testing.T) {
		items := checklist.MarkAsked([]models.ChecklistItem{item("name", true, models.HighPriority)}, "name", now)
		items, _ = checklist.ApplyAnswer(items, "name", validation.Result{Valid: true, Normalized: "Acme LLC"}, now)
		replayed, outcome := checklist.ApplyAnswer(items, "name", validation.Result{Valid: true, Normalized: "Acme LLC"}, now)
		assert.False(t, outcome.Applied)
		assert.Equal(t, items, replayed)
	})

	t.Run("PendingItemIsNotWritable", func(t *testing.T) {
		items := []models.ChecklistItem{item("name", true, models.HighPriority)}
		updated, outcome := checklist.ApplyAnswer(items, "name", validation.Result{Valid: true, Normalized: "x"}, now)
		assert.False(t, outcome.Applied)
		assert.Equal(t, models.PendingItemStatus, updated[0].Status)
	})
}

func TestApplyResearch(t *testing.T) {
	now := time.Now().UTC()
	finding := func(key string, confidence float64, content string) models.ResearchFinding {
		return models.ResearchFinding{
			Content:       content,
			Source:        "registry",
			Confidence:    confidence,
			ChecklistKeys: []string{key},
			Timestamp:     now,
		}
	}

	t.Run("BelowThresholdStaysPending", func(t *testing.T) {
		items := []models.ChecklistItem{item("registration_number", true, models.HighPriority)}
		updated := checklist.ApplyResearch(items, []models.ResearchFinding{finding("registration_number", 0.6, "RN-1")}, 0.75, now)
		assert.Equal(t, models.PendingItemStatus, updated[0].Status)
		assert.Empty(t, updated[0].Value)
	})

	t.Run("AtThresholdAutoFills", func(t *testing.T) {
		items := []models.ChecklistItem{item("license_type", true, models.HighPriority)}
		updated := checklist.ApplyResearch(items, []models.ResearchFinding{finding("license_type", 0.9, "commercial")}, 0.75, now)
		assert.Equal(t, models.AutoFilledItemStatus, updated[0].Status)
		assert.Equal(t, "commercial", updated[0].Value)
		assert.Equal(t, 0.9, updated[0].Confidence)
		assert.Equal(t, models.ResearchValueSource, updated[0].Source)
	})

	t.Run("HighestConfidenceFindingWins", func(t *testing.T) {
		items := []models.ChecklistItem{item("jurisdiction", true, models.HighPriority)}
		findings := []models.ResearchFinding{
			finding("jurisdiction", 0.8, "DMCC"),
			finding("jurisdiction", 0.95, "DIFC"),
			finding("jurisdiction", 0.5, "mainland"),
		}
		updated := checklist.ApplyResearch(items, findings, 0.75, now)
		assert.Equal(t, "DIFC", updated[0].Value)
	})

	t.Run("NonPendingItemsUntouched", func(t *testing.T) {
		items := []models.ChecklistItem{item("name", true, models.HighPriority)}
		items = checklist.MarkAsked(items, "name", now)
		items, _ = checklist.ApplyAnswer(items, "name", validation.Result{Valid: true, Normalized: "user value"}, now)
		updated := checklist.ApplyResearch(items, []models.ResearchFinding{finding("name", 0.99, "research value")}, 0.75, now)
		assert.Equal(t, "user value", updated[0].Value)
		assert.Equal(t, models.VerifiedItemStatus, updated[0].Status)
	})
}

func TestAddDynamicItems(t *testing.T) {
	items := []models.ChecklistItem{item("name", true, models.HighPriority)}
	discovered := []models.ChecklistItem{
		item("name", true, models.LowPriority), // duplicate key, ignored
		item("import_code", false, models.MediumPriority),
	}
	updated := checklist.AddDynamicItems(items, discovered)
	assert.Equal(t, []string{"name", "import_code"}, keys(updated))
	assert.Equal(t, models.HighPriority, updated[0].Priority)

	// Replaying the same discovery changes nothing.
	replayed := checklist.AddDynamicItems(updated, discovered)
	assert.Equal(t, updated, replayed)
}

func TestMarkNotApplicable(t *testing.T) {
	now := time.Now().UTC()
	items := []models.ChecklistItem{
		item("name", true, models.HighPriority),
		item("visa_count", true, models.LowPriority),
	}
	items = checklist.MarkAsked(items, "name", now)
	items, _ = checklist.ApplyAnswer(items, "name", validation.Result{Valid: true, Normalized: "x"}, now)

	updated := checklist.MarkNotApplicable(items, func(it models.ChecklistItem) bool {
		return it.Key != "visa_count"
	})
	assert.Equal(t, models.NotApplicableItemStatus, updated[1].Status)
	// Resolved items are never demoted.
	assert.Equal(t, models.VerifiedItemStatus, updated[0].Status)

	// One-way: a now-relevant predicate does not re-activate it.
	again := checklist.MarkNotApplicable(updated, func(models.ChecklistItem) bool { return true })
	assert.Equal(t, models.NotApplicableItemStatus, again[1].Status)

	m := checklist.Completion(updated)
	assert.Equal(t, 1, m.RequiredTotal)
	assert.True(t, m.Complete)
}

func TestCompletion(t *testing.T) {
	now := time.Now().UTC()
	items := []models.ChecklistItem{
		item("a", true, models.HighPriority),
		item("b", true, models.HighPriority),
		item("c", false, models.LowPriority),
	}
	m := checklist.Completion(items)
	assert.Equal(t, 2, m.RequiredTotal)
	assert.Equal(t, 0, m.RequiredResolved)
	assert.False(t, m.Complete)

	items = checklist.MarkAsked(items, "a", now)
	items, _ = checklist.ApplyAnswer(items, "a", validation.Result{Valid: true, Normalized: "x"}, now)
	items = checklist.ApplyResearch(items, []models.ResearchFinding{{
		Content: "y", Confidence: 0.8, ChecklistKeys: []string{"b"},
	}}, 0.75, now)

	m = checklist.Completion(items)
	assert.Equal(t, 2, m.RequiredResolved)
	assert.True(t, m.Complete, "optional items never block completion")
	assert.Equal(t, 1.0, m.Ratio)
}
