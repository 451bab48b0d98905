package engine_test

import (
	"testing"

	"github.com/Jubii100/Growbal-sub000/pkg/engine"
	"github.com/Jubii100/Growbal-sub000/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestEscalationEvaluator(t *testing.T) {
	ev := engine.EscalationEvaluator{AttemptCap: 3, ValidationFailureCap: 2}

	t.Run("NoTriggers", func(t *testing.T) {
		s := &models.WorkflowState{
			Checklist:          []models.ChecklistItem{{Key: "a", Attempts: 3}},
			ValidationFailures: 2,
		}
		_, yes := ev.Evaluate(s, "here is my answer", false)
		assert.False(t, yes, "values at the cap do not escalate, only above it")
	})

	t.Run("Confusion", func(t *testing.T) {
		reason, yes := ev.Evaluate(&models.WorkflowState{}, "anything", true)
		assert.True(t, yes)
		assert.Contains(t, reason, "confusion")
	})

	t.Run("AttemptsExceedCap", func(t *testing.T) {
		s := &models.WorkflowState{Checklist: []models.ChecklistItem{{Key: "contact_email", Attempts: 4}}}
		reason, yes := ev.Evaluate(s, "", false)
		assert.True(t, yes)
		assert.Contains(t, reason, "contact_email")
	})

	t.Run("FailuresExceedCap", func(t *testing.T) {
		s := &models.WorkflowState{ValidationFailures: 3}
		reason, yes := ev.Evaluate(s, "", false)
		assert.True(t, yes)
		assert.Contains(t, reason, "validation failures")
	})

	t.Run("HelpIntent", func(t *testing.T) {
		for _, text := range []string{
			"I need HELP with this",
			"can I talk to someone",
			"get me a human please",
			"transfer me to an agent",
		} {
			reason, yes := ev.Evaluate(&models.WorkflowState{}, text, false)
			assert.True(t, yes, "expected %q to escalate", text)
			assert.Equal(t, "user requested human assistance", reason)
		}
	})

	t.Run("HelpIntentIgnoresSubstrings", func(t *testing.T) {
		for _, text := range []string{
			"the company is Helpful Ventures LLC",
			"we operate in humanitarian logistics",
		} {
			_, yes := ev.Evaluate(&models.WorkflowState{}, text, false)
			assert.False(t, yes, "expected %q not to escalate", text)
		}
	})

	t.Run("EmptyResponseNeverMatchesHelp", func(t *testing.T) {
		_, yes := ev.Evaluate(&models.WorkflowState{}, "", false)
		assert.False(t, yes)
	})
}
