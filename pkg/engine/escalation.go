package engine

import (
	"fmt"
	"regexp"

	"github.com/Jubii100/Growbal-sub000/pkg/models"
)

// helpIntentRe matches explicit requests for human assistance. The
// check is deliberately a fixed keyword match, not a fuzzy one, so the
// escalation boundary stays testable.
var helpIntentRe = regexp.MustCompile(`(?i)\b(help|human|agent|support|representative|operator)\b|\b(talk|speak) to someone\b`)

// EscalationEvaluator decides, from session history, whether to hand
// the session off to a human. Escalation is a normal transition, not an
// error.
type EscalationEvaluator struct {
	AttemptCap           int
	ValidationFailureCap int
}

// HelpRequested reports whether the raw response contains an explicit
// help-request signal.
func (e EscalationEvaluator) HelpRequested(text string) bool {
	return helpIntentRe.MatchString(text)
}

// Evaluate returns the escalation reason and true when any trigger
// holds: an item's attempts exceed the cap, the session's validation
// failure count exceeds the cap, the response being processed this turn
// explicitly asks for a human, or the validation layer flagged
// confusion. No other condition escalates.
func (e EscalationEvaluator) Evaluate(s *models.WorkflowState, rawResponse string, confused bool) (string, bool) {
	if confused {
		return "confusion detected in user response", true
	}
	for _, it := range s.Checklist {
		if it.Attempts > e.AttemptCap {
			return fmt.Sprintf("item %q exceeded %d ask attempts", it.Key, e.AttemptCap), true
		}
	}
	if s.ValidationFailures > e.ValidationFailureCap {
		return fmt.Sprintf("session exceeded %d validation failures", e.ValidationFailureCap), true
	}
	if rawResponse != "" && e.HelpRequested(rawResponse) {
		return "user requested human assistance", true
	}
	return "", false
}
