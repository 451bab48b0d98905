// Package validation defines the contract used to check raw user
// answers against a checklist item's expected shape, plus a rule-based
// implementation that covers the built-in value kinds. LLM-backed
// validators can replace it behind the same interface.
package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Jubii100/Growbal-sub000/pkg/models"
)

// Result is the structured outcome of validating a raw answer.
type Result struct {
	Valid      bool     `json:"valid"`
	Normalized string   `json:"normalized_value,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	// Confused is the explicit ambiguity signal: the answer is not
	// merely invalid but indicates the user does not understand what
	// is being asked. The engine treats it as an escalation trigger.
	Confused bool `json:"confused,omitempty"`
}

// Validator checks a raw answer against an item's expected shape.
type Validator interface {
	Validate(ctx context.Context, raw string, item models.ChecklistItem) (Result, error)
}

var (
	emailRe  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	numberRe = regexp.MustCompile(`^-?\d+([.,]\d+)?$`)
	dateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// confusionPhrases are answers that signal the user does not understand
// the question rather than answering it badly. The check is a
// deterministic substring match so the boundary stays testable.
var confusionPhrases = []string{
	"i don't understand",
	"i dont understand",
	"what do you mean",
	"no idea what",
	"makes no sense",
	"confused",
}

// RuleValidator validates answers with shape rules keyed on the item's
// ValueKind. Unknown kinds fall back to non-empty text.
type RuleValidator struct{}

func NewRuleValidator() *RuleValidator {
	return &RuleValidator{}
}

func (v *RuleValidator) Validate(_ context.Context, raw string, item models.ChecklistItem) (Result, error) {
	answer := strings.TrimSpace(raw)
	lower := strings.ToLower(answer)

	for _, phrase := range confusionPhrases {
		if strings.Contains(lower, phrase) {
			return Result{Confused: true, Errors: []string{"answer signals confusion"}}, nil
		}
	}

	if answer == "" {
		return Result{Errors: []string{"answer is empty"}}, nil
	}

	switch item.ValueKind {
	case "", "text":
		return Result{Valid: true, Normalized: answer}, nil
	case "email":
		if !emailRe.MatchString(answer) {
			return Result{Errors: []string{fmt.Sprintf("%q is not a valid email address", answer)}}, nil
		}
		return Result{Valid: true, Normalized: strings.ToLower(answer)}, nil
	case "number":
		cleaned := strings.ReplaceAll(answer, " ", "")
		if !numberRe.MatchString(cleaned) {
			return Result{Errors: []string{fmt.Sprintf("%q is not a number", answer)}}, nil
		}
		return Result{Valid: true, Normalized: strings.ReplaceAll(cleaned, ",", ".")}, nil
	case "date":
		if !dateRe.MatchString(answer) {
			return Result{Errors: []string{fmt.Sprintf("%q is not a date (expected YYYY-MM-DD)", answer)}}, nil
		}
		return Result{Valid: true, Normalized: answer}, nil
	case "choice":
		for _, c := range item.Choices {
			if strings.EqualFold(answer, c) {
				return Result{Valid: true, Normalized: c}, nil
			}
		}
		return Result{Errors: []string{fmt.Sprintf("%q is not one of %v", answer, item.Choices)}}, nil
	default:
		return Result{Valid: true, Normalized: answer}, nil
	}
}
