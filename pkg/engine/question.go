package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jubii100/Growbal-sub000/pkg/checklist"
	"github.com/Jubii100/Growbal-sub000/pkg/contextindex"
	"github.com/Jubii100/Growbal-sub000/pkg/llm"
	"github.com/Jubii100/Growbal-sub000/pkg/models"
)

// QuestionGenerator selects the next checklist item and phrases its
// question. Selection is deterministic and never offers an item whose
// dependencies are unresolved; phrasing is presentational and degrades
// to the item's prompt template when the generator or index fails.
type QuestionGenerator struct {
	gen    llm.Generator
	index  contextindex.Index
	topK   int
	logger Logger
}

func NewQuestionGenerator(gen llm.Generator, index contextindex.Index, topK int, logger Logger) *QuestionGenerator {
	return &QuestionGenerator{gen: gen, index: index, topK: topK, logger: logger}
}

// NextItem returns the item to ask next, or nil when nothing is left to
// ask. Order: items needing clarification first, then required PENDING
// items, then optional PENDING items, each in Reorder order and only
// when every dependency is terminal.
func NextItem(items []models.ChecklistItem) (*models.ChecklistItem, error) {
	ordered, err := checklist.Reorder(items)
	if err != nil {
		return nil, err
	}
	pick := func(match func(models.ChecklistItem) bool) *models.ChecklistItem {
		for i := range ordered {
			it := ordered[i]
			if match(it) && checklist.DependenciesTerminal(ordered, it) {
				return &ordered[i]
			}
		}
		return nil
	}

	if it := pick(func(it models.ChecklistItem) bool {
		return it.Status == models.NeedsClarificationItemStatus || it.Status == models.AskedItemStatus
	}); it != nil {
		return it, nil
	}
	if it := pick(func(it models.ChecklistItem) bool {
		return it.Status == models.PendingItemStatus && it.Required
	}); it != nil {
		return it, nil
	}
	return pick(func(it models.ChecklistItem) bool {
		return it.Status == models.PendingItemStatus && !it.Required
	}), nil
}

// Phrase produces the question text for an item. Clarification errors
// from the previous attempt and retrieved context snippets enrich the
// prompt; any failure falls back to the raw template.
func (q *QuestionGenerator) Phrase(ctx context.Context, s *models.WorkflowState, item models.ChecklistItem, clarify []string) string {
	base := item.Prompt
	if len(clarify) > 0 {
		base = fmt.Sprintf("I couldn't use your last answer (%s). %s", strings.Join(clarify, "; "), item.Prompt)
	}
	if q.gen == nil {
		return base
	}

	var contextBlock string
	if q.index != nil && s.CollectionID != "" {
		snippets, err := q.index.Retrieve(ctx, item.Prompt, s.CollectionID, q.topK)
		if err != nil {
			q.logger.Errorf("Context retrieval failed for session %s: %v", s.SessionID, err)
		}
		var lines []string
		for _, sn := range snippets {
			lines = append(lines, "- "+sn.Content)
		}
		contextBlock = strings.Join(lines, "\n")
	}

	prompt := fmt.Sprintf(`You are onboarding a client for %q. Rephrase the following question in one friendly sentence, keeping its exact meaning. Output only the question.

Question: %s`, s.ServiceType, base)
	if contextBlock != "" {
		prompt += "\n\nRelevant background:\n" + contextBlock
	}

	text, err := q.gen.Generate(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			q.logger.Errorf("Question phrasing failed for session %s: %v", s.SessionID, err)
		}
		return base
	}
	return strings.TrimSpace(text)
}
