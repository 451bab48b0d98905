// Package checklist implements the pure reducer over a session's
// checklist: answer application, research auto-fill, dynamic additions,
// relevance pruning, and dependency-aware reordering. Every function
// returns a new slice; callers keep the previous snapshot untouched,
// which is what makes mid-research cancellation and checkpoint replay
// safe.
package checklist

import (
	"sort"
	"time"

	"github.com/Jubii100/Growbal-sub000/pkg/models"
	"github.com/Jubii100/Growbal-sub000/pkg/validation"
	"github.com/pkg/errors"
)

var (
	// ErrCycle is raised when the dependency graph of a checklist
	// contains a cycle. It is structural and fatal to the template.
	ErrCycle = errors.New("dependency cycle detected")

	// ErrUnknownDependency is raised when an item depends on a key
	// that is not present in the checklist.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrUnknownServiceType is raised when no template exists for the
	// requested service type.
	ErrUnknownServiceType = errors.New("unknown service type")
)

func clone(items []models.ChecklistItem) []models.ChecklistItem {
	out := make([]models.ChecklistItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Dependencies = append([]string(nil), items[i].Dependencies...)
		out[i].Choices = append([]string(nil), items[i].Choices...)
	}
	return out
}

// AnswerOutcome reports what ApplyAnswer did, so the engine can update
// session-level bookkeeping (the validation failure counter lives on
// the session, not the item).
type AnswerOutcome struct {
	Applied            bool // False when the item was not in ASKED state (stale or duplicate submission)
	Verified           bool
	NeedsClarification bool
	Errors             []string
}

// MarkAsked transitions an item to ASKED and increments its attempt
// counter. NEEDS_CLARIFICATION items are re-askable.
func MarkAsked(items []models.ChecklistItem, key string, now time.Time) []models.ChecklistItem {
	out := clone(items)
	for i := range out {
		if out[i].Key != key {
			continue
		}
		switch out[i].Status {
		case models.PendingItemStatus, models.NeedsClarificationItemStatus, models.AskedItemStatus:
			out[i].Status = models.AskedItemStatus
			out[i].Attempts++
			t := now
			out[i].AskedAt = &t
		}
	}
	return out
}

// ApplyAnswer applies a validated answer to the item with the given
// key. The item must currently be ASKED; anything else is a no-op, a
// guard against stale or duplicate submissions. On success the item
// becomes VERIFIED; on validation failure it becomes
// NEEDS_CLARIFICATION.
func ApplyAnswer(items []models.ChecklistItem, key string, res validation.Result, now time.Time) ([]models.ChecklistItem, AnswerOutcome) {
	out := clone(items)
	for i := range out {
		if out[i].Key != key {
			continue
		}
		if out[i].Status != models.AskedItemStatus {
			return items, AnswerOutcome{}
		}
		if res.Valid {
			out[i].Status = models.VerifiedItemStatus
			out[i].Value = res.Normalized
			out[i].Source = models.UserValueSource
			out[i].Attempts = 0
			t := now
			out[i].AnsweredAt = &t
			out[i].VerifiedAt = &t
			return out, AnswerOutcome{Applied: true, Verified: true}
		}
		out[i].Status = models.NeedsClarificationItemStatus
		return out, AnswerOutcome{Applied: true, NeedsClarification: true, Errors: res.Errors}
	}
	return items, AnswerOutcome{}
}

// ApplyResearch auto-fills PENDING items from research findings. For
// each PENDING item the single highest-confidence finding tagged with
// that item's key is considered; it is applied only when its confidence
// meets the threshold. Lower-confidence findings are discarded for that
// item, never partially applied.
func ApplyResearch(items []models.ChecklistItem, findings []models.ResearchFinding, threshold float64, now time.Time) []models.ChecklistItem {
	out := clone(items)
	for i := range out {
		if out[i].Status != models.PendingItemStatus {
			continue
		}
		best, ok := bestFinding(findings, out[i].Key)
		if !ok || best.Confidence < threshold {
			continue
		}
		out[i].Status = models.AutoFilledItemStatus
		out[i].Value = best.Content
		out[i].Confidence = best.Confidence
		out[i].Source = models.ResearchValueSource
		t := now
		out[i].AnsweredAt = &t
		out[i].VerifiedAt = &t
	}
	return out
}

func bestFinding(findings []models.ResearchFinding, key string) (models.ResearchFinding, bool) {
	var best models.ResearchFinding
	found := false
	for _, f := range findings {
		for _, k := range f.ChecklistKeys {
			if k != key {
				continue
			}
			if !found || f.Confidence > best.Confidence {
				best = f
				found = true
			}
		}
	}
	return best, found
}

// AddDynamicItems appends discovered items whose keys are not already
// present. Idempotent on replays.
func AddDynamicItems(items []models.ChecklistItem, discovered []models.ChecklistItem) []models.ChecklistItem {
	out := clone(items)
	present := make(map[string]struct{}, len(out))
	for _, it := range out {
		present[it.Key] = struct{}{}
	}
	for _, d := range discovered {
		if _, ok := present[d.Key]; ok {
			continue
		}
		d.Status = models.PendingItemStatus
		if d.Priority == "" {
			d.Priority = models.MediumPriority
		}
		out = append(out, d)
		present[d.Key] = struct{}{}
	}
	return out
}

// MarkNotApplicable moves unresolved items failing the relevance
// predicate to NOT_APPLICABLE, excluding them from completion
// accounting. The transition is one-way: NOT_APPLICABLE items are never
// re-activated, and resolved items are never demoted.
func MarkNotApplicable(items []models.ChecklistItem, relevant func(models.ChecklistItem) bool) []models.ChecklistItem {
	out := clone(items)
	for i := range out {
		if out[i].Resolved() || out[i].Status == models.NotApplicableItemStatus {
			continue
		}
		if !relevant(out[i]) {
			out[i].Status = models.NotApplicableItemStatus
		}
	}
	return out
}

// Reorder returns the checklist in asking order: dependency level
// first (an item never precedes one of its dependencies), then
// required before optional, then priority, with the original insertion
// order as the final tie-break. A dependency cycle is a structural
// error, never a silent drop.
func Reorder(items []models.ChecklistItem) ([]models.ChecklistItem, error) {
	index := make(map[string]int, len(items))
	for i, it := range items {
		index[it.Key] = i
	}

	// Longest-path depth per item via Kahn's algorithm.
	inDegree := make([]int, len(items))
	dependents := make([][]int, len(items))
	for i, it := range items {
		for _, dep := range it.Dependencies {
			j, ok := index[dep]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownDependency, "item %q depends on %q", it.Key, dep)
			}
			inDegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	level := make([]int, len(items))
	queue := make([]int, 0, len(items))
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	visited := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range dependents[curr] {
			if level[curr]+1 > level[next] {
				level[next] = level[curr] + 1
			}
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if visited != len(items) {
		return nil, ErrCycle
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if level[ia] != level[ib] {
			return level[ia] < level[ib]
		}
		if items[ia].Required != items[ib].Required {
			return items[ia].Required
		}
		if ra, rb := items[ia].Priority.Rank(), items[ib].Priority.Rank(); ra != rb {
			return ra < rb
		}
		return ia < ib
	})

	out := make([]models.ChecklistItem, 0, len(items))
	for _, i := range order {
		out = append(out, items[i])
	}
	return clone(out), nil
}

// DependenciesTerminal reports whether every dependency of the item is
// in a terminal state.
func DependenciesTerminal(items []models.ChecklistItem, it models.ChecklistItem) bool {
	byKey := make(map[string]models.ChecklistItem, len(items))
	for _, other := range items {
		byKey[other.Key] = other
	}
	for _, dep := range it.Dependencies {
		d, ok := byKey[dep]
		if !ok || !d.Terminal() {
			return false
		}
	}
	return true
}

// Completion derives the completion metric: resolved required items
// over required items still in scope.
func Completion(items []models.ChecklistItem) models.CompletionMetrics {
	var m models.CompletionMetrics
	for _, it := range items {
		if !it.Required || it.Status == models.NotApplicableItemStatus {
			continue
		}
		m.RequiredTotal++
		if it.Resolved() {
			m.RequiredResolved++
		}
	}
	if m.RequiredTotal > 0 {
		m.Ratio = float64(m.RequiredResolved) / float64(m.RequiredTotal)
	} else {
		m.Ratio = 1
	}
	m.Complete = m.RequiredResolved == m.RequiredTotal
	return m
}

// PendingCount counts items still awaiting an answer or clarification.
func PendingCount(items []models.ChecklistItem) int {
	n := 0
	for _, it := range items {
		switch it.Status {
		case models.PendingItemStatus, models.AskedItemStatus, models.NeedsClarificationItemStatus:
			n++
		}
	}
	return n
}
