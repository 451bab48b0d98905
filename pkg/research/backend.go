package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Jubii100/Growbal-sub000/pkg/llm"
	"github.com/Jubii100/Growbal-sub000/pkg/models"
)

// RawResult is one untyped result returned by a search backend. Payload
// is expected to be the JSON answer envelope (see extractFindings); a
// payload that fails to parse yields a zero-confidence finding rather
// than an error.
type RawResult struct {
	Payload string
	Source  string
}

// Backend executes research queries against one information source.
// Implementations must be safe for concurrent use across sessions.
type Backend interface {
	// Name identifies the backend in logs and finding sources.
	Name() string

	// SourceType is the backend family ("llm", "web", "registry").
	// A query with a non-empty SourceType only runs on matching
	// backends.
	SourceType() string

	// Search executes one query. Errors are per-query: they exclude
	// this backend's results but never fail the batch.
	Search(ctx context.Context, query models.ResearchQuery) ([]RawResult, error)
}

// answerEnvelope is the JSON shape backends produce per result.
type answerEnvelope struct {
	Answers []struct {
		Key        string  `json:"key"`
		Value      string  `json:"value"`
		Confidence float64 `json:"confidence"`
	} `json:"answers"`
}

// LLMBackend answers research queries by prompting a text-generation
// model to fill the targeted gaps. It is the default backend when no
// external search API is configured.
type LLMBackend struct {
	gen llm.Generator
}

func NewLLMBackend(gen llm.Generator) *LLMBackend {
	return &LLMBackend{gen: gen}
}

func (b *LLMBackend) Name() string       { return "llm" }
func (b *LLMBackend) SourceType() string { return "llm" }

func (b *LLMBackend) Search(ctx context.Context, query models.ResearchQuery) ([]RawResult, error) {
	prompt := fmt.Sprintf(`Research the following for a client onboarding checklist.

%s

Answer only for these checklist keys: %s.
Respond with JSON of the form
{"answers":[{"key":"<checklist key>","value":"<answer>","confidence":<0..1>}]}
Omit keys you cannot answer. Confidence must reflect how certain you are.`,
		query.QueryText, strings.Join(query.ChecklistKeys, ", "))

	text, err := b.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return []RawResult{{Payload: extractJSON(text), Source: b.Name()}}, nil
}

// extractJSON trims any prose a model wraps around the JSON object.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// StaticResult is one canned answer for a StaticBackend.
type StaticResult struct {
	Value      string
	Confidence float64
}

// StaticBackend returns canned results keyed by checklist key. It
// exists for tests and offline development.
type StaticBackend struct {
	BackendName string
	Type        string
	Results     map[string]StaticResult
	Err         error // When set, every Search fails with this error
}

func (b *StaticBackend) Name() string {
	if b.BackendName == "" {
		return "static"
	}
	return b.BackendName
}

func (b *StaticBackend) SourceType() string {
	if b.Type == "" {
		return "static"
	}
	return b.Type
}

func (b *StaticBackend) Search(_ context.Context, query models.ResearchQuery) ([]RawResult, error) {
	if b.Err != nil {
		return nil, b.Err
	}
	var env answerEnvelope
	for _, key := range query.ChecklistKeys {
		if r, ok := b.Results[key]; ok {
			env.Answers = append(env.Answers, struct {
				Key        string  `json:"key"`
				Value      string  `json:"value"`
				Confidence float64 `json:"confidence"`
			}{Key: key, Value: r.Value, Confidence: r.Confidence})
		}
	}
	if len(env.Answers) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return []RawResult{{Payload: string(raw), Source: b.Name()}}, nil
}
