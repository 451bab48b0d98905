// Package contextindex defines the retrieval contract the engine uses
// to ground question phrasing in prior research, plus an in-memory
// implementation. Production deployments swap in a vector store behind
// the same interface.
package contextindex

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Jubii100/Growbal-sub000/pkg/models"
	"github.com/google/uuid"
)

// Snippet is one ranked retrieval result.
type Snippet struct {
	Content   string  `json:"content"`
	Relevance float64 `json:"relevance"`
}

// Index stores research findings and returns ranked snippets for a
// query.
type Index interface {
	// Index adds findings to a collection and returns the collection
	// ID. An empty collectionID creates a new collection.
	Index(ctx context.Context, collectionID string, findings []models.ResearchFinding, metadata map[string]string) (string, error)

	// Retrieve returns up to topK snippets ranked by relevance.
	Retrieve(ctx context.Context, query, collectionID string, topK int) ([]Snippet, error)
}

type document struct {
	content string
	terms   map[string]struct{}
}

// MemoryIndex is a process-local Index ranking by term overlap. It is
// safe for concurrent use across sessions.
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[string][]document
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{collections: make(map[string][]document)}
}

func (m *MemoryIndex) Index(_ context.Context, collectionID string, findings []models.ResearchFinding, _ map[string]string) (string, error) {
	if collectionID == "" {
		collectionID = uuid.New().String()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range findings {
		if f.Content == "" {
			continue
		}
		m.collections[collectionID] = append(m.collections[collectionID], document{
			content: f.Content,
			terms:   termSet(f.Content),
		})
	}
	return collectionID, nil
}

func (m *MemoryIndex) Retrieve(_ context.Context, query, collectionID string, topK int) ([]Snippet, error) {
	if topK <= 0 {
		topK = 3
	}
	queryTerms := termSet(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	docs := m.collections[collectionID]
	m.mu.RUnlock()

	var snippets []Snippet
	for _, doc := range docs {
		overlap := 0
		for t := range queryTerms {
			if _, ok := doc.terms[t]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		snippets = append(snippets, Snippet{
			Content:   doc.content,
			Relevance: float64(overlap) / float64(len(queryTerms)),
		})
	}
	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].Relevance > snippets[j].Relevance
	})
	if len(snippets) > topK {
		snippets = snippets[:topK]
	}
	return snippets, nil
}

func termSet(s string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if len(w) < 3 {
			continue
		}
		terms[w] = struct{}{}
	}
	return terms
}
