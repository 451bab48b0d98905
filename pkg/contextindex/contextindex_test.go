package contextindex_test

import (
	"context"
	"testing"

	"github.com/Jubii100/Growbal-sub000/pkg/contextindex"
	"github.com/Jubii100/Growbal-sub000/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestMemoryIndex(t *testing.T) {
	ctx := context.Background()
	idx := contextindex.NewMemoryIndex()

	findings := []models.ResearchFinding{
		{Content: "DMCC free zone supports trading licenses"},
		{Content: "Mainland registration requires a local service agent"},
		{Content: ""}, // empty findings are skipped
	}

	collectionID, err := idx.Index(ctx, "", findings, map[string]string{"session_id": "s1"})
	assert.NoError(t, err)
	assert.NotEmpty(t, collectionID)

	t.Run("ReusesCollection", func(t *testing.T) {
		again, err := idx.Index(ctx, collectionID, []models.ResearchFinding{
			{Content: "Free zone offices include flexi-desk options"},
		}, nil)
		assert.NoError(t, err)
		assert.Equal(t, collectionID, again)
	})

	t.Run("RanksByOverlap", func(t *testing.T) {
		snippets, err := idx.Retrieve(ctx, "which free zone supports trading", collectionID, 3)
		assert.NoError(t, err)
		assert.NotEmpty(t, snippets)
		assert.Contains(t, snippets[0].Content, "DMCC")
		for i := 1; i < len(snippets); i++ {
			assert.GreaterOrEqual(t, snippets[i-1].Relevance, snippets[i].Relevance)
		}
	})

	t.Run("TopKLimits", func(t *testing.T) {
		snippets, err := idx.Retrieve(ctx, "free zone", collectionID, 1)
		assert.NoError(t, err)
		assert.Len(t, snippets, 1)
	})

	t.Run("UnknownCollectionIsEmpty", func(t *testing.T) {
		snippets, err := idx.Retrieve(ctx, "free zone", "no-such-collection", 3)
		assert.NoError(t, err)
		assert.Empty(t, snippets)
	})

	t.Run("NoOverlapNoResults", func(t *testing.T) {
		snippets, err := idx.Retrieve(ctx, "quantum entanglement", collectionID, 3)
		assert.NoError(t, err)
		assert.Empty(t, snippets)
	})
}
