package research

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/Jubii100/Growbal-sub000/pkg/models"
)

// queryCache memoizes findings per query within a session. A hit
// short-circuits execution for that query. Keys are content hashes so
// rephrased duplicates of the same query text still miss.
type queryCache struct {
	mu      sync.RWMutex
	entries map[string][]models.ResearchFinding
}

func newQueryCache() *queryCache {
	return &queryCache{entries: make(map[string][]models.ResearchFinding)}
}

func cacheKey(queryText, sourceType string) string {
	h := sha256.Sum256([]byte(queryText + "|" + sourceType))
	return hex.EncodeToString(h[:])
}

func (c *queryCache) get(queryText, sourceType string) ([]models.ResearchFinding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.entries[cacheKey(queryText, sourceType)]
	return f, ok
}

func (c *queryCache) put(queryText, sourceType string, findings []models.ResearchFinding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(queryText, sourceType)] = findings
}
