package classifier

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainreceipt/txclassify/pkg/chaintypes"
)

// DefaultCacheSize is N from invariant I5: the cache holds at most this
// many entries, FIFO-evicted.
const DefaultCacheSize = 100

// cacheKey is exactly the (chainId, txHash) pair invariant I5 requires. The
// hash is held as raw bytes, so hex casing cannot cause a miss.
type cacheKey struct {
	chainID uint64
	txHash  common.Hash
}

// Cache is the bounded, thread-safe result cache of Phase 5. It wraps
// hashicorp/golang-lru, the bounded LRU cache already used by the
// go-ethereum-family repos in this corpus. Reads go through Peek, which
// does not refresh an entry's recency, so golang-lru's least-recently-used
// eviction is pure insertion-order (FIFO) eviction, satisfying I5 without
// reimplementing an eviction policy.
//
// golang-lru already serializes its own Add/Get; the outer mutex here
// serializes each Get, Put and Len call. A Get followed by a Put is not one
// atomic step: two concurrent misses on the same key both compute and both
// Put.
type Cache struct {
	mu    sync.Mutex
	inner *lru.Cache
}

// NewCache returns a Cache bounded to size entries.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	inner, err := lru.New(size)
	if err != nil {
		// lru.New only errors on size <= 0, already guarded above.
		panic("classifier: invalid cache size")
	}
	return &Cache{inner: inner}
}

// Get returns the cached verdict for (chainID, txHash), if present.
func (c *Cache) Get(chainID uint64, txHash common.Hash) (chaintypes.ClassificationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.inner.Peek(cacheKey{chainID: chainID, txHash: txHash})
	if !ok {
		return chaintypes.ClassificationResult{}, false
	}
	return v.(chaintypes.ClassificationResult), true
}

// Put inserts result under (chainID, txHash), evicting the oldest entry if
// the cache is at capacity.
func (c *Cache) Put(chainID uint64, txHash common.Hash, result chaintypes.ClassificationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Add(cacheKey{chainID: chainID, txHash: txHash}, result)
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Len()
}
