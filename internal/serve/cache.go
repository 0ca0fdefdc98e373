package serve

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Dicklesworthstone/redactd/internal/engine"
)

type cacheKey [32]byte

// keyFor hashes everything that affects a redact result. Field separators
// keep ("ab","c") and ("a","bc") distinct.
func keyFor(req engine.Request) cacheKey {
	h := sha256.New()
	fmt.Fprintf(h, "%.6f\x00", req.Threshold)
	h.Write([]byte(strings.Join(req.AlwaysRedact, "\x00")))
	h.Write([]byte{0x01})
	h.Write([]byte(strings.Join(req.AlwaysIgnore, "\x00")))
	h.Write([]byte{0x01})
	h.Write([]byte(req.Text))

	var k cacheKey
	h.Sum(k[:0])
	return k
}

type cacheEntry struct {
	res     engine.Result
	expires time.Time
}

// resultCache is a small TTL cache over redact results. Eviction is oldest
// insertion first once maxSize is reached; expired entries die on read.
type resultCache struct {
	maxSize int
	ttl     time.Duration

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	order   []cacheKey
}

func newResultCache(maxSize int, ttl time.Duration) *resultCache {
	return &resultCache{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[cacheKey]cacheEntry, maxSize),
	}
}

func (c *resultCache) Get(key cacheKey) (engine.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return engine.Result{}, false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		c.dropFromOrder(key)
		return engine.Result{}, false
	}
	return e.res, true
}

// dropFromOrder removes key from the FIFO slice so eviction never burns a
// pop on an entry that already expired. Callers hold c.mu.
func (c *resultCache) dropFromOrder(key cacheKey) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *resultCache) Put(key cacheKey, res engine.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxSize && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{res: res, expires: time.Now().Add(c.ttl)}
}

// Len reports live entries; used by tests.
func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
