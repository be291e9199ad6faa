package resolve

import (
	"container/list"
	"fmt"
	"sync"
)

// DefaultCacheSize is the default maximum number of compiled programs kept
// per expression language.
const DefaultCacheSize = 1000

// programCache is a thread-safe LRU cache of compiled programs, keyed by
// source expression.
type programCache[P any] struct {
	mu        sync.Mutex
	entries   map[string]*list.Element
	lru       *list.List
	maxSize   int
	hitCount  int64
	missCount int64
}

type cacheEntry[P any] struct {
	expression string
	program    P
}

func newProgramCache[P any](maxSize int) *programCache[P] {
	if maxSize < 1 {
		maxSize = DefaultCacheSize
	}
	return &programCache[P]{
		entries: make(map[string]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// get returns the cached program for expression, compiling and caching it on
// a miss. Compile errors are not cached.
func (c *programCache[P]) get(expression string, compile func(string) (P, error)) (P, error) {
	c.mu.Lock()
	if elem, ok := c.entries[expression]; ok {
		c.hitCount++
		c.lru.MoveToFront(elem)
		program := elem.Value.(*cacheEntry[P]).program
		c.mu.Unlock()
		return program, nil
	}
	c.missCount++
	c.mu.Unlock()

	program, err := compile(expression)
	if err != nil {
		var zero P
		return zero, err
	}
	c.put(expression, program)
	return program, nil
}

func (c *programCache[P]) put(expression string, program P) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[expression]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry[P]).program = program
		return
	}
	c.entries[expression] = c.lru.PushFront(&cacheEntry[P]{expression: expression, program: program})
	c.evict()
}

func (c *programCache[P]) evict() {
	for c.lru.Len() > c.maxSize {
		elem := c.lru.Back()
		delete(c.entries, elem.Value.(*cacheEntry[P]).expression)
		c.lru.Remove(elem)
	}
}

// resize changes the capacity, evicting immediately if it shrinks.
func (c *programCache[P]) resize(maxSize int) {
	if maxSize < 1 {
		maxSize = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = maxSize
	c.evict()
}

func (c *programCache[P]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// stats returns the cache size and its hit and miss counts.
func (c *programCache[P]) stats() (size int, hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len(), c.hitCount, c.missCount
}

func (c *programCache[P]) String() string {
	size, hits, misses := c.stats()
	return fmt.Sprintf("programCache{size=%d, hits=%d, misses=%d}", size, hits, misses)
}

// SetCacheSize sets the capacity of both program caches.
func SetCacheSize(size int) {
	exprPrograms.resize(size)
	celPrograms.resize(size)
}
