// Package blackboard provides the per-agent world state that condition
// resolvers sense and atom-actions mutate.
package blackboard

import (
	"sync"
)

// Blackboard is a thread-safe key-value store holding facts about one
// agent's world. Resolvers read it while planning; atom-actions write it while
// executing.
//
// Usage: Create with new(Blackboard). The internal map is lazily initialized
// on the first write.
type Blackboard struct {
	mu   sync.RWMutex
	data map[string]any
}

// init initializes the internal map if needed. Callers must hold mu.
func (b *Blackboard) init() {
	if b.data == nil {
		b.data = make(map[string]any)
	}
}

// Get retrieves a value from the blackboard.
// Returns nil if the key doesn't exist.
func (b *Blackboard) Get(key string) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return nil
	}
	return b.data[key]
}

// Bool returns the value stored under key if it is a bool. The second result
// reports whether the key held a bool at all.
func (b *Blackboard) Bool(key string) (value bool, ok bool) {
	value, ok = b.Get(key).(bool)
	return
}

// Int returns the value stored under key converted to an int, for any of the
// built-in integer kinds. The second result is false for missing or
// non-integer values.
func (b *Blackboard) Int(key string) (int, bool) {
	switch v := b.Get(key).(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	default:
		return 0, false
	}
}

// Set stores a value in the blackboard.
func (b *Blackboard) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	b.data[key] = value
}

// Update atomically replaces the value under key with fn(current). The
// current value is nil when the key is absent.
func (b *Blackboard) Update(key string, fn func(current any) any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	b.data[key] = fn(b.data[key])
}

// Has returns true if the key exists in the blackboard.
func (b *Blackboard) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return false
	}
	_, ok := b.data[key]
	return ok
}

// Delete removes a key from the blackboard.
func (b *Blackboard) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return
	}
	delete(b.data, key)
}

// Keys returns all keys in the blackboard, in no particular order.
func (b *Blackboard) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return nil
	}
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	return keys
}

// Clear removes all entries from the blackboard.
func (b *Blackboard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make(map[string]any)
}

// Len returns the number of keys in the blackboard.
func (b *Blackboard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Snapshot returns a shallow copy of the blackboard data. The result is never
// nil, so it can be handed straight to an expression environment.
//
// WARNING: This is a SHALLOW copy. Mutable values (slices, maps, pointers)
// are shared with the blackboard.
func (b *Blackboard) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make(map[string]any, len(b.data))
	for k, v := range b.data {
		result[k] = v
	}
	return result
}
