package llm

import (
	"strings"
	"sync/atomic"
)

// Cursor hands out a strictly increasing sequence of positions.
// Implementations must be safe for concurrent use.
type Cursor interface {
	Next() uint64
}

// AtomicCursor is the default Cursor, backed by an atomic counter.
type AtomicCursor struct {
	n atomic.Uint64
}

// Next returns the current position and advances the cursor.
func (c *AtomicCursor) Next() uint64 {
	return c.n.Add(1) - 1
}

// Pool is a fixed set of API keys drawn in round-robin order.
type Pool struct {
	keys   []string
	cursor Cursor
}

// NewPool creates a pool from keys, dropping blanks. A nil cursor gets an
// AtomicCursor starting at the first key.
func NewPool(keys []string, cursor Cursor) *Pool {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if cursor == nil {
		cursor = &AtomicCursor{}
	}
	return &Pool{keys: cleaned, cursor: cursor}
}

// ParseKeys splits a comma separated key list, as found in GROQ_KEYS.
func ParseKeys(s string) []string {
	var keys []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, part)
		}
	}
	return keys
}

// Size returns the number of keys in the pool.
func (p *Pool) Size() int {
	return len(p.keys)
}

// Next returns the next key and its index in the pool.
// It returns -1 and an empty key when the pool is empty.
func (p *Pool) Next() (int, string) {
	if len(p.keys) == 0 {
		return -1, ""
	}
	idx := int(p.cursor.Next() % uint64(len(p.keys)))
	return idx, p.keys[idx]
}
