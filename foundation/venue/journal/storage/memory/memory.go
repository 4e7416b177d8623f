// Package memory implements the journal storage interface with an in-memory
// slice. Used in tests and for nodes that don't need durable history.
package memory

import (
	"sync"

	"github.com/devest/venue/foundation/venue/instance"
)

// entry pairs a sequence number with its trade record.
type entry struct {
	seq   uint64
	trade instance.Trade
}

// Memory represents the in-memory journal storage implementation.
type Memory struct {
	mu      sync.Mutex
	entries []entry
}

// New constructs an empty in-memory journal storage.
func New() *Memory {
	return &Memory{}
}

// Append stores the trade under the specified sequence number.
func (m *Memory) Append(seq uint64, trade instance.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry{seq: seq, trade: trade})
	return nil
}

// ForEach walks the journal oldest first.
func (m *Memory) ForEach(fn func(seq uint64, trade instance.Trade) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if err := fn(e.seq, e.trade); err != nil {
			return err
		}
	}
	return nil
}

// Close in this implementation has nothing to do.
func (m *Memory) Close() error {
	return nil
}

// Reset drops all stored trades.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	return nil
}
