// Package journal persists the record of executed trades so trade history
// survives a restart and can be served to clients. The journal is append
// only; entries are keyed by a monotonically increasing sequence number.
package journal

import (
	"sync"

	"github.com/devest/venue/foundation/venue/instance"
)

// Storage interface represents the behavior required to be implemented by
// any package providing support for storing and reading trade records.
type Storage interface {
	Append(seq uint64, trade instance.Trade) error
	ForEach(fn func(seq uint64, trade instance.Trade) error) error
	Close() error
	Reset() error
}

// =============================================================================

// Journal manages the append-only trade history.
type Journal struct {
	mu sync.Mutex

	storage Storage
	nextSeq uint64
}

// New constructs a journal on top of the specified storage, scanning it to
// recover the next sequence number.
func New(storage Storage) (*Journal, error) {
	jnl := Journal{
		storage: storage,
	}

	fn := func(seq uint64, trade instance.Trade) error {
		if seq >= jnl.nextSeq {
			jnl.nextSeq = seq + 1
		}
		return nil
	}
	if err := storage.ForEach(fn); err != nil {
		return nil, err
	}

	return &jnl, nil
}

// Record appends a trade to the journal.
func (jnl *Journal) Record(trade instance.Trade) error {
	jnl.mu.Lock()
	defer jnl.mu.Unlock()

	seq := jnl.nextSeq
	if err := jnl.storage.Append(seq, trade); err != nil {
		return err
	}
	jnl.nextSeq = seq + 1

	return nil
}

// Trades returns all recorded trades for the specified instrument, oldest
// first. An empty instance id returns everything.
func (jnl *Journal) Trades(instanceID string) ([]instance.Trade, error) {
	jnl.mu.Lock()
	defer jnl.mu.Unlock()

	var trades []instance.Trade
	fn := func(seq uint64, trade instance.Trade) error {
		if instanceID == "" || trade.InstanceID == instanceID {
			trades = append(trades, trade)
		}
		return nil
	}
	if err := jnl.storage.ForEach(fn); err != nil {
		return nil, err
	}

	return trades, nil
}

// Close releases the underlying storage.
func (jnl *Journal) Close() error {
	return jnl.storage.Close()
}
