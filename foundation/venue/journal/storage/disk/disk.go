// Package disk implements the journal storage interface on top of a bbolt
// database so trade history survives restarts.
package disk

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devest/venue/foundation/venue/instance"
	"go.etcd.io/bbolt"
)

var bucketTrades = []byte("trades")

// Disk represents the bbolt-backed journal storage implementation.
type Disk struct {
	db *bbolt.DB
}

// New opens or creates the bbolt database at dbPath. The parent directory
// is created if it does not exist.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}

	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("journal: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTrades)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create bucket: %w", err)
	}

	return &Disk{db: db}, nil
}

// Append stores the trade under the specified sequence number.
func (d *Disk) Append(seq uint64, trade instance.Trade) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return err
	}

	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTrades).Put(seqKey(seq), data)
	})
}

// ForEach walks the journal oldest first.
func (d *Disk) ForEach(fn func(seq uint64, trade instance.Trade) error) error {
	return d.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketTrades).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var trade instance.Trade
			if err := json.Unmarshal(v, &trade); err != nil {
				return err
			}
			if err := fn(binary.BigEndian.Uint64(k), trade); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the underlying database.
func (d *Disk) Close() error {
	return d.db.Close()
}

// Reset drops all stored trades.
func (d *Disk) Reset() error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketTrades); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketTrades)
		return err
	})
}

// seqKey encodes a sequence number as an 8-byte big-endian key so bbolt
// iterates in append order.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
