// Package vault tracks secondary backing assets held in custody for an
// instrument. Assets are never traded; they are released pro-rata to each
// holder's unit fraction once the instrument terminates.
package vault

import (
	"github.com/devest/venue/foundation/venue/ledger"
)

// Asset represents the custody interface a backing token must provide.
type Asset interface {
	Symbol() string
	Transfer(from ledger.AccountID, to ledger.AccountID, amount uint64) error
	TransferFrom(spender ledger.AccountID, owner ledger.AccountID, to ledger.AccountID, amount uint64) error
}

// Entry is one backing asset deposit held in custody.
type Entry struct {
	Asset  Asset
	Amount uint64
}

// Vault holds the backing asset entries in insertion order.
type Vault struct {
	entries []Entry
}

// New constructs an empty vault.
func New() *Vault {
	return &Vault{}
}

// Add appends a deposit to the custody list.
func (v *Vault) Add(asset Asset, amount uint64) {
	v.entries = append(v.entries, Entry{Asset: asset, Amount: amount})
}

// Entries returns a copy of the custody list.
func (v *Vault) Entries() []Entry {
	entries := make([]Entry, len(v.entries))
	copy(entries, v.entries)
	return entries
}

// Release transfers the holder's pro-rata fraction of every entry from the
// custody account to the holder. Called once per holder after termination.
func (v *Vault) Release(custody ledger.AccountID, holder ledger.AccountID, units uint64) error {
	for _, entry := range v.entries {
		share := entry.Amount * units / ledger.TotalUnits
		if share == 0 {
			continue
		}
		if err := entry.Asset.Transfer(custody, holder, share); err != nil {
			return err
		}
	}
	return nil
}
