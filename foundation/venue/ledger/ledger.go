// Package ledger maintains the fixed-denominator share register for a single
// instrument. Every instrument is divided into exactly 100 units and the sum
// of all holder balances never changes.
package ledger

import (
	"errors"
	"fmt"
)

// TotalUnits is the fixed number of ownership units every instrument is
// divided into.
const TotalUnits = 100

// Majority is the number of units a governance choice needs to resolve.
const Majority = TotalUnits / 2

// Set of ledger related errors.
var (
	ErrInsufficientUnits = errors.New("insufficient units")
	ErrZeroUnits         = errors.New("zero units")
)

// Ledger manages the unit balances and the ordered set of current holders
// for one instrument. The holder list keeps first-acquisition order.
type Ledger struct {
	balances map[AccountID]uint64
	holders  []AccountID
}

// New constructs a ledger assigning all units to the issuing account.
func New(issuer AccountID) *Ledger {
	return &Ledger{
		balances: map[AccountID]uint64{issuer: TotalUnits},
		holders:  []AccountID{issuer},
	}
}

// Balance returns the number of units held by the specified account.
func (l *Ledger) Balance(account AccountID) uint64 {
	return l.balances[account]
}

// IsHolder reports whether the account currently holds any units.
func (l *Ledger) IsHolder(account AccountID) bool {
	return l.balances[account] > 0
}

// Holders returns a copy of the current holder list in first-acquisition
// order.
func (l *Ledger) Holders() []AccountID {
	holders := make([]AccountID, len(l.holders))
	copy(holders, l.holders)
	return holders
}

// Transfer moves units between two accounts, maintaining the holder list.
// A holder is removed from the list when its balance reaches zero and
// re-appended when it first becomes nonzero again.
func (l *Ledger) Transfer(from AccountID, to AccountID, units uint64) error {
	if units == 0 {
		return ErrZeroUnits
	}

	if l.balances[from] < units {
		return fmt.Errorf("account %s holds %d of %d units: %w", from, l.balances[from], units, ErrInsufficientUnits)
	}

	// A self-transfer is a no-op; it must not disturb the holder order.
	if from == to {
		return nil
	}

	l.balances[from] -= units
	if l.balances[from] == 0 {
		delete(l.balances, from)
		l.dropHolder(from)
	}

	if l.balances[to] == 0 {
		l.holders = append(l.holders, to)
	}
	l.balances[to] += units

	return nil
}

// Checksum validates the conservation invariant and returns the current
// unit total. Anything other than TotalUnits means the ledger is corrupt.
func (l *Ledger) Checksum() uint64 {
	var sum uint64
	for _, units := range l.balances {
		sum += units
	}
	return sum
}

// dropHolder removes the account from the holder list keeping the order of
// the remaining holders intact.
func (l *Ledger) dropHolder(account AccountID) {
	for i, holder := range l.holders {
		if holder == account {
			l.holders = append(l.holders[:i], l.holders[i+1:]...)
			return
		}
	}
}
