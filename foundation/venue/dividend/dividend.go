// Package dividend implements checkpoint based dividend accrual. Each
// disburse appends a cumulative per-unit payout level and holders settle
// lazily against the last level they claimed, which keeps the cost of a
// distribution O(1) no matter how many holders or payments exist.
package dividend

import (
	"errors"

	"github.com/devest/venue/foundation/venue/ledger"
)

// ErrCheckpointRegression indicates the cumulative per-unit sequence lost
// monotonicity. This must never happen if disburse amounts are validated.
var ErrCheckpointRegression = errors.New("checkpoint regression")

// Accumulator converts pay events into per-unit accrual checkpoints.
type Accumulator struct {
	levels  []uint64
	settled map[ledger.AccountID]int
	carry   uint64
}

// NewAccumulator constructs an accumulator with no recorded checkpoints.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		settled: make(map[ledger.AccountID]int),
	}
}

// Disburse appends a new checkpoint distributing the specified amount
// across all units. The integer remainder that cannot be split evenly is
// carried into the next disburse so no currency is lost to truncation.
// The per-unit amount actually distributed is returned.
func (acc *Accumulator) Disburse(amount uint64) uint64 {
	amount += acc.carry
	perUnit := amount / ledger.TotalUnits
	acc.carry = amount % ledger.TotalUnits

	var cumulative uint64
	if len(acc.levels) > 0 {
		cumulative = acc.levels[len(acc.levels)-1]
	}
	acc.levels = append(acc.levels, cumulative+perUnit)

	return perUnit
}

// Settle computes the amount accrued to the holder since its last settled
// checkpoint, at the specified unit count, and marks the holder settled at
// the latest level. Settle must be called with the pre-change unit count
// before any operation changes the holder's balance.
func (acc *Accumulator) Settle(holder ledger.AccountID, units uint64) (uint64, error) {
	last := acc.settled[holder]
	acc.settled[holder] = len(acc.levels)

	if len(acc.levels) == 0 || units == 0 {
		return 0, nil
	}

	var before uint64
	if last > 0 {
		before = acc.levels[last-1]
	}
	current := acc.levels[len(acc.levels)-1]

	if current < before {
		return 0, ErrCheckpointRegression
	}

	return (current - before) * units, nil
}

// Pending returns the amount the holder could settle right now at the
// specified unit count, without changing any state.
func (acc *Accumulator) Pending(holder ledger.AccountID, units uint64) uint64 {
	if len(acc.levels) == 0 || units == 0 {
		return 0
	}

	var before uint64
	if last := acc.settled[holder]; last > 0 {
		before = acc.levels[last-1]
	}
	current := acc.levels[len(acc.levels)-1]

	return (current - before) * units
}

// Levels returns a copy of the cumulative per-unit checkpoint sequence.
func (acc *Accumulator) Levels() []uint64 {
	levels := make([]uint64, len(acc.levels))
	copy(levels, acc.levels)
	return levels
}
