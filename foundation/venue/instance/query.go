package instance

import (
	"github.com/devest/venue/foundation/venue/book"
	"github.com/devest/venue/foundation/venue/ledger"
	"github.com/devest/venue/foundation/venue/vault"
)

// ID returns the instrument's identifier.
func (i *Instance) ID() string {
	return i.id
}

// Name returns the instrument's display name.
func (i *Instance) Name() string {
	return i.name
}

// Symbol returns the instrument's display symbol.
func (i *Instance) Symbol() string {
	return "% " + i.symbol
}

// Account returns the instrument's custody account.
func (i *Instance) Account() ledger.AccountID {
	return i.account
}

// State returns the current lifecycle state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.state
}

// Custodian returns the current custodian (tangible) account.
func (i *Instance) Custodian() ledger.AccountID {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.custodian
}

// Value returns the aggregate reference value of all 100 units.
func (i *Instance) Value() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.value
}

// Price returns the per-unit reference price, reassigned by every trade.
func (i *Instance) Price() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.value / ledger.TotalUnits
}

// TaxRateBps returns the protocol tax rate in basis points.
func (i *Instance) TaxRateBps() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.taxBps
}

// Decimals returns the display decimals set at initialization.
func (i *Instance) Decimals() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.decimals
}

// Balance returns the unit balance of the specified account.
func (i *Instance) Balance(account ledger.AccountID) uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.shares.Balance(account)
}

// Holders returns the current holders in first-acquisition order.
func (i *Instance) Holders() []ledger.AccountID {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.shares.Holders()
}

// Orders returns a copy of all open orders.
func (i *Instance) Orders() []book.Order {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.orders.Orders()
}

// Order returns the open order owned by the specified trader.
func (i *Instance) Order(trader ledger.AccountID) (book.Order, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.orders.Get(trader)
}

// EscrowTotal returns the currency held in escrow for all open bids.
func (i *Instance) EscrowTotal() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.orders.EscrowTotal()
}

// Claimable returns the amount the holder could withdraw right now in
// currency, combining settled claims and the unsettled checkpoint delta.
func (i *Instance) Claimable(holder ledger.AccountID) uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.claims[holder] + i.dividends.Pending(holder, i.shares.Balance(holder))
}

// DisburseLevels returns the cumulative per-unit checkpoint sequence.
func (i *Instance) DisburseLevels() []uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.dividends.Levels()
}

// Assets returns the vault custody entries.
func (i *Instance) Assets() []vault.Entry {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.assets.Entries()
}

// UnitChecksum returns the sum of all holder balances. Anything other than
// ledger.TotalUnits indicates corruption.
func (i *Instance) UnitChecksum() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.shares.Checksum()
}
