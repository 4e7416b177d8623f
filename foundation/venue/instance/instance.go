// Package instance implements the trading, escrow, and dividend engine for
// a single fractional-ownership instrument. An instrument divides one
// underlying asset (the tangible) into 100 units that are bought, sold, and
// transferred through an on-ledger order book, with proceeds distributed
// proportionally to holders and control decisions resolved by share
// weighted majority vote.
//
// Every public operation runs to completion under the instance mutex and
// either fully succeeds or leaves no state change behind. Incoming currency
// pulls run before any mutation so a failed pull aborts cleanly; outgoing
// pushes run after all mutation so a reentrant call from the currency
// collaborator observes fully consistent post-trade state.
package instance

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/devest/venue/foundation/venue/book"
	"github.com/devest/venue/foundation/venue/dividend"
	"github.com/devest/venue/foundation/venue/ledger"
	"github.com/devest/venue/foundation/venue/poll"
	"github.com/devest/venue/foundation/venue/vault"
)

// State represents the lifecycle phase of an instrument.
type State int

// The instrument lifecycle. Terminated is absorbing.
const (
	Uninitialized State = iota
	Active
	Terminated
)

// String implements the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// maxTaxRateBps caps the protocol tax at 100%.
const maxTaxRateBps = 10_000

// terminateChoice is the single choice of the termination topic.
const terminateChoice ledger.AccountID = "terminate"

// =============================================================================

// Currency represents the behavior the settlement token must provide. Pull
// transfers consume an allowance previously granted to the instrument's
// custody account; push transfers move funds the instrument already holds.
type Currency interface {
	Symbol() string
	BalanceOf(account ledger.AccountID) uint64
	Transfer(from ledger.AccountID, to ledger.AccountID, amount uint64) error
	TransferFrom(spender ledger.AccountID, owner ledger.AccountID, to ledger.AccountID, amount uint64) error
}

// EventHandler defines a function that is called when events occur in the
// processing of venue operations.
type EventHandler func(v string, args ...any)

// Trade captures one executed fill for recording and event streaming.
type Trade struct {
	InstanceID string
	Buyer      ledger.AccountID
	Seller     ledger.AccountID
	Units      uint64
	Price      uint64
	Value      uint64
	Tax        uint64
	Date       time.Time
}

// Recorder defines a function that is called with every executed trade.
type Recorder func(trade Trade)

// =============================================================================

// Config represents the configuration required to construct an instrument.
type Config struct {
	ID        string
	Name      string
	Symbol    string
	Account   ledger.AccountID
	Issuer    ledger.AccountID
	Treasury  ledger.AccountID
	Currency  Currency
	EvHandler EventHandler
	Recorder  Recorder
}

// Instance manages all state for one fractional-ownership instrument.
type Instance struct {
	mu sync.Mutex

	id        string
	name      string
	symbol    string
	account   ledger.AccountID
	treasury  ledger.AccountID
	currency  Currency
	evHandler EventHandler
	recorder  Recorder

	state     State
	custodian ledger.AccountID
	taxBps    uint64
	decimals  uint64
	value     uint64

	shares    *ledger.Ledger
	orders    *book.Book
	dividends *dividend.Accumulator
	assets    *vault.Vault

	custodianPoll *poll.Poll
	terminatePoll *poll.Poll

	pending  uint64
	claims   map[ledger.AccountID]uint64
	released map[ledger.AccountID]bool
}

// New constructs an uninitialized instrument assigning all units to the
// issuing account.
func New(cfg Config) *Instance {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	rec := func(trade Trade) {
		if cfg.Recorder != nil {
			cfg.Recorder(trade)
		}
	}

	return &Instance{
		id:        cfg.ID,
		name:      cfg.Name,
		symbol:    cfg.Symbol,
		account:   cfg.Account,
		treasury:  cfg.Treasury,
		currency:  cfg.Currency,
		evHandler: ev,
		recorder:  rec,

		state:     Uninitialized,
		custodian: cfg.Issuer,

		shares:    ledger.New(cfg.Issuer),
		orders:    book.New(),
		dividends: dividend.NewAccumulator(),
		assets:    vault.New(),

		custodianPoll: poll.New(),
		terminatePoll: poll.New(),

		claims:   make(map[ledger.AccountID]uint64),
		released: make(map[ledger.AccountID]bool),
	}
}

// =============================================================================

// Initialize performs the one-time setup of the instrument: the reference
// value of all 100 units, the protocol tax rate in basis points, and the
// display decimals. Only the issuing holder can initialize.
func (i *Instance) Initialize(caller ledger.AccountID, value uint64, taxRateBps uint64, decimals uint64) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != Uninitialized {
		return ErrAlreadyInitialized
	}
	if i.shares.Balance(caller) != ledger.TotalUnits {
		return ErrNotIssuer
	}
	if value < ledger.TotalUnits {
		return ErrInvalidPrice
	}
	if taxRateBps > maxTaxRateBps {
		return ErrInvalidTaxRate
	}

	i.value = value
	i.taxBps = taxRateBps
	i.decimals = decimals
	i.state = Active

	i.evHandler("instance: initialize: %s value[%d] tax[%dbps]", i.id, value, taxRateBps)

	return nil
}

// SubmitBid places a buy order, escrowing price x units plus the protocol
// tax from the caller into the instrument's custody account.
func (i *Instance) SubmitBid(trader ledger.AccountID, price uint64, units uint64) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != Active {
		return ErrWrongState
	}
	if err := validUnits(units); err != nil {
		return err
	}
	if price == 0 {
		return ErrInvalidPrice
	}
	if _, err := i.orders.Get(trader); err == nil {
		return book.ErrOrderExists
	}

	total, err := tradeTotal(price, units)
	if err != nil {
		return err
	}
	fee := i.tax(total)
	escrow := total + fee

	// Resource precondition: pull the escrow before any book mutation so an
	// insufficient allowance or balance aborts with no state change.
	if err := i.currency.TransferFrom(i.account, trader, i.account, escrow); err != nil {
		return fmt.Errorf("escrow: %w", err)
	}

	order := book.Order{
		Trader:    trader,
		Side:      book.Bid,
		Price:     price,
		Remaining: units,
		Escrow:    escrow,
	}
	if err := i.orders.Add(order); err != nil {
		return err
	}

	i.evHandler("instance: bid: %s trader[%s] price[%d] units[%d] escrow[%d]", i.id, trader, price, units, escrow)

	return nil
}

// SubmitAsk places a sell order. The caller must currently hold at least
// the offered units; asks do not escrow currency.
func (i *Instance) SubmitAsk(trader ledger.AccountID, price uint64, units uint64) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != Active {
		return ErrWrongState
	}
	if err := validUnits(units); err != nil {
		return err
	}
	if price == 0 {
		return ErrInvalidPrice
	}
	if _, err := tradeTotal(price, units); err != nil {
		return err
	}
	if i.shares.Balance(trader) < units {
		return ErrInsufficientShares
	}

	order := book.Order{
		Trader:    trader,
		Side:      book.Ask,
		Price:     price,
		Remaining: units,
	}
	if err := i.orders.Add(order); err != nil {
		return err
	}

	i.evHandler("instance: ask: %s trader[%s] price[%d] units[%d]", i.id, trader, price, units)

	return nil
}

// Accept executes a trade against the specified open order for up to its
// remaining amount, strictly at the order's quoted price. Accepting a bid
// makes the caller the seller; accepting an ask makes the caller the buyer
// and pulls the trade value plus tax at call time.
func (i *Instance) Accept(caller ledger.AccountID, orderID ledger.AccountID, units uint64) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != Active {
		return ErrWrongState
	}

	order, err := i.orders.Get(orderID)
	if err != nil {
		return err
	}
	if units == 0 {
		return book.ErrZeroUnits
	}
	if units > order.Remaining {
		return fmt.Errorf("%d of %d: %w", units, order.Remaining, book.ErrExceedsOrder)
	}

	total, err := tradeTotal(order.Price, units)
	if err != nil {
		return err
	}
	fee := i.tax(total)

	var buyer, seller ledger.AccountID
	var escrowSpend uint64

	switch order.Side {
	case book.Bid:
		buyer, seller = order.Trader, caller
		escrowSpend = total + fee

		if i.shares.Balance(seller) < units {
			return ErrInsufficientShares
		}

	case book.Ask:
		buyer, seller = caller, order.Trader

		if i.shares.Balance(seller) < units {
			return ErrInsufficientShares
		}

		// Asks carry no escrow: pull the trade value plus tax from the
		// buyer now, before any mutation.
		if err := i.currency.TransferFrom(i.account, buyer, i.account, total+fee); err != nil {
			return fmt.Errorf("settlement: %w", err)
		}
	}

	// Settle accrued dividends for both parties at their pre-trade unit
	// counts so the trade cannot move unclaimed dividends between them.
	if err := i.settle(seller); err != nil {
		return err
	}
	if err := i.settle(buyer); err != nil {
		return err
	}

	if err := i.shares.Transfer(seller, buyer, units); err != nil {
		return err
	}

	closed, leftover, err := i.orders.Reduce(orderID, units, escrowSpend)
	if err != nil {
		return err
	}

	// Reassign the reference value to the traded price.
	i.value = i.value - (i.value/ledger.TotalUnits)*units + total

	// All mutation is complete. Issue the outbound transfers.
	if err := i.currency.Transfer(i.account, seller, total); err != nil {
		return fmt.Errorf("seller payout: %w", err)
	}
	if fee > 0 {
		if err := i.currency.Transfer(i.account, i.treasury, fee); err != nil {
			return fmt.Errorf("protocol tax: %w", err)
		}
	}
	if closed && leftover > 0 {
		if err := i.currency.Transfer(i.account, order.Trader, leftover); err != nil {
			return fmt.Errorf("escrow refund: %w", err)
		}
	}

	trade := Trade{
		InstanceID: i.id,
		Buyer:      buyer,
		Seller:     seller,
		Units:      units,
		Price:      order.Price,
		Value:      total,
		Tax:        fee,
		Date:       time.Now().UTC(),
	}
	i.recorder(trade)
	i.evHandler("instance: trade: %s buyer[%s] seller[%s] units[%d] price[%d]", i.id, buyer, seller, units, order.Price)

	return nil
}

// Cancel withdraws the caller's single open order, refunding any remaining
// bid escrow in full.
func (i *Instance) Cancel(caller ledger.AccountID) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != Active {
		return ErrWrongState
	}

	order, err := i.orders.Remove(caller)
	if err != nil {
		return err
	}

	if order.Side == book.Bid && order.Escrow > 0 {
		if err := i.currency.Transfer(i.account, caller, order.Escrow); err != nil {
			return fmt.Errorf("escrow refund: %w", err)
		}
	}

	i.evHandler("instance: cancel: %s trader[%s] %s units[%d]", i.id, caller, order.Side, order.Remaining)

	return nil
}

// Pay deposits currency into the instrument. The protocol tax is forwarded
// to the treasury and the remainder accrues to the distributable balance.
func (i *Instance) Pay(payer ledger.AccountID, amount uint64) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != Active {
		return ErrWrongState
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	if amount > math.MaxUint64/maxTaxRateBps {
		return ErrAmountTooLarge
	}

	if err := i.currency.TransferFrom(i.account, payer, i.account, amount); err != nil {
		return fmt.Errorf("payment: %w", err)
	}

	fee := i.tax(amount)
	i.pending += amount - fee

	if fee > 0 {
		if err := i.currency.Transfer(i.account, i.treasury, fee); err != nil {
			return fmt.Errorf("protocol tax: %w", err)
		}
	}

	i.evHandler("instance: pay: %s payer[%s] amount[%d] tax[%d]", i.id, payer, amount, fee)

	return nil
}

// Disburse appends a dividend checkpoint from the pending distributable
// balance. Any current holder may trigger a disburse.
func (i *Instance) Disburse(caller ledger.AccountID) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != Active {
		return ErrWrongState
	}
	if !i.shares.IsHolder(caller) {
		return ErrNotHolder
	}

	i.disburse()

	return nil
}

// Withdraw settles the caller's accrued dividends and transfers them out.
// After termination it also releases the caller's pro-rata fraction of the
// vault assets, exactly once.
func (i *Instance) Withdraw(caller ledger.AccountID) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == Uninitialized {
		return ErrWrongState
	}

	if err := i.settle(caller); err != nil {
		return err
	}

	owed := i.claims[caller]
	delete(i.claims, caller)

	units := i.shares.Balance(caller)
	releaseAssets := i.state == Terminated && units > 0 && !i.released[caller]
	if releaseAssets {
		i.released[caller] = true
	}

	if owed > 0 {
		if err := i.currency.Transfer(i.account, caller, owed); err != nil {

			// The claim survives a failed push so the holder can retry.
			i.claims[caller] += owed
			if releaseAssets {
				i.released[caller] = false
			}
			return fmt.Errorf("dividend payout: %w", err)
		}
	}
	if releaseAssets {
		if err := i.assets.Release(i.account, caller, units); err != nil {
			i.released[caller] = false
			return fmt.Errorf("asset release: %w", err)
		}
	}

	i.evHandler("instance: withdraw: %s holder[%s] amount[%d]", i.id, caller, owed)

	return nil
}

// Transfer moves units directly between two holders, settling both sides'
// accrued dividends at their pre-transfer unit counts first.
func (i *Instance) Transfer(caller ledger.AccountID, to ledger.AccountID, units uint64) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != Active {
		return ErrWrongState
	}
	if err := validUnits(units); err != nil {
		return err
	}
	if i.shares.Balance(caller) < units {
		return ErrInsufficientShares
	}

	if err := i.settle(caller); err != nil {
		return err
	}
	if err := i.settle(to); err != nil {
		return err
	}

	if err := i.shares.Transfer(caller, to, units); err != nil {
		return err
	}

	i.evHandler("instance: transfer: %s from[%s] to[%s] units[%d]", i.id, caller, to, units)

	return nil
}

// VoteSetCustodian registers or overwrites the caller's vote for a new
// custodian, weighted by the caller's current unit balance. The custodian
// changes the instant any candidate's tally reaches the majority.
func (i *Instance) VoteSetCustodian(caller ledger.AccountID, candidate ledger.AccountID) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != Active {
		return ErrWrongState
	}
	if !i.shares.IsHolder(caller) {
		return ErrNotHolder
	}

	if resolved := i.custodianPoll.Cast(caller, candidate, i.shares.Balance(caller)); resolved {
		i.custodian = candidate
		i.custodianPoll.Reset()
		i.evHandler("instance: custodian: %s changed to [%s]", i.id, candidate)
	}

	return nil
}

// VoteTerminate registers the caller's intent to terminate the instrument,
// weighted by the caller's current unit balance. Reaching the majority
// flips the instrument to Terminated: a final disburse runs, all open
// orders are voided with their escrow refunded, and vault assets become
// claimable pro-rata through Withdraw.
func (i *Instance) VoteTerminate(caller ledger.AccountID) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != Active {
		return ErrWrongState
	}
	if !i.shares.IsHolder(caller) {
		return ErrNotHolder
	}

	if resolved := i.terminatePoll.Cast(caller, terminateChoice, i.shares.Balance(caller)); resolved {
		return i.terminate()
	}

	return nil
}

// AddAsset deposits a secondary backing asset into custody. Only a holder
// with a controlling stake can add assets, and only while Active.
func (i *Instance) AddAsset(caller ledger.AccountID, asset vault.Asset, amount uint64) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != Active {
		return ErrWrongState
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	if i.shares.Balance(caller) < ledger.Majority {
		return ErrNotController
	}

	if err := asset.TransferFrom(i.account, caller, i.account, amount); err != nil {
		return fmt.Errorf("asset deposit: %w", err)
	}

	i.assets.Add(asset, amount)

	i.evHandler("instance: asset: %s token[%s] amount[%d]", i.id, asset.Symbol(), amount)

	return nil
}

// =============================================================================

// tradeTotal computes price x units, rejecting any price whose escrow or
// tax arithmetic would wrap around uint64.
func tradeTotal(price uint64, units uint64) (uint64, error) {
	if price > math.MaxUint64/units {
		return 0, ErrInvalidPrice
	}

	total := price * units
	if total > math.MaxUint64/maxTaxRateBps {
		return 0, ErrInvalidPrice
	}

	return total, nil
}

// tax computes the protocol tax for the specified amount.
func (i *Instance) tax(amount uint64) uint64 {
	return amount * i.taxBps / maxTaxRateBps
}

// settle moves the holder's checkpoint delta into its claimable balance at
// the holder's current unit count. The caller must hold the mutex.
func (i *Instance) settle(holder ledger.AccountID) error {
	owed, err := i.dividends.Settle(holder, i.shares.Balance(holder))
	if err != nil {
		return err
	}
	if owed > 0 {
		i.claims[holder] += owed
	}
	return nil
}

// disburse appends a checkpoint from the pending distributable balance.
// The caller must hold the mutex.
func (i *Instance) disburse() {
	perUnit := i.dividends.Disburse(i.pending)
	i.pending = 0

	i.evHandler("instance: disburse: %s perunit[%d]", i.id, perUnit)
}

// terminate flips the instrument to its absorbing final state. The caller
// must hold the mutex.
func (i *Instance) terminate() error {
	i.state = Terminated
	i.disburse()

	// Void all open orders. Bid escrow refunds are collected during
	// mutation and pushed once the book is empty.
	type refund struct {
		trader ledger.AccountID
		amount uint64
	}
	var refunds []refund

	for _, order := range i.orders.Orders() {
		if _, err := i.orders.Remove(order.Trader); err != nil {
			return err
		}
		if order.Side == book.Bid && order.Escrow > 0 {
			refunds = append(refunds, refund{trader: order.Trader, amount: order.Escrow})
		}
	}

	for _, r := range refunds {
		if err := i.currency.Transfer(i.account, r.trader, r.amount); err != nil {
			return fmt.Errorf("escrow refund: %w", err)
		}
	}

	i.evHandler("instance: terminated: %s", i.id)

	return nil
}

// validUnits rejects zero and over-denomination unit counts.
func validUnits(units uint64) error {
	if units == 0 {
		return book.ErrZeroUnits
	}
	if units > ledger.TotalUnits {
		return ErrUnitsOutOfRange
	}
	return nil
}
