// Package book maintains the open orders of a single instrument. Orders
// live in an unordered slice with an id to slot index so removal is O(1)
// swap-and-pop. A trader can have one live order at a time and the trader's
// account is the stable order id; slot positions are not stable and callers
// must re-resolve after any fill or cancel.
package book

import (
	"errors"
	"fmt"

	"github.com/devest/venue/foundation/venue/ledger"
)

// Side represents which side of the book an order rests on.
type Side int

// The two order sides. A bid escrows currency, an ask reserves shares.
const (
	Bid Side = iota + 1
	Ask
)

// String implements the fmt.Stringer interface.
func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	}
	return "unknown"
}

// Set of order book related errors.
var (
	ErrOrderExists    = errors.New("trader already has an open order")
	ErrNoOpenOrder    = errors.New("no open order")
	ErrExceedsOrder   = errors.New("units exceed order remaining amount")
	ErrZeroUnits      = errors.New("zero units")
	ErrNegativeEscrow = errors.New("negative escrow")
)

// Order represents a single open limit order.
type Order struct {
	Trader    ledger.AccountID
	Side      Side
	Price     uint64
	Remaining uint64
	Escrow    uint64
}

// Book manages the set of open orders for one instrument.
type Book struct {
	orders []Order
	index  map[ledger.AccountID]int
}

// New constructs an empty order book.
func New() *Book {
	return &Book{
		index: make(map[ledger.AccountID]int),
	}
}

// Add places a new order into the book. The trader must not have a live
// order already.
func (b *Book) Add(order Order) error {
	if order.Remaining == 0 {
		return ErrZeroUnits
	}

	if _, exists := b.index[order.Trader]; exists {
		return ErrOrderExists
	}

	b.index[order.Trader] = len(b.orders)
	b.orders = append(b.orders, order)

	return nil
}

// Get returns the order with the specified id.
func (b *Book) Get(trader ledger.AccountID) (Order, error) {
	slot, exists := b.index[trader]
	if !exists {
		return Order{}, ErrNoOpenOrder
	}

	return b.orders[slot], nil
}

// Reduce decrements the order's remaining amount by units and its escrow by
// the specified currency amount. When the remaining amount reaches zero the
// order is removed via swap-and-pop and the leftover escrow is returned so
// the caller can refund it.
func (b *Book) Reduce(trader ledger.AccountID, units uint64, escrow uint64) (closed bool, leftover uint64, err error) {
	slot, exists := b.index[trader]
	if !exists {
		return false, 0, ErrNoOpenOrder
	}

	order := b.orders[slot]
	if units == 0 {
		return false, 0, ErrZeroUnits
	}
	if units > order.Remaining {
		return false, 0, fmt.Errorf("%d of %d: %w", units, order.Remaining, ErrExceedsOrder)
	}
	if escrow > order.Escrow {
		return false, 0, ErrNegativeEscrow
	}

	order.Remaining -= units
	order.Escrow -= escrow

	if order.Remaining == 0 {
		b.remove(slot)
		return true, order.Escrow, nil
	}

	b.orders[slot] = order
	return false, 0, nil
}

// Remove deletes the trader's open order and returns it so any escrow can
// be refunded.
func (b *Book) Remove(trader ledger.AccountID) (Order, error) {
	slot, exists := b.index[trader]
	if !exists {
		return Order{}, ErrNoOpenOrder
	}

	order := b.orders[slot]
	b.remove(slot)

	return order, nil
}

// Orders returns a copy of all open orders in current slot order.
func (b *Book) Orders() []Order {
	orders := make([]Order, len(b.orders))
	copy(orders, b.orders)
	return orders
}

// Len returns the number of open orders.
func (b *Book) Len() int {
	return len(b.orders)
}

// EscrowTotal returns the sum of currency escrowed across all open bids.
func (b *Book) EscrowTotal() uint64 {
	var total uint64
	for _, order := range b.orders {
		total += order.Escrow
	}
	return total
}

// remove performs the swap-and-pop deletion, keeping the index map in sync
// when the last order is moved into the vacated slot.
func (b *Book) remove(slot int) {
	trader := b.orders[slot].Trader
	last := len(b.orders) - 1

	if slot != last {
		b.orders[slot] = b.orders[last]
		b.index[b.orders[slot].Trader] = slot
	}

	b.orders = b.orders[:last]
	delete(b.index, trader)
}
