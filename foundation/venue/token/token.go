// Package token provides the fungible settlement currency used by the
// venue. It keeps an in-memory balance ledger with allowance based pull
// transfers so an instrument can escrow funds on a trader's behalf only
// after the trader approved it.
package token

import (
	"errors"
	"fmt"
	"sync"

	"github.com/devest/venue/foundation/venue/ledger"
)

// Set of token related errors.
var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Token manages balances and allowances for one fungible currency.
type Token struct {
	mu sync.Mutex

	symbol     string
	balances   map[ledger.AccountID]uint64
	allowances map[ledger.AccountID]map[ledger.AccountID]uint64
}

// New constructs a token minting the full supply to the specified account.
func New(symbol string, supply uint64, owner ledger.AccountID) *Token {
	return &Token{
		symbol:     symbol,
		balances:   map[ledger.AccountID]uint64{owner: supply},
		allowances: make(map[ledger.AccountID]map[ledger.AccountID]uint64),
	}
}

// Symbol returns the token's display symbol.
func (t *Token) Symbol() string {
	return t.symbol
}

// BalanceOf returns the current balance of the specified account.
func (t *Token) BalanceOf(account ledger.AccountID) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.balances[account]
}

// Mint credits freshly created funds to the specified account. Used for
// provisioning trader accounts.
func (t *Token) Mint(account ledger.AccountID, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.balances[account] += amount
}

// Approve grants the spender the right to pull up to the specified amount
// from the owner's balance.
func (t *Token) Approve(owner ledger.AccountID, spender ledger.AccountID, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	spenders, exists := t.allowances[owner]
	if !exists {
		spenders = make(map[ledger.AccountID]uint64)
		t.allowances[owner] = spenders
	}
	spenders[spender] = amount
}

// Allowance returns the amount the spender may still pull from the owner.
func (t *Token) Allowance(owner ledger.AccountID, spender ledger.AccountID) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.allowances[owner][spender]
}

// Balances returns a copy of the full balance set.
func (t *Token) Balances() map[ledger.AccountID]uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	balances := make(map[ledger.AccountID]uint64, len(t.balances))
	for account, balance := range t.balances {
		balances[account] = balance
	}
	return balances
}

// Transfer moves funds between two accounts.
func (t *Token) Transfer(from ledger.AccountID, to ledger.AccountID, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.transfer(from, to, amount)
}

// TransferFrom moves funds from the owner to the recipient on behalf of the
// spender, consuming the spender's allowance.
func (t *Token) TransferFrom(spender ledger.AccountID, owner ledger.AccountID, to ledger.AccountID, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowance := t.allowances[owner][spender]
	if allowance < amount {
		return fmt.Errorf("spender %s allowed %d of %d: %w", spender, allowance, amount, ErrInsufficientAllowance)
	}

	if err := t.transfer(owner, to, amount); err != nil {
		return err
	}

	t.allowances[owner][spender] = allowance - amount
	return nil
}

// transfer applies the balance movement. The caller must hold the mutex.
func (t *Token) transfer(from ledger.AccountID, to ledger.AccountID, amount uint64) error {
	if t.balances[from] < amount {
		return fmt.Errorf("account %s holds %d of %d: %w", from, t.balances[from], amount, ErrInsufficientFunds)
	}

	t.balances[from] -= amount
	t.balances[to] += amount

	return nil
}
