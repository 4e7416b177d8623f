// Package state is the core API for the venue node. It owns the settlement
// currency, the factory with all issued instances, and the trade journal,
// and it is the only surface the web handlers talk to.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/devest/venue/foundation/venue/charter"
	"github.com/devest/venue/foundation/venue/factory"
	"github.com/devest/venue/foundation/venue/instance"
	"github.com/devest/venue/foundation/venue/journal"
	"github.com/devest/venue/foundation/venue/ledger"
	"github.com/devest/venue/foundation/venue/token"
)

// Set of state related errors.
var (
	ErrUnknownAsset   = errors.New("unknown asset token")
	ErrDuplicateAsset = errors.New("asset token already registered")
)

// EventHandler defines a function that is called when events occur in the
// processing of venue operations.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the venue node.
type Config struct {
	Charter        charter.Charter
	Operator       ledger.AccountID
	JournalStorage journal.Storage
	EvHandler      EventHandler
}

// State manages the venue node.
type State struct {
	mu sync.Mutex

	charter   charter.Charter
	evHandler EventHandler

	currency *token.Token
	assets   map[string]*token.Token
	factory  *factory.Factory
	journal  *journal.Journal
	nonces   map[ledger.AccountID]uint64
	inflight map[ledger.AccountID]map[uint64]struct{}
}

// New constructs the venue state, minting the charter balances and
// creating the factory with its root treasury.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Mint the settlement currency and provision the starting balances
	// recorded in the charter.
	currency := token.New(cfg.Charter.CurrencySymbol, cfg.Charter.CurrencySupply, cfg.Operator)
	for accountStr, balance := range cfg.Charter.Balances {
		accountID, err := ledger.ToAccountID(accountStr)
		if err != nil {
			return nil, err
		}
		if accountID == cfg.Operator {
			continue
		}
		if err := currency.Transfer(cfg.Operator, accountID, balance); err != nil {
			return nil, fmt.Errorf("provision %s: %w", accountID, err)
		}
	}

	jnl, err := journal.New(cfg.JournalStorage)
	if err != nil {
		return nil, err
	}

	st := State{
		charter:   cfg.Charter,
		evHandler: ev,
		currency:  currency,
		assets:    make(map[string]*token.Token),
		journal:   jnl,
		nonces:    make(map[ledger.AccountID]uint64),
		inflight:  make(map[ledger.AccountID]map[uint64]struct{}),
	}

	rec := func(trade instance.Trade) {
		if err := jnl.Record(trade); err != nil {
			ev("state: journal: ERROR: %s", err)
		}
	}

	st.factory = factory.New(factory.Config{
		VenueID:   cfg.Charter.VenueID,
		Operator:  cfg.Operator,
		IssueFee:  cfg.Charter.IssueFee,
		Currency:  currency,
		EvHandler: instance.EventHandler(ev),
		Recorder:  rec,
	})

	return &st, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	return s.journal.Close()
}

// =============================================================================

// Issue constructs a new instrument owned by the issuer. The issuer must
// have approved the factory account for the issuance fee.
func (s *State) Issue(issuer ledger.AccountID, name string, symbol string) (*instance.Instance, error) {
	return s.factory.Issue(issuer, name, symbol)
}

// RegisterAsset mints a secondary asset token for use as instrument
// backing, crediting the full supply to the owner.
func (s *State) RegisterAsset(symbol string, supply uint64, owner ledger.AccountID) (*token.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.assets[symbol]; exists {
		return nil, ErrDuplicateAsset
	}

	tok := token.New(symbol, supply, owner)
	s.assets[symbol] = tok

	s.evHandler("state: asset registered: %s supply[%d]", symbol, supply)

	return tok, nil
}

// Asset returns the registered asset token with the specified symbol.
func (s *State) Asset(symbol string) (*token.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, exists := s.assets[symbol]
	if !exists {
		return nil, ErrUnknownAsset
	}
	return tok, nil
}

// Currency returns the venue settlement currency.
func (s *State) Currency() *token.Token {
	return s.currency
}

// Factory returns the instance factory.
func (s *State) Factory() *factory.Factory {
	return s.factory
}

// RetrieveCharter returns the venue charter.
func (s *State) RetrieveCharter() charter.Charter {
	return s.charter
}

// RetrieveInstance returns the instance with the specified id.
func (s *State) RetrieveInstance(id string) (*instance.Instance, error) {
	return s.factory.Instance(id)
}

// RetrieveInstances returns all issued instances.
func (s *State) RetrieveInstances() []*instance.Instance {
	return s.factory.Instances()
}

// RetrieveTrades returns the recorded trades for the specified instrument.
func (s *State) RetrieveTrades(instanceID string) ([]instance.Trade, error) {
	return s.journal.Trades(instanceID)
}
