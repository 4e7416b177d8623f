// Package factory issues independent instrument instances and forwards the
// fixed issuance fee to the root treasury. The root treasury is itself an
// instance of the same engine, configured as the fee sink every instrument
// issued by this factory pays into.
package factory

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devest/venue/foundation/venue/instance"
	"github.com/devest/venue/foundation/venue/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// Set of factory related errors.
var (
	ErrNotFound = errors.New("instance not found")
)

// Issuance is one line of the factory's issuance history.
type Issuance struct {
	ID      string
	Name    string
	Symbol  string
	Account ledger.AccountID
	Issuer  ledger.AccountID
	Date    time.Time
}

// Config represents the configuration required to construct the factory.
type Config struct {
	VenueID   string
	Operator  ledger.AccountID
	IssueFee  uint64
	Currency  instance.Currency
	EvHandler instance.EventHandler
	Recorder  instance.Recorder
}

// Factory constructs new instrument instances and keeps the issuance
// history. All fund movements between traders and instruments settle in
// the single venue currency.
type Factory struct {
	mu sync.Mutex

	venueID   string
	account   ledger.AccountID
	issueFee  uint64
	currency  instance.Currency
	evHandler instance.EventHandler
	recorder  instance.Recorder

	root      *instance.Instance
	instances map[string]*instance.Instance
	history   []Issuance
}

// New constructs a factory together with its root treasury instance. The
// treasury instance is issued to the venue operator and serves as the fee
// sink for every instrument issued later.
func New(cfg Config) *Factory {
	f := Factory{
		venueID:   cfg.VenueID,
		account:   DeriveAccount(cfg.VenueID),
		issueFee:  cfg.IssueFee,
		currency:  cfg.Currency,
		evHandler: cfg.EvHandler,
		recorder:  cfg.Recorder,
		instances: make(map[string]*instance.Instance),
	}

	rootID := cfg.VenueID + "-treasury"
	f.root = instance.New(instance.Config{
		ID:        rootID,
		Name:      cfg.VenueID + " Treasury",
		Symbol:    "Treasury",
		Account:   DeriveAccount(rootID),
		Issuer:    cfg.Operator,
		Treasury:  DeriveAccount(rootID),
		Currency:  cfg.Currency,
		EvHandler: cfg.EvHandler,
		Recorder:  cfg.Recorder,
	})
	f.instances[rootID] = f.root

	return &f
}

// Root returns the root treasury instance.
func (f *Factory) Root() *instance.Instance {
	return f.root
}

// Issue constructs a new instrument owned by the issuer, pulling the
// issuance fee from the issuer and forwarding it to the root treasury.
func (f *Factory) Issue(issuer ledger.AccountID, name string, symbol string) (*instance.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.issueFee > 0 {
		if err := f.currency.TransferFrom(f.account, issuer, f.root.Account(), f.issueFee); err != nil {
			return nil, fmt.Errorf("issue fee: %w", err)
		}
	}

	id := uuid.NewString()
	inst := instance.New(instance.Config{
		ID:        id,
		Name:      name,
		Symbol:    symbol,
		Account:   DeriveAccount(id),
		Issuer:    issuer,
		Treasury:  f.root.Account(),
		Currency:  f.currency,
		EvHandler: f.evHandler,
		Recorder:  f.recorder,
	})

	f.instances[id] = inst
	f.history = append(f.history, Issuance{
		ID:      id,
		Name:    name,
		Symbol:  symbol,
		Account: inst.Account(),
		Issuer:  issuer,
		Date:    time.Now().UTC(),
	})

	f.evHandler("factory: issue: %s name[%s] issuer[%s] fee[%d]", id, name, issuer, f.issueFee)

	return inst, nil
}

// Account returns the factory's fee-collection spender account. Issuers
// approve this account for the issuance fee.
func (f *Factory) Account() ledger.AccountID {
	return f.account
}

// Instance returns the instance with the specified id.
func (f *Factory) Instance(id string) (*instance.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inst, exists := f.instances[id]
	if !exists {
		return nil, ErrNotFound
	}
	return inst, nil
}

// Instances returns all issued instances, the treasury included.
func (f *Factory) Instances() []*instance.Instance {
	f.mu.Lock()
	defer f.mu.Unlock()

	instances := make([]*instance.Instance, 0, len(f.instances))
	for _, inst := range f.instances {
		instances = append(instances, inst)
	}
	return instances
}

// History returns a copy of the issuance history in issue order.
func (f *Factory) History() []Issuance {
	f.mu.Lock()
	defer f.mu.Unlock()

	history := make([]Issuance, len(f.history))
	copy(history, f.history)
	return history
}

// =============================================================================

// DeriveAccount deterministically derives a custody account for the
// specified identifier. Instruments are not backed by a private key; their
// account exists only as a ledger entry in the currency.
func DeriveAccount(id string) ledger.AccountID {
	hash := crypto.Keccak256([]byte(id))
	return ledger.AccountID(common.BytesToAddress(hash[12:]).String())
}
