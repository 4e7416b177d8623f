package state

import (
	"fmt"

	"github.com/devest/venue/foundation/venue/act"
	"github.com/devest/venue/foundation/venue/ledger"
)

// SubmitAction validates a signed action, recovers the calling account from
// its signature, and dispatches it to the targeted instrument. The per
// account nonce advances only when the operation succeeds, so a rejected
// action can be re-signed and resubmitted as-is. The nonce is reserved for
// the whole dispatch, so concurrent submissions of the same signed action
// execute at most once.
func (s *State) SubmitAction(sa act.SignedAction) error {
	if err := sa.Validate(); err != nil {
		return err
	}

	from, err := sa.FromAccount()
	if err != nil {
		return fmt.Errorf("recover account: %w", err)
	}

	if err := s.reserveNonce(from, sa.Nonce); err != nil {
		return err
	}

	inst, err := s.factory.Instance(sa.InstanceID)
	if err != nil {
		s.releaseNonce(from, sa.Nonce)
		return err
	}

	switch sa.Op {
	case act.OpInitialize:
		err = inst.Initialize(from, sa.Price, sa.TaxBps, sa.Decimals)

	case act.OpBid:
		err = inst.SubmitBid(from, sa.Price, sa.Units)

	case act.OpAsk:
		err = inst.SubmitAsk(from, sa.Price, sa.Units)

	case act.OpAccept:
		err = inst.Accept(from, sa.OrderID, sa.Units)

	case act.OpCancel:
		err = inst.Cancel(from)

	case act.OpPay:
		err = inst.Pay(from, sa.Amount)

	case act.OpDisburse:
		err = inst.Disburse(from)

	case act.OpWithdraw:
		err = inst.Withdraw(from)

	case act.OpTransfer:
		err = inst.Transfer(from, sa.To, sa.Units)

	case act.OpVoteCustodian:
		err = inst.VoteSetCustodian(from, sa.To)

	case act.OpVoteTerminate:
		err = inst.VoteTerminate(from)

	case act.OpAddAsset:
		tok, lookupErr := s.Asset(sa.Asset)
		if lookupErr != nil {
			return lookupErr
		}
		err = inst.AddAsset(from, tok, sa.Amount)

	default:
		s.releaseNonce(from, sa.Nonce)
		return fmt.Errorf("unknown operation %q", sa.Op)
	}

	if err != nil {
		s.releaseNonce(from, sa.Nonce)
		return err
	}

	s.commitNonce(from, sa.Nonce)
	s.evHandler("state: action: %s op[%s] instance[%s]", from, sa.Op, sa.InstanceID)

	return nil
}

// reserveNonce rejects actions that replay or reorder a previously executed
// action of the same account, and marks the nonce in flight so a concurrent
// submission of the same action cannot pass the gate while this one is
// still dispatching.
func (s *State) reserveNonce(account ledger.AccountID, nonce uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current := s.nonces[account]; nonce <= current {
		return fmt.Errorf("invalid nonce, current %d, provided %d", current, nonce)
	}
	if _, busy := s.inflight[account][nonce]; busy {
		return fmt.Errorf("invalid nonce, %d already in flight", nonce)
	}

	if s.inflight[account] == nil {
		s.inflight[account] = make(map[uint64]struct{})
	}
	s.inflight[account][nonce] = struct{}{}

	return nil
}

// releaseNonce frees a reserved nonce after a failed dispatch so the same
// action can be resubmitted.
func (s *State) releaseNonce(account ledger.AccountID, nonce uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inflight[account], nonce)
}

// commitNonce records the nonce of a successfully executed action and frees
// its reservation.
func (s *State) commitNonce(account ledger.AccountID, nonce uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nonces[account] = nonce
	delete(s.inflight[account], nonce)
}
