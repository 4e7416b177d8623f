// Package act defines the signed action envelope clients submit to the
// venue. A wallet signs the action with the trader's private key and the
// node recovers the calling account from the signature, so the engine never
// trusts a caller-supplied from address.
package act

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/devest/venue/foundation/venue/ledger"
	"github.com/devest/venue/foundation/venue/signature"
)

// Op identifies the instrument operation an action requests.
type Op string

// The set of operations a signed action can request.
const (
	OpInitialize    Op = "initialize"
	OpBid           Op = "bid"
	OpAsk           Op = "ask"
	OpAccept        Op = "accept"
	OpCancel        Op = "cancel"
	OpPay           Op = "pay"
	OpDisburse      Op = "disburse"
	OpWithdraw      Op = "withdraw"
	OpTransfer      Op = "transfer"
	OpVoteCustodian Op = "vote-custodian"
	OpVoteTerminate Op = "vote-terminate"
	OpAddAsset      Op = "add-asset"
)

// validOps is used to reject unknown operations before dispatch.
var validOps = map[Op]bool{
	OpInitialize: true, OpBid: true, OpAsk: true, OpAccept: true,
	OpCancel: true, OpPay: true, OpDisburse: true, OpWithdraw: true,
	OpTransfer: true, OpVoteCustodian: true, OpVoteTerminate: true,
	OpAddAsset: true,
}

// =============================================================================

// Action is the unsigned operation request against one instrument.
type Action struct {
	Nonce      uint64           `json:"nonce"`       // Unique per-account id supplied by the wallet.
	InstanceID string           `json:"instance_id"` // Instrument the operation targets.
	Op         Op               `json:"op"`          // Operation to perform.
	Price      uint64           `json:"price"`       // Per-unit price for bid/ask; aggregate value for initialize.
	Units      uint64           `json:"units"`       // Units for bid/ask/accept/transfer.
	Amount     uint64           `json:"amount"`      // Currency amount for pay and add-asset.
	TaxBps     uint64           `json:"tax_bps"`     // Tax rate for initialize.
	Decimals   uint64           `json:"decimals"`    // Display decimals for initialize.
	OrderID    ledger.AccountID `json:"order_id"`    // Order to trade against for accept.
	To         ledger.AccountID `json:"to"`          // Recipient for transfer, candidate for vote-custodian.
	Asset      string           `json:"asset"`       // Token symbol for add-asset.
}

// Sign uses the specified private key to sign the action.
func (a Action) Sign(privateKey *ecdsa.PrivateKey) (SignedAction, error) {
	if !validOps[a.Op] {
		return SignedAction{}, fmt.Errorf("unknown operation %q", a.Op)
	}

	v, r, s, err := signature.Sign(a, privateKey)
	if err != nil {
		return SignedAction{}, err
	}

	return SignedAction{Action: a, V: v, R: r, S: s}, nil
}

// =============================================================================

// SignedAction is a signed version of the action. This is how wallets
// provide operations for execution by the venue.
type SignedAction struct {
	Action
	V *big.Int `json:"v"` // Recovery identifier, either 31 or 32 with venueID.
	R *big.Int `json:"r"` // First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Second coordinate of the ECDSA signature.
}

// Validate verifies the action has a proper signature that conforms to our
// standards and requests a known operation.
func (sa SignedAction) Validate() error {
	if !validOps[sa.Op] {
		return fmt.Errorf("unknown operation %q", sa.Op)
	}

	if sa.InstanceID == "" {
		return errors.New("missing instance id")
	}

	if err := signature.VerifySignature(sa.Action, sa.V, sa.R, sa.S); err != nil {
		return err
	}

	return nil
}

// FromAccount extracts the account that signed the action.
func (sa SignedAction) FromAccount() (ledger.AccountID, error) {
	address, err := signature.FromAddress(sa.Action, sa.V, sa.R, sa.S)
	return ledger.AccountID(address), err
}

// SignatureString returns the signature as a string.
func (sa SignedAction) SignatureString() string {
	return signature.SignatureString(sa.V, sa.R, sa.S)
}

// String implements the fmt.Stringer interface for logging.
func (sa SignedAction) String() string {
	from, err := sa.FromAccount()
	if err != nil {
		from = "unknown"
	}

	return fmt.Sprintf("%s:%d:%s", from, sa.Nonce, sa.Op)
}
