package instance_test

import (
	"errors"
	"math"
	"testing"

	"github.com/devest/venue/foundation/venue/book"
	"github.com/devest/venue/foundation/venue/instance"
	"github.com/devest/venue/foundation/venue/ledger"
	"github.com/devest/venue/foundation/venue/token"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

const (
	issuer   = ledger.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	buyer    = ledger.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	third    = ledger.AccountID("0x8e113078adf6888b7ba84967f299f29aece24c55")
	custody  = ledger.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")
	treasury = ledger.AccountID("0xb8Ee4c36f50a9fD1D3b4bbeB0a323b45f640Bcd8")
)

// newInstrument constructs an active instrument backed by a fresh currency
// with 10B provisioned to each trader. Reference value 3B, 10% tax.
func newInstrument(t *testing.T, trades *[]instance.Trade) (*instance.Instance, *token.Token) {
	t.Helper()

	currency := token.New("VCOIN", 40_000_000_000, issuer)
	for _, account := range []ledger.AccountID{buyer, third} {
		if err := currency.Transfer(issuer, account, 10_000_000_000); err != nil {
			t.Fatalf("\t%s\tShould be able to provision %s: %v", failed, account, err)
		}
	}

	var rec instance.Recorder
	if trades != nil {
		rec = func(trade instance.Trade) {
			*trades = append(*trades, trade)
		}
	}

	inst := instance.New(instance.Config{
		ID:       "inst-1",
		Name:     "Tangible One",
		Symbol:   "TAN",
		Account:  custody,
		Issuer:   issuer,
		Treasury: treasury,
		Currency: currency,
		Recorder: rec,
	})

	if err := inst.Initialize(issuer, 3_000_000_000, 1_000, 0); err != nil {
		t.Fatalf("\t%s\tShould be able to initialize the instrument: %v", failed, err)
	}

	return inst, currency
}

func Test_Initialize(t *testing.T) {
	t.Log("Given the need to initialize an instrument exactly once.")
	{
		t.Logf("\tTest 0:\tWhen initializing with valid terms.")
		{
			currency := token.New("VCOIN", 1_000, issuer)
			inst := instance.New(instance.Config{
				ID: "inst-1", Account: custody, Issuer: issuer, Treasury: treasury, Currency: currency,
			})

			if state := inst.State(); state != instance.Uninitialized {
				t.Fatalf("\t%s\tTest 0:\tShould start uninitialized: got %s", failed, state)
			}
			t.Logf("\t%s\tTest 0:\tShould start uninitialized.", success)

			if err := inst.Initialize(buyer, 3_000_000_000, 1_000, 0); !errors.Is(err, instance.ErrNotIssuer) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a non-issuer caller: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a non-issuer caller.", success)

			if err := inst.Initialize(issuer, 99, 1_000, 0); !errors.Is(err, instance.ErrInvalidPrice) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a value under one per unit: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a value under one per unit.", success)

			if err := inst.Initialize(issuer, 3_000_000_000, 10_001, 0); !errors.Is(err, instance.ErrInvalidTaxRate) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a tax over 100%%: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a tax over 100%%.", success)

			if err := inst.Initialize(issuer, 3_000_000_000, 1_000, 0); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to initialize: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to initialize.", success)

			if err := inst.Initialize(issuer, 3_000_000_000, 1_000, 0); !errors.Is(err, instance.ErrAlreadyInitialized) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a second initialize: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a second initialize.", success)

			if price := inst.Price(); price != 30_000_000 {
				t.Errorf("\t%s\tTest 0:\tShould quote the per-unit price: got %d", failed, price)
			} else {
				t.Logf("\t%s\tTest 0:\tShould quote the per-unit price.", success)
			}
		}
	}
}

func Test_BidTrade(t *testing.T) {
	t.Log("Given the need to fill a bid at its quoted price.")
	{
		t.Logf("\tTest 0:\tWhen a buyer bids 50 units at 30000000 and the issuer accepts.")
		{
			var trades []instance.Trade
			inst, currency := newInstrument(t, &trades)

			// 50 x 30M = 1.5B, plus 10% tax = 1.65B escrow.
			currency.Approve(buyer, custody, 1_650_000_000)
			if err := inst.SubmitBid(buyer, 30_000_000, 50); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit the bid: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to submit the bid.", success)

			if bal := currency.BalanceOf(custody); bal != 1_650_000_000 {
				t.Fatalf("\t%s\tTest 0:\tShould hold the full escrow in custody: got %d", failed, bal)
			}
			t.Logf("\t%s\tTest 0:\tShould hold the full escrow in custody.", success)

			sellerBefore := currency.BalanceOf(issuer)
			if err := inst.Accept(issuer, buyer, 50); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to accept the bid: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to accept the bid.", success)

			if diff := currency.BalanceOf(issuer) - sellerBefore; diff != 1_500_000_000 {
				t.Errorf("\t%s\tTest 0:\tShould pay the seller exactly price x units: got %d", failed, diff)
			} else {
				t.Logf("\t%s\tTest 0:\tShould pay the seller exactly price x units.", success)
			}

			if bal := currency.BalanceOf(treasury); bal != 150_000_000 {
				t.Errorf("\t%s\tTest 0:\tShould forward the tax to the treasury: got %d", failed, bal)
			} else {
				t.Logf("\t%s\tTest 0:\tShould forward the tax to the treasury.", success)
			}

			if bal := currency.BalanceOf(custody); bal != 0 {
				t.Errorf("\t%s\tTest 0:\tShould leave custody empty after the fill: got %d", failed, bal)
			} else {
				t.Logf("\t%s\tTest 0:\tShould leave custody empty after the fill.", success)
			}

			if issuerUnits, buyerUnits := inst.Balance(issuer), inst.Balance(buyer); issuerUnits != 50 || buyerUnits != 50 {
				t.Errorf("\t%s\tTest 0:\tShould split the units 50/50: got %d/%d", failed, issuerUnits, buyerUnits)
			} else {
				t.Logf("\t%s\tTest 0:\tShould split the units 50/50.", success)
			}

			if len(inst.Orders()) != 0 {
				t.Errorf("\t%s\tTest 0:\tShould close the filled order.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould close the filled order.", success)
			}

			if sum := inst.UnitChecksum(); sum != ledger.TotalUnits {
				t.Errorf("\t%s\tTest 0:\tShould conserve the unit total: got %d", failed, sum)
			} else {
				t.Logf("\t%s\tTest 0:\tShould conserve the unit total.", success)
			}

			if len(trades) != 1 || trades[0].Units != 50 || trades[0].Value != 1_500_000_000 || trades[0].Tax != 150_000_000 {
				t.Errorf("\t%s\tTest 0:\tShould record the trade: got %+v", failed, trades)
			} else {
				t.Logf("\t%s\tTest 0:\tShould record the trade.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen partial fills leave escrow dust.")
		{
			inst, currency := newInstrument(t, nil)

			// 3 x 100 = 300, plus 10% = 330 escrow.
			currency.Approve(buyer, custody, 330)
			if err := inst.SubmitBid(buyer, 100, 3); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to submit the bid: %v", failed, err)
			}

			buyerBefore := currency.BalanceOf(buyer)

			if err := inst.Accept(issuer, buyer, 1); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to accept part of the bid: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to accept part of the bid.", success)

			if err := inst.Accept(issuer, buyer, 2); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to fill the rest: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to fill the rest.", success)

			if bal := currency.BalanceOf(custody); bal != 0 {
				t.Errorf("\t%s\tTest 1:\tShould refund every escrowed coin: custody holds %d", failed, bal)
			} else {
				t.Logf("\t%s\tTest 1:\tShould refund every escrowed coin.", success)
			}

			if bal := currency.BalanceOf(buyer); bal != buyerBefore {
				t.Errorf("\t%s\tTest 1:\tShould charge the buyer nothing beyond the escrow: got %d want %d", failed, bal, buyerBefore)
			} else {
				t.Logf("\t%s\tTest 1:\tShould charge the buyer nothing beyond the escrow.", success)
			}
		}
	}
}

func Test_AskTrade(t *testing.T) {
	t.Log("Given the need to fill an ask at its quoted price.")
	{
		t.Logf("\tTest 0:\tWhen the issuer asks 25 units at 40000000 and a buyer takes 2.")
		{
			inst, currency := newInstrument(t, nil)

			if err := inst.SubmitAsk(issuer, 40_000_000, 25); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit the ask: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to submit the ask.", success)

			if bal := currency.BalanceOf(custody); bal != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould escrow nothing for an ask: got %d", failed, bal)
			}
			t.Logf("\t%s\tTest 0:\tShould escrow nothing for an ask.", success)

			buyerBefore := currency.BalanceOf(buyer)
			sellerBefore := currency.BalanceOf(issuer)

			// 2 x 40M = 80M, plus 10% tax = 88M.
			currency.Approve(buyer, custody, 88_000_000)
			if err := inst.Accept(buyer, issuer, 2); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to accept the ask: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to accept the ask.", success)

			if paid := buyerBefore - currency.BalanceOf(buyer); paid != 88_000_000 {
				t.Errorf("\t%s\tTest 0:\tShould charge the buyer value plus tax: got %d", failed, paid)
			} else {
				t.Logf("\t%s\tTest 0:\tShould charge the buyer value plus tax.", success)
			}

			if recv := currency.BalanceOf(issuer) - sellerBefore; recv != 80_000_000 {
				t.Errorf("\t%s\tTest 0:\tShould pay the seller exactly price x units: got %d", failed, recv)
			} else {
				t.Logf("\t%s\tTest 0:\tShould pay the seller exactly price x units.", success)
			}

			if bal := currency.BalanceOf(treasury); bal != 8_000_000 {
				t.Errorf("\t%s\tTest 0:\tShould forward the tax to the treasury: got %d", failed, bal)
			} else {
				t.Logf("\t%s\tTest 0:\tShould forward the tax to the treasury.", success)
			}

			if issuerUnits, buyerUnits := inst.Balance(issuer), inst.Balance(buyer); issuerUnits != 98 || buyerUnits != 2 {
				t.Errorf("\t%s\tTest 0:\tShould move 2 units to the buyer: got %d/%d", failed, issuerUnits, buyerUnits)
			} else {
				t.Logf("\t%s\tTest 0:\tShould move 2 units to the buyer.", success)
			}

			if value := inst.Value(); value != 3_020_000_000 {
				t.Errorf("\t%s\tTest 0:\tShould reassign the reference value to the traded price: got %d", failed, value)
			} else {
				t.Logf("\t%s\tTest 0:\tShould reassign the reference value to the traded price.", success)
			}

			order, err := inst.Order(issuer)
			if err != nil || order.Remaining != 23 {
				t.Errorf("\t%s\tTest 0:\tShould keep the partially filled ask open with 23 units: %+v %v", failed, order, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould keep the partially filled ask open with 23 units.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen a seller no longer holds the offered units.")
		{
			inst, currency := newInstrument(t, nil)

			if err := inst.SubmitAsk(issuer, 40_000_000, 80); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to submit the ask: %v", failed, err)
			}

			// Drain the seller's units behind the ask.
			if err := inst.Transfer(issuer, third, 50); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to transfer units: %v", failed, err)
			}

			buyerBefore := currency.BalanceOf(buyer)
			currency.Approve(buyer, custody, 4_000_000_000)

			err := inst.Accept(buyer, issuer, 80)
			if !errors.Is(err, instance.ErrInsufficientShares) {
				t.Fatalf("\t%s\tTest 1:\tShould reject the fill: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the fill.", success)

			if bal := currency.BalanceOf(buyer); bal != buyerBefore {
				t.Errorf("\t%s\tTest 1:\tShould leave the buyer's funds untouched: got %d", failed, bal)
			} else {
				t.Logf("\t%s\tTest 1:\tShould leave the buyer's funds untouched.", success)
			}
		}
	}
}

func Test_Cancel(t *testing.T) {
	t.Log("Given the need to withdraw an open order.")
	{
		t.Logf("\tTest 0:\tWhen cancelling a bid.")
		{
			inst, currency := newInstrument(t, nil)

			buyerBefore := currency.BalanceOf(buyer)

			currency.Approve(buyer, custody, 330)
			if err := inst.SubmitBid(buyer, 100, 3); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit the bid: %v", failed, err)
			}

			if err := inst.Cancel(buyer); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to cancel: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to cancel.", success)

			if bal := currency.BalanceOf(buyer); bal != buyerBefore {
				t.Errorf("\t%s\tTest 0:\tShould refund the escrow in full: got %d want %d", failed, bal, buyerBefore)
			} else {
				t.Logf("\t%s\tTest 0:\tShould refund the escrow in full.", success)
			}

			if err := inst.Cancel(buyer); !errors.Is(err, book.ErrNoOpenOrder) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a second cancel: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a second cancel.", success)
		}
	}
}

func Test_Dividends(t *testing.T) {
	t.Log("Given the need to distribute payments to holders.")
	{
		t.Logf("\tTest 0:\tWhen 200000000 is paid at a 10%% tax.")
		{
			inst, currency := newInstrument(t, nil)

			// Move 30 units to a second holder first.
			if err := inst.Transfer(issuer, buyer, 30); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to transfer units: %v", failed, err)
			}

			currency.Approve(third, custody, 200_000_000)
			if err := inst.Pay(third, 200_000_000); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to pay: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to pay.", success)

			if bal := currency.BalanceOf(treasury); bal != 20_000_000 {
				t.Errorf("\t%s\tTest 0:\tShould forward the payment tax to the treasury: got %d", failed, bal)
			} else {
				t.Logf("\t%s\tTest 0:\tShould forward the payment tax to the treasury.", success)
			}

			if err := inst.Disburse(third); !errors.Is(err, instance.ErrNotHolder) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a disburse from a non-holder: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a disburse from a non-holder.", success)

			if err := inst.Disburse(buyer); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to disburse: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to disburse.", success)

			if claim := inst.Claimable(buyer); claim != 54_000_000 {
				t.Fatalf("\t%s\tTest 0:\tShould accrue 54000000 to 30 units: got %d", failed, claim)
			}
			t.Logf("\t%s\tTest 0:\tShould accrue 54000000 to 30 units.", success)

			buyerBefore := currency.BalanceOf(buyer)
			if err := inst.Withdraw(buyer); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to withdraw: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to withdraw.", success)

			if diff := currency.BalanceOf(buyer) - buyerBefore; diff != 54_000_000 {
				t.Errorf("\t%s\tTest 0:\tShould pay out the accrued amount: got %d", failed, diff)
			} else {
				t.Logf("\t%s\tTest 0:\tShould pay out the accrued amount.", success)
			}

			if claim := inst.Claimable(buyer); claim != 0 {
				t.Errorf("\t%s\tTest 0:\tShould clear the claim after withdraw: got %d", failed, claim)
			} else {
				t.Logf("\t%s\tTest 0:\tShould clear the claim after withdraw.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen units move after a disburse.")
		{
			inst, currency := newInstrument(t, nil)

			if err := inst.Transfer(issuer, buyer, 40); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to transfer units: %v", failed, err)
			}

			currency.Approve(third, custody, 100_000_000)
			if err := inst.Pay(third, 100_000_000); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to pay: %v", failed, err)
			}
			if err := inst.Disburse(issuer); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to disburse: %v", failed, err)
			}

			// 90M distributable: issuer 60 units -> 54M, buyer 40 -> 36M.
			// Moving units now must not move the accrued dividends.
			if err := inst.Transfer(buyer, issuer, 40); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to transfer units: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to transfer units after a disburse.", success)

			if claim := inst.Claimable(buyer); claim != 36_000_000 {
				t.Errorf("\t%s\tTest 1:\tShould keep the seller's accrual at the pre-change units: got %d", failed, claim)
			} else {
				t.Logf("\t%s\tTest 1:\tShould keep the seller's accrual at the pre-change units.", success)
			}

			if claim := inst.Claimable(issuer); claim != 54_000_000 {
				t.Errorf("\t%s\tTest 1:\tShould keep the receiver's accrual at the pre-change units: got %d", failed, claim)
			} else {
				t.Logf("\t%s\tTest 1:\tShould keep the receiver's accrual at the pre-change units.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen the payout push fails.")
		{
			inst, currency := newInstrument(t, nil)

			if err := inst.Transfer(issuer, buyer, 30); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to transfer units: %v", failed, err)
			}

			currency.Approve(third, custody, 200_000_000)
			if err := inst.Pay(third, 200_000_000); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to pay: %v", failed, err)
			}
			if err := inst.Disburse(buyer); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to disburse: %v", failed, err)
			}

			// Drain custody so the payout cannot be covered.
			if err := currency.Transfer(custody, third, currency.BalanceOf(custody)); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to drain custody: %v", failed, err)
			}

			if err := inst.Withdraw(buyer); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould fail the withdraw.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould fail the withdraw.", success)

			if claim := inst.Claimable(buyer); claim != 54_000_000 {
				t.Fatalf("\t%s\tTest 2:\tShould keep the claim for a retry: got %d", failed, claim)
			}
			t.Logf("\t%s\tTest 2:\tShould keep the claim for a retry.", success)

			if err := currency.Transfer(third, custody, 180_000_000); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to refund custody: %v", failed, err)
			}

			buyerBefore := currency.BalanceOf(buyer)
			if err := inst.Withdraw(buyer); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould succeed on retry: %v", failed, err)
			}
			if diff := currency.BalanceOf(buyer) - buyerBefore; diff != 54_000_000 {
				t.Errorf("\t%s\tTest 2:\tShould pay the preserved claim on retry: got %d", failed, diff)
			} else {
				t.Logf("\t%s\tTest 2:\tShould pay the preserved claim on retry.", success)
			}
		}
	}
}

func Test_Governance(t *testing.T) {
	t.Log("Given the need to resolve control by share weighted majority.")
	{
		t.Logf("\tTest 0:\tWhen voting to change the custodian.")
		{
			inst, _ := newInstrument(t, nil)

			if err := inst.Transfer(issuer, buyer, 49); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to transfer units: %v", failed, err)
			}

			if err := inst.VoteSetCustodian(buyer, third); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to vote: %v", failed, err)
			}
			if cust := inst.Custodian(); cust != issuer {
				t.Fatalf("\t%s\tTest 0:\tShould not change the custodian at 49 units: got %s", failed, cust)
			}
			t.Logf("\t%s\tTest 0:\tShould not change the custodian at 49 units.", success)

			if err := inst.VoteSetCustodian(issuer, third); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to vote: %v", failed, err)
			}
			if cust := inst.Custodian(); cust != third {
				t.Fatalf("\t%s\tTest 0:\tShould change the custodian at the majority: got %s", failed, cust)
			}
			t.Logf("\t%s\tTest 0:\tShould change the custodian at the majority.", success)
		}

		t.Logf("\tTest 1:\tWhen units move after a vote is cast.")
		{
			inst, _ := newInstrument(t, nil)

			if err := inst.Transfer(issuer, buyer, 49); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to transfer units: %v", failed, err)
			}

			if err := inst.VoteSetCustodian(buyer, third); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to vote: %v", failed, err)
			}

			// The voter acquires a majority after voting. Tallies are not
			// recomputed, so the vote stays at its cast weight.
			if err := inst.Transfer(issuer, buyer, 11); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to transfer units: %v", failed, err)
			}

			if cust := inst.Custodian(); cust != issuer {
				t.Fatalf("\t%s\tTest 1:\tShould not re-tally votes on transfer: got %s", failed, cust)
			}
			t.Logf("\t%s\tTest 1:\tShould not re-tally votes on transfer.", success)

			// A fresh cast picks up the voter's current balance.
			if err := inst.VoteSetCustodian(buyer, third); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to re-vote: %v", failed, err)
			}
			if cust := inst.Custodian(); cust != third {
				t.Fatalf("\t%s\tTest 1:\tShould resolve on a re-vote at the new weight: got %s", failed, cust)
			}
			t.Logf("\t%s\tTest 1:\tShould resolve on a re-vote at the new weight.", success)
		}
	}
}

func Test_Terminate(t *testing.T) {
	t.Log("Given the need to wind an instrument down.")
	{
		t.Logf("\tTest 0:\tWhen the termination vote reaches the majority.")
		{
			inst, currency := newInstrument(t, nil)

			// Custody a backing asset while the issuer controls all units.
			xau := token.New("XAU", 10_000, issuer)
			xau.Approve(issuer, custody, 10_000)
			if err := inst.AddAsset(issuer, xau, 10_000); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add a backing asset: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add a backing asset.", success)

			if err := inst.Transfer(issuer, buyer, 30); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to transfer units: %v", failed, err)
			}

			// Leave an open bid that termination must void.
			currency.Approve(third, custody, 330)
			if err := inst.SubmitBid(third, 100, 3); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit a bid: %v", failed, err)
			}
			thirdBefore := currency.BalanceOf(third)

			if err := inst.VoteTerminate(buyer); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to vote: %v", failed, err)
			}
			if state := inst.State(); state != instance.Active {
				t.Fatalf("\t%s\tTest 0:\tShould stay active at 30 units: got %s", failed, state)
			}
			t.Logf("\t%s\tTest 0:\tShould stay active at 30 units.", success)

			if err := inst.VoteTerminate(issuer); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to vote: %v", failed, err)
			}
			if state := inst.State(); state != instance.Terminated {
				t.Fatalf("\t%s\tTest 0:\tShould terminate at the majority: got %s", failed, state)
			}
			t.Logf("\t%s\tTest 0:\tShould terminate at the majority.", success)

			if len(inst.Orders()) != 0 {
				t.Errorf("\t%s\tTest 0:\tShould void all open orders.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould void all open orders.", success)
			}

			if diff := currency.BalanceOf(third) - thirdBefore; diff != 330 {
				t.Errorf("\t%s\tTest 0:\tShould refund the voided bid escrow: got %d", failed, diff)
			} else {
				t.Logf("\t%s\tTest 0:\tShould refund the voided bid escrow.", success)
			}

			if err := inst.SubmitBid(buyer, 100, 1); !errors.Is(err, instance.ErrWrongState) {
				t.Fatalf("\t%s\tTest 0:\tShould reject trading after termination: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject trading after termination.", success)

			if err := inst.Withdraw(buyer); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to withdraw after termination: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to withdraw after termination.", success)

			if bal := xau.BalanceOf(buyer); bal != 3_000 {
				t.Errorf("\t%s\tTest 0:\tShould release 30%% of the backing asset: got %d", failed, bal)
			} else {
				t.Logf("\t%s\tTest 0:\tShould release 30%% of the backing asset.", success)
			}

			if err := inst.Withdraw(buyer); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould allow a second withdraw: %v", failed, err)
			}
			if bal := xau.BalanceOf(buyer); bal != 3_000 {
				t.Errorf("\t%s\tTest 0:\tShould release the assets exactly once: got %d", failed, bal)
			} else {
				t.Logf("\t%s\tTest 0:\tShould release the assets exactly once.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen a minority holder tries to add an asset.")
		{
			inst, _ := newInstrument(t, nil)

			if err := inst.Transfer(issuer, buyer, 49); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to transfer units: %v", failed, err)
			}

			xau := token.New("XAU", 100, buyer)
			xau.Approve(buyer, custody, 100)

			if err := inst.AddAsset(buyer, xau, 100); !errors.Is(err, instance.ErrNotController) {
				t.Fatalf("\t%s\tTest 1:\tShould reject a non-controlling caller: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a non-controlling caller.", success)
		}
	}
}

func Test_ArithmeticBounds(t *testing.T) {
	t.Log("Given the need to reject orders whose money math would wrap around.")
	{
		t.Logf("\tTest 0:\tWhen a bid's total would overflow uint64.")
		{
			inst, currency := newInstrument(t, nil)

			// 8 x 2^61 wraps to zero, which would rest an 8-unit bid in the
			// book with no escrow behind it.
			currency.Approve(buyer, custody, math.MaxUint64)
			if err := inst.SubmitBid(buyer, 1<<61, 8); !errors.Is(err, instance.ErrInvalidPrice) {
				t.Fatalf("\t%s\tTest 0:\tShould reject the bid: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the bid.", success)

			if len(inst.Orders()) != 0 {
				t.Errorf("\t%s\tTest 0:\tShould leave the book empty.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould leave the book empty.", success)
			}

			if bal := currency.BalanceOf(custody); bal != 0 {
				t.Errorf("\t%s\tTest 0:\tShould pull no escrow: got %d", failed, bal)
			} else {
				t.Logf("\t%s\tTest 0:\tShould pull no escrow.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen the total fits but the tax multiply would overflow.")
		{
			inst, _ := newInstrument(t, nil)

			price := uint64(math.MaxUint64/10_000 + 1)
			if err := inst.SubmitBid(buyer, price, 1); !errors.Is(err, instance.ErrInvalidPrice) {
				t.Fatalf("\t%s\tTest 1:\tShould reject the bid: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the bid.", success)

			if err := inst.SubmitAsk(issuer, 1<<61, 8); !errors.Is(err, instance.ErrInvalidPrice) {
				t.Fatalf("\t%s\tTest 1:\tShould reject the matching ask: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the matching ask.", success)
		}

		t.Logf("\tTest 2:\tWhen a payment's tax multiply would overflow.")
		{
			inst, _ := newInstrument(t, nil)

			if err := inst.Pay(third, math.MaxUint64); !errors.Is(err, instance.ErrAmountTooLarge) {
				t.Fatalf("\t%s\tTest 2:\tShould reject the payment: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the payment.", success)
		}
	}
}
