// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	v1 "github.com/devest/venue/business/web/v1"
	"github.com/devest/venue/foundation/events"
	"github.com/devest/venue/foundation/nameservice"
	"github.com/devest/venue/foundation/venue/act"
	"github.com/devest/venue/foundation/venue/instance"
	"github.com/devest/venue/foundation/venue/ledger"
	"github.com/devest/venue/foundation/venue/state"
	"github.com/devest/venue/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public venue endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitAction executes a signed action against its target instrument.
func (h Handlers) SubmitAction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signedAct act.SignedAction
	if err := web.Decode(r, &signedAct); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("add action", "traceid", v.TraceID, "act", signedAct, "op", signedAct.Op, "instance", signedAct.InstanceID)
	if err := h.State.SubmitAction(signedAct); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "action executed",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Charter returns the charter information.
func (h Handlers) Charter(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	charter := h.State.RetrieveCharter()
	return web.Respond(ctx, w, charter, http.StatusOK)
}

// Accounts returns the current currency balances for all accounts.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct := web.Param(r, "account")

	currency := h.State.Currency()

	var balances map[ledger.AccountID]uint64
	switch acct {
	case "":
		balances = currency.Balances()

	default:
		accountID, err := ledger.ToAccountID(acct)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
		balances = map[ledger.AccountID]uint64{accountID: currency.BalanceOf(accountID)}
	}

	acts := make([]info, 0, len(balances))
	for account, balance := range balances {
		acts = append(acts, info{
			Account: string(account),
			Name:    h.NS.Lookup(account),
			Balance: balance,
		})
	}

	ai := actInfo{
		Symbol:   currency.Symbol(),
		Accounts: acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// Instances returns a summary of every issued instrument.
func (h Handlers) Instances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	insts := h.State.RetrieveInstances()

	summaries := make([]summary, len(insts))
	for i, inst := range insts {
		summaries[i] = toSummary(inst)
	}

	return web.Respond(ctx, w, summaries, http.StatusOK)
}

// Instance returns the details of a single instrument.
func (h Handlers) Instance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	inst, err := h.State.RetrieveInstance(web.Param(r, "id"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	entries := inst.Assets()
	assets := make([]asset, len(entries))
	for i, entry := range entries {
		assets[i] = asset{
			Symbol: entry.Asset.Symbol(),
			Amount: entry.Amount,
		}
	}

	d := detail{
		summary:        toSummary(inst),
		Assets:         assets,
		DisburseLevels: inst.DisburseLevels(),
	}

	return web.Respond(ctx, w, d, http.StatusOK)
}

// Holders returns the share register of an instrument.
func (h Handlers) Holders(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	inst, err := h.State.RetrieveInstance(web.Param(r, "id"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	accounts := inst.Holders()
	holders := make([]holder, len(accounts))
	for i, account := range accounts {
		holders[i] = holder{
			Account: string(account),
			Name:    h.NS.Lookup(account),
			Units:   inst.Balance(account),
		}
	}

	return web.Respond(ctx, w, holders, http.StatusOK)
}

// Orders returns the open orders of an instrument.
func (h Handlers) Orders(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	inst, err := h.State.RetrieveInstance(web.Param(r, "id"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	open := inst.Orders()
	orders := make([]order, len(open))
	for i, ord := range open {
		orders[i] = order{
			Trader:    string(ord.Trader),
			Name:      h.NS.Lookup(ord.Trader),
			Side:      ord.Side.String(),
			Price:     ord.Price,
			Remaining: ord.Remaining,
			Escrow:    ord.Escrow,
		}
	}

	return web.Respond(ctx, w, orders, http.StatusOK)
}

// Trades returns the executed trades of an instrument.
func (h Handlers) Trades(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	if _, err := h.State.RetrieveInstance(id); err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	executed, err := h.State.RetrieveTrades(id)
	if err != nil {
		return err
	}

	trades := make([]trade, len(executed))
	for i, exe := range executed {
		trades[i] = trade{
			Buyer:      string(exe.Buyer),
			BuyerName:  h.NS.Lookup(exe.Buyer),
			Seller:     string(exe.Seller),
			SellerName: h.NS.Lookup(exe.Seller),
			Units:      exe.Units,
			Price:      exe.Price,
			Value:      exe.Value,
			Tax:        exe.Tax,
			Date:       exe.Date,
		}
	}

	return web.Respond(ctx, w, trades, http.StatusOK)
}

// Claimable returns the funds an account can withdraw from an instrument.
func (h Handlers) Claimable(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	inst, err := h.State.RetrieveInstance(web.Param(r, "id"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	account, err := ledger.ToAccountID(web.Param(r, "account"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Account   string `json:"account"`
		Claimable uint64 `json:"claimable"`
	}{
		Account:   string(account),
		Claimable: inst.Claimable(account),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// toSummary flattens the hot instrument state for the API.
func toSummary(inst *instance.Instance) summary {
	return summary{
		ID:          inst.ID(),
		Name:        inst.Name(),
		Symbol:      inst.Symbol(),
		Account:     string(inst.Account()),
		State:       inst.State().String(),
		Custodian:   string(inst.Custodian()),
		Value:       inst.Value(),
		Price:       inst.Price(),
		TaxRateBps:  inst.TaxRateBps(),
		Decimals:    inst.Decimals(),
		EscrowTotal: inst.EscrowTotal(),
		Holders:     len(inst.Holders()),
		Orders:      len(inst.Orders()),
	}
}
