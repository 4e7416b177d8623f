// Package private maintains the group of handlers for operator access.
package private

import (
	"context"
	"fmt"
	"net/http"

	v1 "github.com/devest/venue/business/web/v1"
	"github.com/devest/venue/foundation/nameservice"
	"github.com/devest/venue/foundation/venue/ledger"
	"github.com/devest/venue/foundation/venue/state"
	"github.com/devest/venue/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of operator endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	charter := h.State.RetrieveCharter()

	status := struct {
		VenueID        string `json:"venue_id"`
		CurrencySymbol string `json:"currency_symbol"`
		Instances      int    `json:"instances"`
		Treasury       string `json:"treasury"`
	}{
		VenueID:        charter.VenueID,
		CurrencySymbol: charter.CurrencySymbol,
		Instances:      len(h.State.RetrieveInstances()),
		Treasury:       string(h.State.Factory().Root().Account()),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// History returns the factory issuance history.
func (h Handlers) History(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	history := h.State.Factory().History()

	type issuance struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Symbol     string `json:"symbol"`
		Account    string `json:"account"`
		Issuer     string `json:"issuer"`
		IssuerName string `json:"issuer_name"`
	}

	issuances := make([]issuance, len(history))
	for i, iss := range history {
		issuances[i] = issuance{
			ID:         iss.ID,
			Name:       iss.Name,
			Symbol:     iss.Symbol,
			Account:    string(iss.Account),
			Issuer:     string(iss.Issuer),
			IssuerName: h.NS.Lookup(iss.Issuer),
		}
	}

	return web.Respond(ctx, w, issuances, http.StatusOK)
}

// Issue constructs a new instrument for the specified issuer. The issuer
// must have approved the factory account for the issuance fee beforehand.
func (h Handlers) Issue(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req struct {
		Issuer string `json:"issuer" validate:"required"`
		Name   string `json:"name" validate:"required"`
		Symbol string `json:"symbol" validate:"required"`
	}
	if err := web.Decode(r, &req); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	issuer, err := ledger.ToAccountID(req.Issuer)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("issue instrument", "traceid", v.TraceID, "issuer", issuer, "name", req.Name, "symbol", req.Symbol)
	inst, err := h.State.Issue(issuer, req.Name, req.Symbol)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		ID      string `json:"id"`
		Account string `json:"account"`
	}{
		ID:      inst.ID(),
		Account: string(inst.Account()),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// RegisterAsset mints a secondary asset token that instruments can take
// into custody as backing.
func (h Handlers) RegisterAsset(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req struct {
		Symbol string `json:"symbol" validate:"required"`
		Supply uint64 `json:"supply" validate:"required,gt=0"`
		Owner  string `json:"owner" validate:"required"`
	}
	if err := web.Decode(r, &req); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	owner, err := ledger.ToAccountID(req.Owner)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("register asset", "traceid", v.TraceID, "symbol", req.Symbol, "supply", req.Supply, "owner", owner)
	if _, err := h.State.RegisterAsset(req.Symbol, req.Supply, owner); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "asset registered",
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}
