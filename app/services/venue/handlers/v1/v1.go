// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/devest/venue/app/services/venue/handlers/v1/private"
	"github.com/devest/venue/app/services/venue/handlers/v1/public"
	"github.com/devest/venue/foundation/events"
	"github.com/devest/venue/foundation/nameservice"
	"github.com/devest/venue/foundation/venue/state"
	"github.com/devest/venue/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/charter", pbl.Charter)
	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/accounts/list/:account", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/instances/list", pbl.Instances)
	app.Handle(http.MethodGet, version, "/instances/:id", pbl.Instance)
	app.Handle(http.MethodGet, version, "/instances/:id/holders", pbl.Holders)
	app.Handle(http.MethodGet, version, "/instances/:id/orders", pbl.Orders)
	app.Handle(http.MethodGet, version, "/instances/:id/trades", pbl.Trades)
	app.Handle(http.MethodGet, version, "/instances/:id/claimable/:account", pbl.Claimable)
	app.Handle(http.MethodPost, version, "/actions/submit", pbl.SubmitAction)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/history", prv.History)
	app.Handle(http.MethodPost, version, "/node/instances/issue", prv.Issue)
	app.Handle(http.MethodPost, version, "/node/assets/register", prv.RegisterAsset)
}
