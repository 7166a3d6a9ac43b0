// internal/authflow/handler.go
package authflow

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"codrelay/pkg/config"
	"codrelay/pkg/sessions"
	"codrelay/pkg/signature"
)

// shopPattern accepts plain hostnames only; anything with a scheme, path or
// userinfo is rejected before it can steer the redirect.
var shopPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*(\.[a-zA-Z0-9-]+)+$`)

// Handler drives the two-step installation flow: redirect to the platform's
// authorize page, then exchange the callback code and persist the session.
type Handler struct {
	cfg    config.Config
	log    *zap.SugaredLogger
	store  sessions.Store
	states *StateIssuer
	exch   Exchanger
}

func NewHandler(cfg config.Config, log *zap.SugaredLogger, store sessions.Store, states *StateIssuer, exch Exchanger) *Handler {
	return &Handler{cfg: cfg, log: log, store: store, states: states, exch: exch}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/auth", h.begin)
	r.Get("/auth/callback", h.callback)
}

// begin validates the shop and redirects to the platform authorization URL
// carrying the deployment-fixed scope list and callback address. No store
// access happens here.
func (h *Handler) begin(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if shop == "" || !shopPattern.MatchString(shop) {
		http.Error(w, "missing or invalid shop parameter", http.StatusBadRequest)
		return
	}
	state, err := h.states.Issue(shop)
	if err != nil {
		h.log.Errorw("state issue", "shop", shop, "err", err)
		http.Error(w, "authorization could not be started", http.StatusInternalServerError)
		return
	}
	q := url.Values{}
	q.Set("shop", shop)
	q.Set("client_id", h.cfg.ClientID)
	q.Set("scope", strings.Join(h.cfg.Scopes, ","))
	q.Set("redirect_uri", h.cfg.RedirectURI())
	q.Set("state", state)
	authorizeURL := "https://" + shop + "/admin/oauth/authorize?" + q.Encode()
	http.Redirect(w, r, authorizeURL, http.StatusFound)
}

// callback handles the platform redirect: authenticates the callback (HMAC +
// one-time state), exchanges the code, and upserts the session. Receiving
// the same callback twice just overwrites the row, so a double-click on the
// install button cannot corrupt the store.
func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	shop := params.Get("shop")
	code := params.Get("code")
	if shop == "" || !shopPattern.MatchString(shop) || code == "" {
		http.Error(w, "missing shop or code", http.StatusBadRequest)
		return
	}
	if !signature.VerifyCallback(params, h.cfg.ClientSecret) {
		h.log.Warnw("callback hmac rejected", "shop", shop)
		http.Error(w, "invalid callback", http.StatusForbidden)
		return
	}
	stateID, err := h.states.Validate(params.Get("state"), shop)
	if err != nil {
		h.log.Warnw("callback state rejected", "shop", shop, "err", err)
		http.Error(w, "invalid callback", http.StatusForbidden)
		return
	}

	grant, err := h.exch.Exchange(r.Context(), shop, code)
	if err != nil {
		// log the operation, never the secret or the raw platform error body
		h.log.Errorw("auth exchange failed", "shop", shop, "err", err)
		http.Error(w, "installation failed", http.StatusInternalServerError)
		return
	}
	// the state burns only after a successful exchange; a failed exchange
	// leaves it redeemable for a retried callback
	if err := h.states.Consume(r.Context(), stateID); err != nil {
		h.log.Warnw("callback state rejected", "shop", shop, "err", err)
		http.Error(w, "invalid callback", http.StatusForbidden)
		return
	}
	if err := h.store.Upsert(r.Context(), shop, grant.AccessToken, grant.GrantedScopes()); err != nil {
		h.log.Errorw("session persist failed", "shop", shop, "err", err)
		http.Error(w, "installation failed", http.StatusInternalServerError)
		return
	}
	h.log.Infow("shop installed", "shop", shop, "scopes", grant.Scope)
	http.Redirect(w, r, "https://"+shop+"/admin/apps/"+h.cfg.ClientID, http.StatusFound)
}
