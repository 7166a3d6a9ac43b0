// internal/orders/handler.go
package orders

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"codrelay/pkg/sessions"
	"codrelay/pkg/signature"
)

// Handler exposes the storefront proxy endpoint. The signature gate runs
// before any store lookup or downstream call; requests that fail it spend
// nothing.
type Handler struct {
	log    *zap.SugaredLogger
	secret string
	relay  *Relay
}

func NewHandler(log *zap.SugaredLogger, secret string, relay *Relay) *Handler {
	return &Handler{log: log, secret: secret, relay: relay}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/proxy/cod", h.createOrder)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	shop := params.Get("shop")
	if shop == "" {
		writeJSON(w, map[string]any{"ok": false, "error": "Missing shop parameter"}, http.StatusBadRequest)
		return
	}
	if !signature.Verify(params, h.secret) {
		h.log.Warnw("proxy signature rejected", "shop", shop)
		writeJSON(w, map[string]any{"ok": false, "error": "Bad signature"}, http.StatusForbidden)
		return
	}

	var order ProxyOrder
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&order); err != nil {
		writeJSON(w, map[string]any{"ok": false, "error": "Malformed order payload"}, http.StatusBadRequest)
		return
	}
	if err := order.Validate(); err != nil {
		writeJSON(w, map[string]any{"ok": false, "error": err.Error()}, http.StatusBadRequest)
		return
	}

	created, err := h.relay.CreateOrder(r.Context(), shop, order)
	if err != nil {
		h.writeRelayError(w, shop, err)
		return
	}
	resp := map[string]any{"ok": true, "orderId": created.ID}
	if created.InvoiceURL != "" {
		resp["invoiceUrl"] = created.InvoiceURL
	}
	writeJSON(w, resp, http.StatusOK)
}

func (h *Handler) writeRelayError(w http.ResponseWriter, shop string, err error) {
	var screenErr *ScreenError
	var downErr *DownstreamError
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		writeJSON(w, map[string]any{"ok": false, "error": "Shop not installed"}, http.StatusUnauthorized)
	case errors.Is(err, sessions.ErrUnavailable):
		h.log.Errorw("session store unavailable", "shop", shop)
		writeJSON(w, map[string]any{"ok": false, "error": "Service temporarily unavailable"}, http.StatusServiceUnavailable)
	case errors.As(err, &screenErr):
		writeJSON(w, map[string]any{"ok": false, "errors": screenErr.Problems}, http.StatusUnprocessableEntity)
	case errors.As(err, &downErr):
		// pass the downstream detail through verbatim so the storefront can
		// show a meaningful message
		status := http.StatusBadGateway
		if downErr.Status >= 400 && downErr.Status < 500 {
			status = downErr.Status
		}
		writeJSON(w, map[string]any{"ok": false, "errors": downErr.Errors}, status)
	default:
		h.log.Errorw("order relay failed", "shop", shop, "err", err)
		writeJSON(w, map[string]any{"ok": false, "error": "Order could not be created"}, http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
