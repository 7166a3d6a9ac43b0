// internal/orders/relay.go
package orders

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"codrelay/pkg/sessions"
)

var relayedOrders = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "codrelay_orders_total",
	Help: "Relayed order outcomes.",
}, []string{"outcome"})

// Relay turns an authenticated proxy request into a downstream draft-order
// call. It persists nothing itself; the session store is read-only here.
type Relay struct {
	log      *zap.SugaredLogger
	store    sessions.Store
	screener *Screener
	client   *Client
}

func NewRelay(log *zap.SugaredLogger, store sessions.Store, screener *Screener, client *Client) *Relay {
	return &Relay{log: log, store: store, screener: screener, client: client}
}

// CreateOrder runs lookup → screening → downstream call. The caller has
// already authenticated the request; errors surface as sessions.ErrNotFound,
// sessions.ErrUnavailable, *ScreenError or *DownstreamError for the handler
// to map onto the wire contract.
func (rl *Relay) CreateOrder(ctx context.Context, shop string, order ProxyOrder) (CreatedOrder, error) {
	sess, err := rl.store.Lookup(ctx, shop)
	if err != nil {
		return CreatedOrder{}, err
	}
	if err := rl.screener.Screen(ctx, shop, order); err != nil {
		relayedOrders.WithLabelValues("screened").Inc()
		return CreatedOrder{}, err
	}

	payload := BuildDraftOrder(order, rl.screener.Tags())
	// A storefront disconnect must not abort an exchange that is already on
	// the wire; the client's own timeout still bounds the call.
	created, err := rl.client.CreateDraftOrder(context.WithoutCancel(ctx), shop, sess.AccessToken, payload)
	if err != nil {
		relayedOrders.WithLabelValues("failed").Inc()
		return CreatedOrder{}, err
	}
	relayedOrders.WithLabelValues("ok").Inc()
	rl.log.Infow("order relayed", "shop", shop, "order_id", created.ID)
	return created, nil
}
