// cmd/cod-relay-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codrelay/internal/authflow"
	"codrelay/internal/orders"
	"codrelay/pkg/config"
	"codrelay/pkg/db"
	"codrelay/pkg/logger"
	"codrelay/pkg/middleware"
	"codrelay/pkg/problems"
	"codrelay/pkg/sessions"
)

const privacyHTML = `<!doctype html>
<html><head><title>Privacy Policy</title></head>
<body>
<h1>Privacy Policy</h1>
<p>This app stores one access credential per installed shop, used solely to
create cash-on-delivery draft orders on the merchant's behalf. No customer
data is retained by the app itself; order contents are forwarded to the
commerce platform and discarded.</p>
<p>Uninstalling the app revokes its credential on the platform side.</p>
</body></html>`

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	problems.SetBase(cfg.BasePublicURL)

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)

	var store sessions.Store
	if pool != nil {
		if err := sessions.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("schema", "err", err)
		}
		store = sessions.NewPostgresStore(pool, log)
	} else {
		store = sessions.NewMemoryStore()
	}

	var nonces authflow.NonceStore
	if rdb != nil {
		nonces = authflow.NewRedisNonces(rdb)
	} else {
		nonces = authflow.NewMemoryNonces()
	}
	states := authflow.NewStateIssuer(cfg.ClientSecret, cfg.StateTTL, nonces)
	exchanger := authflow.NewExchanger(cfg.ClientID, cfg.ClientSecret, cfg.HTTPClientTimeout)
	auth := authflow.NewHandler(cfg, log, store, states, exchanger)

	rules, err := orders.LoadRules(cfg.OrderRulesPath)
	if err != nil {
		log.Fatalw("order rules", "err", err)
	}
	screener, err := orders.NewScreener(rules, cfg.CODPolicyPath)
	if err != nil {
		log.Fatalw("cod policy", "err", err)
	}
	relay := orders.NewRelay(log, store, screener, orders.NewClient(cfg.APIVersion, cfg.HTTPClientTimeout))
	proxy := orders.NewHandler(log, cfg.ClientSecret, relay)

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing())
	r.Use(middleware.Metrics())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/privacy", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(privacyHTML))
	})
	auth.Routes(r)
	proxy.Routes(r)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("cod-relay-service listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("cod-relay-service stopped")
}
