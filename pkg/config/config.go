// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// App credentials issued by the platform (shared across all shops)
	ClientID     string
	ClientSecret string

	// Externally reachable base address; the OAuth redirect URI derives from it.
	BasePublicURL string

	// Capability list requested at install time, fixed at deployment.
	Scopes []string

	// Admin API version used for downstream draft-order calls.
	APIVersion string

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string

	// Screening rule files (optional)
	OrderRulesPath string
	CODPolicyPath  string

	// Outbound HTTP and OAuth state bounds
	HTTPClientTimeout time.Duration
	StateTTL          time.Duration
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:               env("APP_ENV", "dev"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		ClientID:          env("SHOPIFY_API_KEY", ""),
		ClientSecret:      env("SHOPIFY_API_SECRET", ""),
		BasePublicURL:     strings.TrimRight(env("BASE_PUBLIC_URL", "http://localhost:8080"), "/"),
		Scopes:            envList("OAUTH_SCOPES", "write_draft_orders,read_products"),
		APIVersion:        env("SHOPIFY_API_VERSION", "2024-01"),
		RedisURL:          env("REDIS_URL", ""),
		DatabaseURL:       env("DATABASE_URL", ""),
		OrderRulesPath:    env("ORDER_RULES_PATH", ""),
		CODPolicyPath:     env("COD_POLICY_PATH", ""),
		HTTPClientTimeout: envDur("HTTP_CLIENT_TIMEOUT_SEC", 15) * time.Second,
		StateTTL:          envDur("STATE_TTL_SEC", 300) * time.Second,
	}
	if cfg.ClientSecret == "" {
		log.Println("[WARN] SHOPIFY_API_SECRET not set — signature checks will reject everything")
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set — using in-memory session store for dev")
	}
	return cfg
}

// RedirectURI is the OAuth callback address registered with the platform.
func (c Config) RedirectURI() string { return c.BasePublicURL + "/auth/callback" }

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envList(k, def string) []string {
	v := os.Getenv(k)
	if v == "" {
		v = def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i)
		}
	}
	return time.Duration(def)
}
