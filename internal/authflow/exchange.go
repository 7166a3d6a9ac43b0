// internal/authflow/exchange.go
package authflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TokenGrant is what the platform's token endpoint returns for a valid
// authorization code.
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// GrantedScopes splits the comma-separated scope string.
func (g TokenGrant) GrantedScopes() []string {
	if g.Scope == "" {
		return nil
	}
	parts := strings.Split(g.Scope, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Exchanger converts a one-time authorization code into a durable access
// credential for the shop.
type Exchanger interface {
	Exchange(ctx context.Context, shop, code string) (TokenGrant, error)
}

type httpExchanger struct {
	clientID     string
	clientSecret string
	client       *http.Client
	// endpointFor defaults to the shop's admin token endpoint; overridable
	// in tests.
	endpointFor func(shop string) string
}

func NewExchanger(clientID, clientSecret string, timeout time.Duration) Exchanger {
	return &httpExchanger{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: timeout},
		endpointFor: func(shop string) string {
			return "https://" + shop + "/admin/oauth/access_token"
		},
	}
}

func (e *httpExchanger) Exchange(ctx context.Context, shop, code string) (TokenGrant, error) {
	body, _ := json.Marshal(map[string]string{
		"client_id":     e.clientID,
		"client_secret": e.clientSecret,
		"code":          code,
	})
	endpoint := e.endpointFor(shop)

	var resp *http.Response
	var lastErr error
	// transient transport failure gets a single retry; HTTP-level rejections
	// never do
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return TokenGrant{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, lastErr = e.client.Do(req)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return TokenGrant{}, fmt.Errorf("token endpoint unreachable: %w", lastErr)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return TokenGrant{}, fmt.Errorf("token endpoint status %d", resp.StatusCode)
	}
	var grant TokenGrant
	if err := json.Unmarshal(raw, &grant); err != nil {
		return TokenGrant{}, fmt.Errorf("token endpoint response malformed: %w", err)
	}
	if grant.AccessToken == "" {
		return TokenGrant{}, fmt.Errorf("token endpoint returned empty credential")
	}
	return grant, nil
}
