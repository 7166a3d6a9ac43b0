// internal/orders/client.go
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	jmes "github.com/jmespath/go-jmespath"
)

// Field extraction from the downstream response stays declarative; the
// envelope shape is the platform's, not ours.
const (
	orderIDExpr    = "draft_order.id"
	invoiceURLExpr = "draft_order.invoice_url"
)

// CreatedOrder is the downstream-assigned identity of a relayed order plus
// the follow-up link the storefront needs to finish checkout.
type CreatedOrder struct {
	ID         string
	InvoiceURL string
}

// DownstreamError carries a commerce-API rejection through to the caller
// verbatim so the storefront can show something actionable.
type DownstreamError struct {
	Status int
	Errors any
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("downstream rejected with status %d", e.Status)
}

// Client creates draft orders against a shop's Admin API.
type Client struct {
	apiVersion string
	httpClient *http.Client
	// baseURLFor defaults to the shop's admin host; overridable in tests.
	baseURLFor func(shop string) string
}

func NewClient(apiVersion string, timeout time.Duration) *Client {
	return &Client{
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: timeout},
		baseURLFor: func(shop string) string { return "https://" + shop },
	}
}

// CreateDraftOrder posts the draft-order payload with the shop's credential
// attached. Transport failures get a single retry; HTTP-level rejections are
// returned as DownstreamError, never retried.
func (c *Client) CreateDraftOrder(ctx context.Context, shop, accessToken string, payload map[string]any) (CreatedOrder, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return CreatedOrder{}, err
	}
	endpoint := c.baseURLFor(shop) + "/admin/api/" + c.apiVersion + "/draft_orders.json"

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, rerr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if rerr != nil {
			return CreatedOrder{}, rerr
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Shopify-Access-Token", accessToken)
		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return CreatedOrder{}, fmt.Errorf("downstream unreachable: %w", lastErr)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	doc := decodeJSON(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CreatedOrder{}, &DownstreamError{Status: resp.StatusCode, Errors: downstreamDetail(doc, raw)}
	}
	// Some validation failures come back 2xx with an errors body.
	if m, ok := doc.(map[string]any); ok {
		if errsVal, present := m["errors"]; present && errsVal != nil {
			return CreatedOrder{}, &DownstreamError{Status: http.StatusUnprocessableEntity, Errors: errsVal}
		}
	}

	id, _ := jmes.Search(orderIDExpr, doc)
	if id == nil {
		return CreatedOrder{}, fmt.Errorf("downstream response missing order id")
	}
	out := CreatedOrder{ID: fmt.Sprintf("%v", id)}
	if inv, _ := jmes.Search(invoiceURLExpr, doc); inv != nil {
		out.InvoiceURL = fmt.Sprintf("%v", inv)
	}
	return out, nil
}

// decodeJSON keeps numbers as json.Number so large order ids survive the
// round trip through fmt.
func decodeJSON(raw []byte) any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil
	}
	return doc
}

func downstreamDetail(doc any, raw []byte) any {
	if m, ok := doc.(map[string]any); ok {
		if v, ok := m["errors"]; ok && v != nil {
			return v
		}
		if v, ok := m["error"]; ok && v != nil {
			return v
		}
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return "downstream error"
}
