package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDownstream(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	c := NewClient("2024-01", 5*time.Second)
	c.httpClient = ts.Client()
	c.baseURLFor = func(string) string { return ts.URL }
	return c, ts
}

func TestCreateDraftOrderSuccess(t *testing.T) {
	var gotPath, gotToken string
	var gotBody map[string]any
	c, _ := newDownstream(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"draft_order":{"id":1069920477,"invoice_url":"https://demo.example/invoices/1"}}`))
	})

	payload := BuildDraftOrder(ProxyOrder{LineItems: []LineItem{{VariantID: 42}}}, DefaultTags)
	created, err := c.CreateDraftOrder(context.Background(), "demo.example", "tok1", payload)
	require.NoError(t, err)
	assert.Equal(t, "1069920477", created.ID, "large numeric ids survive extraction")
	assert.Equal(t, "https://demo.example/invoices/1", created.InvoiceURL)
	assert.Equal(t, "/admin/api/2024-01/draft_orders.json", gotPath)
	assert.Equal(t, "tok1", gotToken)
	assert.Contains(t, gotBody, "draft_order")
}

func TestCreateDraftOrderValidationRejected(t *testing.T) {
	c, _ := newDownstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"line_items":["can't be blank"]}}`))
	})

	_, err := c.CreateDraftOrder(context.Background(), "demo.example", "tok1", map[string]any{})
	var downErr *DownstreamError
	require.ErrorAs(t, err, &downErr)
	assert.Equal(t, http.StatusUnprocessableEntity, downErr.Status)
	errsMap, ok := downErr.Errors.(map[string]any)
	require.True(t, ok, "downstream detail passed through verbatim")
	assert.Contains(t, errsMap, "line_items")
}

func TestCreateDraftOrderErrorsInOKBody(t *testing.T) {
	c, _ := newDownstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":"shop is frozen"}`))
	})

	_, err := c.CreateDraftOrder(context.Background(), "demo.example", "tok1", map[string]any{})
	var downErr *DownstreamError
	require.ErrorAs(t, err, &downErr)
	assert.Equal(t, "shop is frozen", downErr.Errors)
}

func TestCreateDraftOrderMissingID(t *testing.T) {
	c, _ := newDownstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"draft_order":{}}`))
	})
	_, err := c.CreateDraftOrder(context.Background(), "demo.example", "tok1", map[string]any{})
	assert.Error(t, err)
}
