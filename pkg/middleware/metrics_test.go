package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Get("/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	matchedBefore := testutil.ToFloat64(httpRequests.WithLabelValues("/orders/{id}", "200"))
	unmatchedBefore := testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "404"))

	for _, target := range []string{"/orders/1", "/orders/2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	for _, target := range []string{"/probe-a", "/probe-b", "/probe-c"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	matched := testutil.ToFloat64(httpRequests.WithLabelValues("/orders/{id}", "200")) - matchedBefore
	unmatched := testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "404")) - unmatchedBefore
	assert.Equal(t, float64(2), matched, "distinct ids collapse into the route pattern")
	assert.Equal(t, float64(3), unmatched, "distinct misses collapse into one bucket")
}
