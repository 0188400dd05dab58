package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/nirvana-shop/internal/lib/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler_RoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(metrics.InstrumentHandler)
	r.Delete("/api/cart/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metrics.Handler())

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/cart/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `storefront_http_requests_total{method="DELETE",route="/api/cart/{id}",status="200"} 3`)
	assert.Contains(t, body, `storefront_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
}

func TestRecorders(t *testing.T) {
	metrics.OrderPlaced()
	metrics.CartMutation("add")
	metrics.RoleLookup("", false)

	n, err := testutil.GatherAndCount(metrics.Registry, "storefront_orders_placed_total", "storefront_cart_mutations_total", "storefront_identity_role_lookups_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 3)
}
