package app_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/linemk/nirvana-shop/internal/app"
	"github.com/linemk/nirvana-shop/internal/config"
	"github.com/linemk/nirvana-shop/internal/domain/models"
	"github.com/linemk/nirvana-shop/internal/identity"
	"github.com/linemk/nirvana-shop/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "routersecret"

type stubCatalog struct{}

func (stubCatalog) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return []*models.Product{}, nil
}

func (stubCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return nil, service.ErrNotFound
}

func (stubCatalog) CreateProduct(ctx context.Context, in service.CreateProductInput) (*models.Product, error) {
	return &models.Product{ID: uuid.New(), Name: in.Name}, nil
}

type stubCart struct{}

func (stubCart) ListCart(ctx context.Context, userID string) ([]*models.CartItem, error) {
	return []*models.CartItem{}, nil
}

func (stubCart) AddToCart(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	return &models.CartItem{ID: uuid.New(), UserID: userID, ProductID: productID, Quantity: 1}, nil
}

func (stubCart) UpdateQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	return nil, nil
}

func (stubCart) RemoveItem(ctx context.Context, userID string, itemID uuid.UUID) error { return nil }

func (stubCart) ClearCart(ctx context.Context, userID string) error { return nil }

type stubOrders struct{}

func (stubOrders) PlaceOrder(ctx context.Context, userID string, in service.PlaceOrderInput) (*models.Order, error) {
	return &models.Order{ID: uuid.New(), UserID: userID}, nil
}

func (stubOrders) ListMyOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	return []*models.Order{}, nil
}

type stubAdmin struct{}

func (stubAdmin) ListAllOrders(ctx context.Context) ([]*models.Order, error) {
	return []*models.Order{}, nil
}

func (stubAdmin) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	return []*models.Customer{}, nil
}

func (stubAdmin) Stats(ctx context.Context) (*models.Stats, error) { return &models.Stats{}, nil }

func testServices() app.Services {
	return app.Services{
		Catalog: stubCatalog{},
		Cart:    stubCart{},
		Orders:  stubOrders{},
		Admin:   stubAdmin{},
	}
}

func newTestRouter() http.Handler {
	return newTestRouterWith(testServices(), "dev")
}

func newTestRouterWith(svc app.Services, env string) http.Handler {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return app.NewRouter(log, svc, app.RouterOptions{
		Env:           env,
		SessionSecret: secret,
		Roles:         identity.ChainRoleResolver{identity.ClaimsRoleResolver{}},
	})
}

func token(t *testing.T, id, role string) string {
	t.Helper()
	tok, err := identity.NewSessionToken(identity.Caller{ID: id, Role: role}, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestRouter_DispatchTable(t *testing.T) {
	router := newTestRouter()
	productID := uuid.New().String()

	cases := []struct {
		name     string
		method   string
		path     string
		body     string
		token    string
		wantCode int
		wantErr  string
	}{
		{"public catalog", http.MethodGet, "/api/products", "", "", http.StatusOK, ""},
		{"public product", http.MethodGet, "/api/products/" + productID, "", "", http.StatusOK, ""},
		{"cart requires user", http.MethodGet, "/api/cart", "", "", http.StatusUnauthorized, "Unauthorized: not signed in"},
		{"cart", http.MethodGet, "/api/cart", "", "user", http.StatusOK, ""},
		{"add to cart", http.MethodPost, "/api/cart", `{"productId":"` + productID + `"}`, "user", http.StatusOK, ""},
		{"patch cart", http.MethodPatch, "/api/cart/" + productID, `{"quantity":0}`, "user", http.StatusOK, ""},
		{"delete cart", http.MethodDelete, "/api/cart/" + productID, "", "user", http.StatusOK, ""},
		{"orders", http.MethodGet, "/api/orders", "", "user", http.StatusOK, ""},
		{"place order", http.MethodPost, "/api/orders", `{"items":[]}`, "user", http.StatusOK, ""},
		{"create product anonymous", http.MethodPost, "/api/products", `{"name":"x"}`, "", http.StatusUnauthorized, ""},
		{"create product as customer", http.MethodPost, "/api/products", `{"name":"x"}`, "customer", http.StatusForbidden,
			`Forbidden: User role is "customer", admin required.`},
		{"admin orders without role", http.MethodGet, "/api/admin/orders", "", "user", http.StatusForbidden, ""},
		{"create product as admin", http.MethodPost, "/api/products", `{"name":"x"}`, "admin", http.StatusOK, ""},
		{"admin orders", http.MethodGet, "/api/admin/orders", "", "admin", http.StatusOK, ""},
		{"admin customers", http.MethodGet, "/api/admin/customers", "", "admin", http.StatusOK, ""},
		{"admin stats", http.MethodGet, "/api/admin/stats", "", "admin", http.StatusOK, ""},
		{"unknown route", http.MethodGet, "/api/nope", "", "", http.StatusNotFound, "Route not found"},
		{"unknown method", http.MethodPut, "/api/products", "", "", http.StatusNotFound, "Route not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			switch tc.token {
			case "":
			case "user":
				req.Header.Set("Authorization", "Bearer "+token(t, "user_1", ""))
			default:
				req.Header.Set("Authorization", "Bearer "+token(t, "user_1", tc.token))
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			require.Equal(t, tc.wantCode, rr.Code, rr.Body.String())

			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.wantCode == http.StatusOK, body["success"])
			if tc.wantErr != "" {
				assert.Equal(t, tc.wantErr, body["error"])
			}
		})
	}
}

func TestRouter_ProductNotFoundIsNull(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products/"+uuid.New().String(), nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"product":null}`, rr.Body.String())
}

func TestRouter_MalformedProductIDIsNull(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products/not-a-uuid", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"product":null}`, rr.Body.String())
}

type panickingCatalog struct{ stubCatalog }

func (panickingCatalog) ListProducts(ctx context.Context) ([]*models.Product, error) {
	var products map[string]*models.Product
	products["boom"] = nil
	return nil, nil
}

func TestRouter_PanicRendersEnvelope(t *testing.T) {
	svc := testServices()
	svc.Catalog = panickingCatalog{}

	cases := []struct {
		env       string
		wantStack bool
	}{
		{"dev", true},
		{"prod", false},
	}
	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			rr := httptest.NewRecorder()
			newTestRouterWith(svc, tc.env).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products", nil))

			require.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
				Stack   string `json:"stack"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Contains(t, body.Error, "assignment to entry in nil map")
			if tc.wantStack {
				assert.Contains(t, body.Stack, "router_test.go")
			} else {
				assert.Empty(t, body.Stack)
			}
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `storefront_http_requests_total{method="GET",route="/api/products",status="200"}`)
}

func TestBuildRoleResolver(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var hits int32
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"public_metadata":{"role":"admin"}}`))
	}))
	defer provider.Close()

	cfg := config.IdentityConfig{
		ProviderURL:    provider.URL,
		ProviderSecret: "sk_test",
		LookupTimeout:  time.Second,
		RoleCacheTTL:   time.Minute,
	}

	t.Run("claims only without provider", func(t *testing.T) {
		resolver := app.BuildRoleResolver(log, config.IdentityConfig{}, nil)
		got := resolver.ResolveRole(context.Background(), &identity.Caller{ID: "u"})
		assert.False(t, got.Found)
	})

	t.Run("provider behind cache", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()

		resolver := app.BuildRoleResolver(log, cfg, rdb)
		first := resolver.ResolveRole(context.Background(), &identity.Caller{ID: "u"})
		second := resolver.ResolveRole(context.Background(), &identity.Caller{ID: "u"})

		assert.Equal(t, identity.SourceProvider, first.Source)
		assert.Equal(t, identity.SourceCache, second.Source)
		assert.Equal(t, "admin", second.Role)
		assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	})
}
