package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/mediator-go/internal/adapters/cache"
	"github.com/andrescamacho/mediator-go/internal/adapters/httpapi"
	"github.com/andrescamacho/mediator-go/internal/adapters/persistence"
	orderQueries "github.com/andrescamacho/mediator-go/internal/application/order/queries"
	"github.com/andrescamacho/mediator-go/internal/application/setup"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
	"github.com/andrescamacho/mediator-go/internal/infrastructure/config"
	"github.com/andrescamacho/mediator-go/test/helpers"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := helpers.NewTestDB(t)
	registry := setup.NewHandlerRegistry(persistence.NewGormUnitOfWorkFactory(db),
		setup.WithCache(cache.NewMemoryCache(0)),
		setup.WithLogger(quietLogger()),
	)
	m, err := registry.CreateConfiguredMediator(setup.PipelineOptions{})
	require.NoError(t, err)

	srv := httptest.NewServer(httpapi.NewAPI(m, quietLogger()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

type caller struct {
	customer string
	roles    string
}

func (c caller) do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if c.customer != "" {
		req.Header.Set(httpapi.HeaderCustomerID, c.customer)
	}
	if c.roles != "" {
		req.Header.Set(httpapi.HeaderRoles, c.roles)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createOrder(t *testing.T, srv *httptest.Server, c caller, body string) string {
	t.Helper()
	resp := c.do(t, srv, http.MethodPost, "/orders", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[map[string]string](t, resp)["id"]
}

var customer7 = caller{customer: "7"}

func TestAPI_CreateThenGet(t *testing.T) {
	// Arrange
	srv := newTestServer(t)

	// Act
	id := createOrder(t, srv, customer7, `{"total": 100}`)
	resp := customer7.do(t, srv, http.MethodGet, "/orders/"+id, "")

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	dto := decode[orderQueries.OrderDTO](t, resp)
	assert.Equal(t, id, dto.ID)
	assert.Equal(t, int64(7), dto.CustomerID)
	assert.Equal(t, int64(100), dto.Total)
	assert.Equal(t, "PENDING", dto.Status)
}

func TestAPI_Failures(t *testing.T) {
	srv := newTestServer(t)
	id := createOrder(t, srv, customer7, `{"total": 100}`)

	tests := []struct {
		name       string
		caller     caller
		method     string
		path       string
		body       string
		wantStatus int
		wantKind   shared.ErrorKind
	}{
		{"anonymous", caller{}, http.MethodGet, "/orders/" + id, "", http.StatusUnauthorized, shared.KindUnauthorized},
		{"invalid total", customer7, http.MethodPost, "/orders", `{"total": -5}`, http.StatusUnprocessableEntity, shared.KindValidation},
		{"other customer create", customer7, http.MethodPost, "/orders", `{"customer_id": 8, "total": 5}`, http.StatusForbidden, shared.KindForbidden},
		{"other customer read", caller{customer: "8"}, http.MethodGet, "/orders/" + id, "", http.StatusNotFound, shared.KindNotFound},
		{"unknown order", customer7, http.MethodGet, "/orders/1b4e28ba-2fa1-11d2-883f-0016d3cca427", "", http.StatusNotFound, shared.KindNotFound},
		{"malformed id", customer7, http.MethodGet, "/orders/nope", "", http.StatusUnprocessableEntity, shared.KindValidation},
		{"bad customer header", caller{customer: "seven"}, http.MethodGet, "/orders/" + id, "", http.StatusUnprocessableEntity, shared.KindValidation},
		{"malformed body", customer7, http.MethodPost, "/orders", `{"total":`, http.StatusBadRequest, shared.KindValidation},
		{"unknown field", customer7, http.MethodPost, "/orders", `{"amount": 5}`, http.StatusBadRequest, shared.KindValidation},
		{"bad list filter", customer7, http.MethodGet, "/customers/7/orders?min_total=lots", "", http.StatusUnprocessableEntity, shared.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			resp := tt.caller.do(t, srv, tt.method, tt.path, tt.body)

			// Assert
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			problem := decode[httpapi.Problem](t, resp)
			assert.Equal(t, tt.wantKind, problem.Kind)
		})
	}
}

func TestAPI_ValidationProblemListsFields(t *testing.T) {
	// Arrange
	srv := newTestServer(t)

	// Act
	resp := customer7.do(t, srv, http.MethodPost, "/orders", `{"total": -5}`)

	// Assert
	problem := decode[httpapi.Problem](t, resp)
	require.Len(t, problem.Fields, 1)
	assert.Equal(t, "total", problem.Fields[0].Field)
}

func TestAPI_CancelOrder(t *testing.T) {
	// Arrange
	srv := newTestServer(t)
	id := createOrder(t, srv, customer7, `{"total": 100}`)
	_ = customer7.do(t, srv, http.MethodGet, "/orders/"+id, "") // warm the cache

	// Act
	resp := customer7.do(t, srv, http.MethodPost, "/orders/"+id+"/cancel", `{"reason": "changed my mind"}`)
	again := customer7.do(t, srv, http.MethodPost, "/orders/"+id+"/cancel", "")
	after := customer7.do(t, srv, http.MethodGet, "/orders/"+id, "")

	// Assert
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, http.StatusConflict, again.StatusCode)
	dto := decode[orderQueries.OrderDTO](t, after)
	assert.Equal(t, "CANCELLED", dto.Status)
	assert.Equal(t, "changed my mind", dto.CancellationReason)
}

func TestAPI_CancelOtherCustomersOrderIsForbidden(t *testing.T) {
	// Arrange
	srv := newTestServer(t)
	id := createOrder(t, srv, customer7, `{"total": 100}`)

	// Act
	resp := caller{customer: "8"}.do(t, srv, http.MethodPost, "/orders/"+id+"/cancel", "")

	// Assert
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_ListCustomerOrders(t *testing.T) {
	// Arrange
	srv := newTestServer(t)
	admin := caller{roles: "admin"}
	createOrder(t, srv, customer7, `{"total": 100}`)
	createOrder(t, srv, customer7, `{"total": 900}`)
	createOrder(t, srv, admin, `{"customer_id": 8, "total": 50}`)

	// Act
	own := customer7.do(t, srv, http.MethodGet, "/customers/7/orders?min_total=500", "")
	foreign := customer7.do(t, srv, http.MethodGet, "/customers/8/orders", "")
	byAdmin := admin.do(t, srv, http.MethodGet, "/customers/8/orders", "")

	// Assert
	require.Equal(t, http.StatusOK, own.StatusCode)
	ownOrders := decode[[]orderQueries.OrderDTO](t, own)
	require.Len(t, ownOrders, 1)
	assert.Equal(t, int64(900), ownOrders[0].Total)

	assert.Equal(t, http.StatusForbidden, foreign.StatusCode)

	require.Equal(t, http.StatusOK, byAdmin.StatusCode)
	assert.Len(t, decode[[]orderQueries.OrderDTO](t, byAdmin), 1)
}

func TestAPI_Health(t *testing.T) {
	// Arrange
	srv := newTestServer(t)

	// Act
	resp := caller{}.do(t, srv, http.MethodGet, "/healthz", "")

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  *shared.Error
		want int
	}{
		{shared.NotFound("x"), http.StatusNotFound},
		{shared.HandlerNotFound("orders.unknown"), http.StatusNotFound},
		{shared.Validation(), http.StatusUnprocessableEntity},
		{shared.Conflict("x"), http.StatusConflict},
		{shared.Unauthorized("x"), http.StatusUnauthorized},
		{shared.Forbidden("x"), http.StatusForbidden},
		{shared.Cancelled(context.Canceled), http.StatusRequestTimeout},
		{shared.Cancelled(context.Canceled).WithMetadata("reason", "rate_limited"), http.StatusTooManyRequests},
		{shared.InvalidState("x"), http.StatusInternalServerError},
		{shared.Unexpected(io.ErrUnexpectedEOF), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, httpapi.StatusFor(tt.err))
		})
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	// Arrange
	cfg := config.ServerConfig{Address: "127.0.0.1:0", ReadTimeout: time.Second, ShutdownTimeout: time.Second}
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	server := httpapi.NewServer(cfg, handler, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// Act
	go func() { done <- server.Run(ctx) }()
	require.Eventually(t, func() bool { return server.Addr() != "" }, time.Second, 10*time.Millisecond)
	resp, err := http.Get("http://" + server.Addr() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	cancel()

	// Assert
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunFailsOnBusyAddress(t *testing.T) {
	// Arrange
	busy := httptest.NewServer(http.NotFoundHandler())
	defer busy.Close()
	addr := strings.TrimPrefix(busy.URL, "http://")
	server := httpapi.NewServer(config.ServerConfig{Address: addr}, http.NotFoundHandler(), quietLogger())

	// Act
	err := server.Run(context.Background())

	// Assert
	assert.Error(t, err)
}
