package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/andrescamacho/mediator-go/internal/application/auth"
	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	orderCommands "github.com/andrescamacho/mediator-go/internal/application/order/commands"
	orderQueries "github.com/andrescamacho/mediator-go/internal/application/order/queries"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

const maxBodyBytes = 1 << 20

type createOrderBody struct {
	CustomerID int64 `json:"customer_id"`
	Total      int64 `json:"total"`
}

type cancelOrderBody struct {
	Reason string `json:"reason"`
}

type createdResponse struct {
	ID string `json:"id"`
}

// API exposes the order requests over HTTP. Every route goes through the mediator.
type API struct {
	sender mediator.Sender
	logger *slog.Logger
}

func NewAPI(sender mediator.Sender, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{sender: sender, logger: logger}
}

// Handler builds the routed, traced handler
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.health)
	mux.HandleFunc("POST /orders", a.createOrder)
	mux.HandleFunc("GET /orders/{id}", a.getOrder)
	mux.HandleFunc("POST /orders/{id}/cancel", a.cancelOrder)
	mux.HandleFunc("GET /customers/{id}/orders", a.listCustomerOrders)
	return otelhttp.NewHandler(mux, "mediator.http")
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, principal, ok := a.authenticate(w, r)
	if !ok {
		return
	}

	var body createOrderBody
	if !a.decode(w, r, &body) {
		return
	}
	cmd := orderCommands.CreateOrderCommand{CustomerID: body.CustomerID, Total: body.Total}
	if cmd.CustomerID == 0 {
		cmd.CustomerID = principal.CustomerID
	}

	result := mediator.Send[string](ctx, a.sender, cmd)
	respond(a, w, r, result, http.StatusCreated, func(id string) any { return createdResponse{ID: id} })
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, principal, ok := a.authenticate(w, r)
	if !ok {
		return
	}

	query := orderQueries.GetOrderQuery{OrderID: r.PathValue("id"), CustomerID: scope(principal)}
	result := mediator.Send[orderQueries.OrderDTO](ctx, a.sender, query)
	respond(a, w, r, result, http.StatusOK, func(dto orderQueries.OrderDTO) any { return dto })
}

func (a *API) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, principal, ok := a.authenticate(w, r)
	if !ok {
		return
	}

	var body cancelOrderBody
	if r.ContentLength != 0 && !a.decode(w, r, &body) {
		return
	}
	cmd := orderCommands.CancelOrderCommand{
		OrderID:    r.PathValue("id"),
		CustomerID: scope(principal),
		Reason:     body.Reason,
	}

	result := mediator.Send[shared.Unit](ctx, a.sender, cmd)
	respond(a, w, r, result, http.StatusNoContent, func(shared.Unit) any { return nil })
}

func (a *API) listCustomerOrders(w http.ResponseWriter, r *http.Request) {
	ctx, _, ok := a.authenticate(w, r)
	if !ok {
		return
	}

	customerID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeProblem(w, shared.Validation(shared.FieldError{Field: "customer_id", Message: "must be an integer"}))
		return
	}
	query := orderQueries.ListCustomerOrdersQuery{
		CustomerID: customerID,
		Status:     r.URL.Query().Get("status"),
	}
	if raw := r.URL.Query().Get("min_total"); raw != "" {
		if query.MinTotal, err = strconv.ParseInt(raw, 10, 64); err != nil {
			writeProblem(w, shared.Validation(shared.FieldError{Field: "min_total", Message: "must be an integer"}))
			return
		}
	}

	result := mediator.Send[[]orderQueries.OrderDTO](ctx, a.sender, query)
	respond(a, w, r, result, http.StatusOK, func(dtos []orderQueries.OrderDTO) any { return dtos })
}

// authenticate attaches the caller's principal to the request context.
// Anonymous requests continue without one and are rejected by the pipeline.
func (a *API) authenticate(w http.ResponseWriter, r *http.Request) (context.Context, auth.Principal, bool) {
	principal, found, perr := principalFromRequest(r)
	if perr != nil {
		writeProblem(w, perr)
		return nil, auth.Principal{}, false
	}
	ctx := r.Context()
	if found {
		ctx = auth.WithPrincipal(ctx, principal)
	}
	return ctx, principal, true
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, Problem{
			Kind:    shared.KindValidation,
			Message: "malformed request body: " + err.Error(),
		})
		return false
	}
	return true
}

func respond[T any](a *API, w http.ResponseWriter, r *http.Request, result shared.Result[T], status int, render func(T) any) {
	shared.Match(result,
		func(v T) struct{} {
			writeJSON(w, status, render(v))
			return struct{}{}
		},
		func(err *shared.Error) struct{} {
			if StatusFor(err) >= http.StatusInternalServerError {
				a.logger.ErrorContext(r.Context(), "request failed",
					"method", r.Method,
					"path", r.URL.Path,
					"kind", string(err.Kind),
					"error", err.Error(),
				)
			}
			writeProblem(w, err)
			return struct{}{}
		},
	)
}
