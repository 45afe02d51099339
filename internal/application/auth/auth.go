package auth

import (
	"context"
	"fmt"

	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// Context keys for passing authentication data through context
type authContextKey int

const (
	principalKey authContextKey = iota + 1000 // Offset from logger keys
)

// RoleAdmin may act on any customer's resources
const RoleAdmin = "admin"

// Principal is the authenticated caller
type Principal struct {
	Subject    string   `json:"subject"`
	CustomerID int64    `json:"customer_id"`
	Roles      []string `json:"roles"`
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// WithPrincipal injects the authenticated principal into the context
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFromContext extracts the principal from context
// Returns false if no principal is present
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok || p.Subject == "" {
		return Principal{}, false
	}
	return p, true
}

// Protected marks a request that needs an authenticated, authorized caller
type Protected interface {
	mediator.Request
	// Permission names the action, e.g. "orders:create"
	Permission() string
}

// Owned is implemented by protected requests that name the customer they act for
type Owned interface {
	OwnerID() int64
}

// Authorizer decides whether principal may perform request
type Authorizer interface {
	Authorize(ctx context.Context, principal Principal, request Protected) (bool, error)
}

// AuthorizerFunc adapts a function to Authorizer
type AuthorizerFunc func(ctx context.Context, principal Principal, request Protected) (bool, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, principal Principal, request Protected) (bool, error) {
	return f(ctx, principal, request)
}

// OwnerOrAdmin allows admins everything and everyone else only requests for their own customer id
var OwnerOrAdmin = AuthorizerFunc(func(ctx context.Context, principal Principal, request Protected) (bool, error) {
	if principal.HasRole(RoleAdmin) {
		return true, nil
	}
	if principal.CustomerID == 0 {
		return false, nil
	}
	if owned, ok := request.(Owned); ok {
		return owned.OwnerID() == principal.CustomerID, nil
	}
	return true, nil
})

// Input is the document handed to policy engines for a decision
func Input(principal Principal, request Protected) map[string]any {
	input := map[string]any{
		"principal": map[string]any{
			"subject":     principal.Subject,
			"customer_id": principal.CustomerID,
			"roles":       principal.Roles,
		},
		"permission":   request.Permission(),
		"request_type": request.RequestType(),
	}
	if owned, ok := request.(Owned); ok {
		input["owner_id"] = owned.OwnerID()
	}
	return input
}

// AuthorizationBehavior rejects protected requests without a principal (Unauthorized)
// or without an allow decision (Forbidden)
type AuthorizationBehavior struct {
	authorizer Authorizer
}

func NewAuthorizationBehavior(authorizer Authorizer) *AuthorizationBehavior {
	if authorizer == nil {
		authorizer = OwnerOrAdmin
	}
	return &AuthorizationBehavior{authorizer: authorizer}
}

func (b *AuthorizationBehavior) Name() string { return "authorization" }

func (b *AuthorizationBehavior) Handle(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) shared.Result[mediator.Response] {
	protected, ok := request.(Protected)
	if !ok {
		return next(ctx, request)
	}

	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return shared.Failure[mediator.Response](
			shared.Unauthorized(fmt.Sprintf("%s requires an authenticated caller", request.RequestType())))
	}

	allowed, err := b.authorizer.Authorize(ctx, principal, protected)
	if err != nil {
		return shared.Fail[mediator.Response](fmt.Errorf("authorize %s: %w", request.RequestType(), err))
	}
	if !allowed {
		return shared.Failure[mediator.Response](
			shared.Forbidden(fmt.Sprintf("%s may not %s", principal.Subject, protected.Permission())).
				WithMetadata("permission", protected.Permission()))
	}
	return next(ctx, request)
}

var _ mediator.Behavior = (*AuthorizationBehavior)(nil)
