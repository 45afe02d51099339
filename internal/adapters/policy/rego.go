package policy

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/andrescamacho/mediator-go/internal/application/auth"
	"github.com/andrescamacho/mediator-go/internal/infrastructure/config"
)

//go:embed default.rego
var defaultPolicy string

// DefaultQuery is the decision evaluated by the built-in policy
const DefaultQuery = "data.mediator.authz.allow"

// RegoAuthorizer decides authorization with an OPA Rego policy.
// The query must evaluate to a boolean; an undefined result denies.
type RegoAuthorizer struct {
	query rego.PreparedEvalQuery
}

// NewRegoAuthorizer compiles modules (file name → source) and prepares query
func NewRegoAuthorizer(ctx context.Context, query string, modules map[string]string) (*RegoAuthorizer, error) {
	if strings.TrimSpace(query) == "" {
		query = DefaultQuery
	}
	if len(modules) == 0 {
		modules = map[string]string{"default.rego": defaultPolicy}
	}

	opts := []func(*rego.Rego){rego.Query(query)}
	for name, src := range modules {
		opts = append(opts, rego.Module(name, src))
	}

	prepared, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile rego policy: %w", err)
	}
	return &RegoAuthorizer{query: prepared}, nil
}

// LoadRegoAuthorizer builds the authorizer from cfg, using the built-in policy when no path is set
func LoadRegoAuthorizer(ctx context.Context, cfg config.PolicyConfig) (*RegoAuthorizer, error) {
	if cfg.Path == "" {
		return NewRegoAuthorizer(ctx, cfg.Query, nil)
	}
	src, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("read rego policy: %w", err)
	}
	return NewRegoAuthorizer(ctx, cfg.Query, map[string]string{filepath.Base(cfg.Path): string(src)})
}

func (a *RegoAuthorizer) Authorize(ctx context.Context, principal auth.Principal, request auth.Protected) (bool, error) {
	results, err := a.query.Eval(ctx, rego.EvalInput(auth.Input(principal, request)))
	if err != nil {
		return false, fmt.Errorf("opa decision: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("opa decision: unexpected result type %T", results[0].Expressions[0].Value)
	}
	return allowed, nil
}

var _ auth.Authorizer = (*RegoAuthorizer)(nil)
