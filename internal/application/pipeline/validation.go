package pipeline

import (
	"context"

	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// Validator inspects a request and reports every rule it breaks.
// A validator that does not apply to the request returns nil.
type Validator interface {
	Validate(ctx context.Context, request mediator.Request) []shared.FieldError
}

// ValidatorFunc adapts a function to Validator
type ValidatorFunc func(ctx context.Context, request mediator.Request) []shared.FieldError

func (f ValidatorFunc) Validate(ctx context.Context, request mediator.Request) []shared.FieldError {
	return f(ctx, request)
}

// Rule is one check on T. It returns "" when the value passes.
type Rule[T any] struct {
	Field string
	Check func(T) string
}

// RuleSet validates requests of type T; requests of any other type pass untouched
type RuleSet[T mediator.Request] struct {
	rules []Rule[T]
}

// NewRuleSet builds a rule set from rules
func NewRuleSet[T mediator.Request](rules ...Rule[T]) *RuleSet[T] {
	return &RuleSet[T]{rules: rules}
}

// Add appends a rule and returns the set for chaining
func (s *RuleSet[T]) Add(field string, check func(T) string) *RuleSet[T] {
	s.rules = append(s.rules, Rule[T]{Field: field, Check: check})
	return s
}

func (s *RuleSet[T]) Validate(ctx context.Context, request mediator.Request) []shared.FieldError {
	typed, ok := request.(T)
	if !ok {
		return nil
	}
	var failures []shared.FieldError
	for _, rule := range s.rules {
		if msg := rule.Check(typed); msg != "" {
			failures = append(failures, shared.FieldError{Field: rule.Field, Message: msg})
		}
	}
	return failures
}

// ValidationBehavior runs every validator, collects all field errors and
// returns a Validation failure without calling next when any rule fails.
type ValidationBehavior struct {
	validators []Validator
}

func NewValidationBehavior(validators ...Validator) *ValidationBehavior {
	return &ValidationBehavior{validators: validators}
}

func (b *ValidationBehavior) Name() string { return NameValidation }

func (b *ValidationBehavior) Handle(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) shared.Result[mediator.Response] {
	var failures []shared.FieldError
	for _, v := range b.validators {
		failures = append(failures, v.Validate(ctx, request)...)
	}
	if len(failures) > 0 {
		return shared.Failure[mediator.Response](shared.Validation(failures...))
	}
	return next(ctx, request)
}

var _ mediator.Behavior = (*ValidationBehavior)(nil)
