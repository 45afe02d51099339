package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// StructValidator validates requests through their `validate` struct tags.
// Field names are reported by their json tag so clients see the same names they sent.
type StructValidator struct {
	validate *validator.Validate
}

// NewStructValidator creates a validator instance with json field naming
func NewStructValidator() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &StructValidator{validate: v}
}

func (v *StructValidator) Validate(ctx context.Context, request mediator.Request) []shared.FieldError {
	value := reflect.ValueOf(request)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}

	err := v.validate.StructCtx(ctx, request)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []shared.FieldError{{Field: request.RequestType(), Message: err.Error()}}
	}

	failures := make([]shared.FieldError, 0, len(validationErrs))
	for _, e := range validationErrs {
		failures = append(failures, shared.FieldError{
			Field:   fieldPath(e),
			Message: describe(e),
		})
	}
	return failures
}

// fieldPath drops the leading struct name from the namespace ("CreateOrderCommand.total" -> "total")
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// describe converts a validator tag into a readable message
func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "min":
		return fmt.Sprintf("must have at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must have at most %s characters", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "uuid", "uuid4":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed validation: %s", e.Tag())
	}
}

var _ Validator = (*StructValidator)(nil)
