package shared_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

func TestAsError_ContextErrorsBecomeCancelled(t *testing.T) {
	for _, cause := range []error{context.Canceled, context.DeadlineExceeded, fmt.Errorf("query: %w", context.Canceled)} {
		e := shared.AsError(cause)

		assert.Equal(t, shared.KindCancelled, e.Kind)
		assert.True(t, errors.Is(e, cause))
	}
}

func TestAsError_KeepsWrappedDomainError(t *testing.T) {
	// Arrange
	original := shared.Conflict("version mismatch")
	wrapped := fmt.Errorf("save order: %w", original)

	// Act
	e := shared.AsError(wrapped)

	// Assert
	assert.Same(t, original, e)
}

func TestAsError_UnknownBecomesUnexpected(t *testing.T) {
	e := shared.AsError(errors.New("boom"))

	assert.Equal(t, shared.KindUnexpected, e.Kind)
	assert.Equal(t, "boom", e.Message)
	assert.Nil(t, shared.AsError(nil))
}

func TestValidation_CarriesEveryField(t *testing.T) {
	// Act
	e := shared.Validation(
		shared.FieldError{Field: "total", Message: "must be greater than 0"},
		shared.FieldError{Field: "customer_id", Message: "is required"},
	)

	// Assert
	require.Len(t, e.Fields, 2)
	assert.Equal(t, shared.KindValidation, e.Kind)
	assert.Contains(t, e.Error(), "total: must be greater than 0")
	assert.Contains(t, e.Error(), "customer_id: is required")
}

func TestError_WithMetadataCopies(t *testing.T) {
	// Arrange
	base := shared.NotFound("order")

	// Act
	tagged := base.WithMetadata("order_id", "7")

	// Assert
	assert.Nil(t, base.Metadata)
	assert.Equal(t, "7", tagged.Metadata["order_id"])
	assert.Equal(t, base.Kind, tagged.Kind)
}

func TestError_IsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", shared.NotFoundf("order %d", 7))

	assert.True(t, errors.Is(err, &shared.Error{Kind: shared.KindNotFound}))
	assert.False(t, errors.Is(err, &shared.Error{Kind: shared.KindConflict}))
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}
