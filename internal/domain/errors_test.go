package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreErrorHidesCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := &StoreError{Op: "add product", Err: cause}

	assert.Equal(t, "add product: operation failed", err.Error())
	assert.ErrorIs(t, err, ErrOperationFailed)
	assert.ErrorIs(t, err, cause)
}

func TestInsufficientStockErrorMatchesSentinel(t *testing.T) {
	err := error(&InsufficientStockError{ProductID: "p1", Requested: 4, Available: 3})

	assert.ErrorIs(t, err, ErrInsufficientStock)
	var typed *InsufficientStockError
	assert.True(t, errors.As(err, &typed))
	assert.Equal(t, 3, typed.Available)
}

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := Invalid("email", "required")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "email: required", err.Error())
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderShipped.Valid())
	assert.False(t, OrderStatus("lost").Valid())
}
