package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrNotFound          = errors.New("not found")          // 404
	ErrForbidden         = errors.New("forbidden")          // 403
	ErrInsufficientStock = errors.New("insufficient stock") // 409
	ErrConflict          = errors.New("conflict")           // 409
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrGateway           = errors.New("payment gateway")    // 502
	ErrSignatureMismatch = errors.New("signature mismatch") // 400, never retried
)

// InsufficientStockError names the variant that could not be reserved and how
// many units it had when the reservation was refused.
type InsufficientStockError struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.VariantID == uuid.Nil {
		return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
			e.ProductID, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for product %s (variant %s): requested %d, available %d",
		e.ProductID, e.VariantID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
