package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidMethod     = errors.New("invalid payment method")
	ErrInvalidRate       = errors.New("invalid exchange rate")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrServiceRequired   = errors.New("service label required")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMethodAlreadySet  = errors.New("payment method already set")
	ErrMethodNotSelected = errors.New("payment method not selected")
	ErrDraftIncomplete   = errors.New("draft incomplete")
	ErrInvalidPeriod     = errors.New("invalid stats period")
	ErrInvalidID         = errors.New("invalid id")
)

// ActiveOrderError is returned when an owner who already has a non-terminal
// order attempts to create another one. It carries the conflicting order id.
type ActiveOrderError struct {
	OrderID string
}

func (e *ActiveOrderError) Error() string {
	return fmt.Sprintf("active order already exists: %s", e.OrderID)
}

// StorageError wraps a persistence failure. Callers treat it as a generic
// internal failure; the wrapped cause stays available for logging.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
