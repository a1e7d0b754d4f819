package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. The wire values match what operators
// see in the database and over HTTP.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusAwaitingReview Status = "PAID_USER"
	StatusCompleted      Status = "COMPLETED"
	StatusRejected       Status = "REJECTED"
)

// Valid reports whether s is one of the closed status enumeration.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAwaitingReview, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s accepts no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// PaymentMethod is the closed enumeration of supported settlement routes.
type PaymentMethod string

const (
	MethodUSDTTRC20 PaymentMethod = "USDT_TRC20"
	MethodUSDTBEP20 PaymentMethod = "USDT_BEP20"
	MethodBybitUID  PaymentMethod = "BYBIT_UID"
	MethodCard      PaymentMethod = "CARD"
	MethodLolz      PaymentMethod = "LOLZ"
)

// Valid reports whether m is one of the closed payment-method enumeration.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodUSDTTRC20, MethodUSDTBEP20, MethodBybitUID, MethodCard, MethodLolz:
		return true
	}
	return false
}

// Order is a payment order for an external service. Amount fields are derived
// once at creation (commission) or at method selection (settlement) and are
// immutable afterwards; only Status and its timestamps change.
type Order struct {
	ID               string
	OwnerID          int64
	ServiceLabel     string
	BaseAmount       decimal.Decimal
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	TotalAmount      decimal.Decimal

	// Settlement fields are zero until a payment method is selected.
	PaymentMethod      PaymentMethod
	SettlementAmount   decimal.Decimal
	SettlementCurrency string

	Status      Status
	CreatedAt   time.Time
	PaidAt      *time.Time
	CompletedAt *time.Time
}

// Active reports whether the order counts against the one-active-order-per-owner limit.
func (o Order) Active() bool {
	return !o.Status.Terminal()
}

// MethodSelected reports whether a payment method has been chosen.
func (o Order) MethodSelected() bool {
	return o.PaymentMethod != ""
}

var transitions = map[Status][]Status{
	StatusPending:        {StatusAwaitingReview, StatusRejected},
	StatusAwaitingReview: {StatusCompleted, StatusRejected},
}

// AllowedTransitions returns the statuses reachable from the given one.
// Terminal statuses return nil.
func AllowedTransitions(from Status) []Status {
	return transitions[from]
}

// CanTransition reports whether from -> to is a legal lifecycle transition.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
