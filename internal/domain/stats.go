package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserStats summarizes an owner's completed orders.
type UserStats struct {
	CompletedCount   int64
	TotalSpent       decimal.Decimal
	FirstCompletedAt *time.Time
	LastCompletedAt  *time.Time
}

// PeriodStats summarizes all orders created inside a reporting window.
// TurnoverUSD and TotalCommission cover every order in the window;
// TurnoverRUB covers only orders settled in RUB.
type PeriodStats struct {
	TotalOrders     int64
	CompletedOrders int64
	SuccessRate     float64
	TurnoverUSD     decimal.Decimal
	TurnoverRUB     decimal.Decimal
	TotalCommission decimal.Decimal
}
