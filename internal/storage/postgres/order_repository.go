package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paydesk/api/internal/domain"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const orderColumns = `id, owner_id, service_label, base_amount, commission_rate,
commission_amount, total_amount, payment_method, settlement_amount,
settlement_currency, status, created_at, paid_at, completed_at`

// Create inserts a fully initialized order. The partial unique index on
// (owner_id) over non-terminal statuses turns a create race into a unique
// violation, which is mapped to ActiveOrderError with the conflicting id.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, owner_id, service_label, base_amount, commission_rate,
	commission_amount, total_amount, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.q(ctx).Exec(ctx, stmt,
		order.ID,
		order.OwnerID,
		order.ServiceLabel,
		order.BaseAmount,
		order.CommissionRate,
		order.CommissionAmount,
		order.TotalAmount,
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// The failed insert aborts any surrounding transaction, so the
			// conflicting order is looked up on a fresh pool connection.
			active := &domain.ActiveOrderError{}
			lookupErr := r.pool.QueryRow(ctx,
				`SELECT id FROM orders WHERE owner_id = $1 AND status IN ('PENDING', 'PAID_USER')`,
				order.OwnerID,
			).Scan(&active.OrderID)
			if lookupErr != nil && lookupErr != pgx.ErrNoRows {
				return fmt.Errorf("lookup active order: %w", lookupErr)
			}
			return active
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetForUpdate locks the order row for the rest of the transaction.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *OrderRepository) getOne(ctx context.Context, query, id string) (domain.Order, error) {
	order, err := scanOrder(r.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// GetActiveOrder returns the owner's single non-terminal order, or nil.
func (r *OrderRepository) GetActiveOrder(ctx context.Context, ownerID int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + `
FROM orders
WHERE owner_id = $1 AND status IN ('PENDING', 'PAID_USER')
ORDER BY created_at DESC
LIMIT 1`

	order, err := scanOrder(r.q(ctx).QueryRow(ctx, query, ownerID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get active order: %w", err)
	}
	return &order, nil
}

// UpdateStatus sets the status and, when supplied, the matching timestamp.
// Timestamps already recorded are never cleared.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, paidAt, completedAt *time.Time) error {
	const stmt = `
UPDATE orders
SET status = $2,
	paid_at = COALESCE($3, paid_at),
	completed_at = COALESCE($4, completed_at)
WHERE id = $1`

	tag, err := r.q(ctx).Exec(ctx, stmt, id, status, paidAt, completedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// SetPaymentMethod persists the chosen method and the settlement derived from it.
func (r *OrderRepository) SetPaymentMethod(ctx context.Context, id string, method domain.PaymentMethod, amount decimal.Decimal, currency string) error {
	const stmt = `
UPDATE orders
SET payment_method = $2, settlement_amount = $3, settlement_currency = $4
WHERE id = $1`

	tag, err := r.q(ctx).Exec(ctx, stmt, id, method, amount, currency)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set payment method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// ListByStatus returns orders newest first, optionally filtered by status.
func (r *OrderRepository) ListByStatus(ctx context.Context, status *domain.Status, limit, offset int) ([]domain.Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status != nil {
		query := `SELECT ` + orderColumns + `
FROM orders
WHERE status = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
		rows, err = r.q(ctx).Query(ctx, query, *status, limit, offset)
	} else {
		query := `SELECT ` + orderColumns + `
FROM orders
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
		rows, err = r.q(ctx).Query(ctx, query, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return collectOrders(rows)
}

// ListAwaitingReview returns orders waiting for operator resolution,
// most recently paid first.
func (r *OrderRepository) ListAwaitingReview(ctx context.Context) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + `
FROM orders
WHERE status = 'PAID_USER'
ORDER BY paid_at DESC`

	rows, err := r.q(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list awaiting review: %w", err)
	}
	return collectOrders(rows)
}

// UserOrders returns the owner's orders newest first.
func (r *OrderRepository) UserOrders(ctx context.Context, ownerID int64, limit, offset int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + `
FROM orders
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.q(ctx).Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return collectOrders(rows)
}

// UserStats aggregates the owner's completed orders.
func (r *OrderRepository) UserStats(ctx context.Context, ownerID int64) (domain.UserStats, error) {
	const query = `
SELECT
	COUNT(*) FILTER (WHERE status = 'COMPLETED'),
	COALESCE(SUM(total_amount) FILTER (WHERE status = 'COMPLETED'), 0),
	MIN(completed_at) FILTER (WHERE status = 'COMPLETED'),
	MAX(completed_at) FILTER (WHERE status = 'COMPLETED')
FROM orders
WHERE owner_id = $1`

	var stats domain.UserStats
	err := r.q(ctx).QueryRow(ctx, query, ownerID).Scan(
		&stats.CompletedCount,
		&stats.TotalSpent,
		&stats.FirstCompletedAt,
		&stats.LastCompletedAt,
	)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return stats, nil
}

// PeriodStats aggregates orders created inside [start, end].
func (r *OrderRepository) PeriodStats(ctx context.Context, start, end time.Time) (domain.PeriodStats, error) {
	const query = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE status = 'COMPLETED'),
	COALESCE(SUM(total_amount), 0),
	COALESCE(SUM(commission_amount), 0),
	COALESCE(SUM(settlement_amount) FILTER (WHERE settlement_currency = 'RUB'), 0)
FROM orders
WHERE created_at >= $1 AND created_at <= $2`

	var stats domain.PeriodStats
	err := r.q(ctx).QueryRow(ctx, query, start, end).Scan(
		&stats.TotalOrders,
		&stats.CompletedOrders,
		&stats.TurnoverUSD,
		&stats.TotalCommission,
		&stats.TurnoverRUB,
	)
	if err != nil {
		return domain.PeriodStats{}, fmt.Errorf("period stats: %w", err)
	}
	if stats.TotalOrders > 0 {
		rate := float64(stats.CompletedOrders) / float64(stats.TotalOrders) * 100
		stats.SuccessRate = math.Round(rate*100) / 100
	}
	return stats, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o          domain.Order
		method     *string
		settlement decimal.NullDecimal
		currency   *string
	)
	err := row.Scan(
		&o.ID,
		&o.OwnerID,
		&o.ServiceLabel,
		&o.BaseAmount,
		&o.CommissionRate,
		&o.CommissionAmount,
		&o.TotalAmount,
		&method,
		&settlement,
		&currency,
		&o.Status,
		&o.CreatedAt,
		&o.PaidAt,
		&o.CompletedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	if method != nil {
		o.PaymentMethod = domain.PaymentMethod(*method)
	}
	if settlement.Valid {
		o.SettlementAmount = settlement.Decimal
	}
	if currency != nil {
		o.SettlementCurrency = *currency
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}
