package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paydesk/api/internal/clock"
	"github.com/paydesk/api/internal/domain"
	"github.com/paydesk/api/internal/pricing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderRepository is the persistence contract the workflow needs.
type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (domain.Order, error)
	GetForUpdate(ctx context.Context, id string) (domain.Order, error)
	GetActiveOrder(ctx context.Context, ownerID int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status, paidAt, completedAt *time.Time) error
	SetPaymentMethod(ctx context.Context, id string, method domain.PaymentMethod, amount decimal.Decimal, currency string) error
	UserOrders(ctx context.Context, ownerID int64, limit, offset int) ([]domain.Order, error)
	UserStats(ctx context.Context, ownerID int64) (domain.UserStats, error)
}

// Notifier delivers best-effort messages. Errors are logged and dropped; a
// failed delivery never rolls back the transition that triggered it.
type Notifier interface {
	NotifyOwner(ctx context.Context, ownerID int64, message string) error
	NotifyOperators(ctx context.Context, message string) error
}

// RequisitesProvider returns the payout instructions for a payment method.
type RequisitesProvider interface {
	Requisites(ctx context.Context, method domain.PaymentMethod) (string, error)
}

// OrderService drives the order lifecycle: creation under the
// one-active-order invariant, payment-method settlement, and the
// user/operator transitions, with post-commit notifications.
type OrderService struct {
	repo       OrderRepository
	requisites RequisitesProvider
	notifier   Notifier
	clock      clock.Clock
	usdToRub   decimal.Decimal // snapshot taken at startup
	log        zerolog.Logger
}

func NewOrderService(
	repo OrderRepository,
	requisites RequisitesProvider,
	notifier Notifier,
	clk clock.Clock,
	usdToRub decimal.Decimal,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{
		repo:       repo,
		requisites: requisites,
		notifier:   notifier,
		clock:      clk,
		usdToRub:   usdToRub,
		log:        log,
	}
}

type CreateOrderInput struct {
	OwnerID      int64
	ServiceLabel string
	BaseAmount   decimal.Decimal
}

// Create opens a new PENDING order. The pre-check gives a friendly error for
// the common case; the partial unique index in the store is what actually
// guarantees the invariant under concurrent creates.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	label := strings.TrimSpace(in.ServiceLabel)
	if label == "" {
		return domain.Order{}, domain.ErrServiceRequired
	}

	rate, commission, err := pricing.Commission(in.BaseAmount)
	if err != nil {
		return domain.Order{}, err
	}

	existing, err := s.repo.GetActiveOrder(ctx, in.OwnerID)
	if err != nil {
		return domain.Order{}, s.fail("check active order", err)
	}
	if existing != nil {
		return domain.Order{}, &domain.ActiveOrderError{OrderID: existing.ID}
	}

	order := domain.Order{
		ID:               uuid.NewString(),
		OwnerID:          in.OwnerID,
		ServiceLabel:     label,
		BaseAmount:       in.BaseAmount,
		CommissionRate:   rate,
		CommissionAmount: commission,
		TotalAmount:      in.BaseAmount.Add(commission).Round(2),
		Status:           domain.StatusPending,
		CreatedAt:        s.clock.Now(),
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return domain.Order{}, s.fail("create order", err)
	}
	return order, nil
}

type SelectMethodInput struct {
	OrderID string
	Method  domain.PaymentMethod
}

type SelectMethodResult struct {
	Order domain.Order
	// Requisites is empty when the operator has not configured any for the
	// method; callers render that as "not specified".
	Requisites string
}

// SelectMethod fixes the payment method and the settlement derived from it
// using the exchange-rate snapshot. The rate is never re-applied later.
func (s *OrderService) SelectMethod(ctx context.Context, in SelectMethodInput) (SelectMethodResult, error) {
	if !in.Method.Valid() {
		return SelectMethodResult{}, domain.ErrInvalidMethod
	}

	var updated domain.Order
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetForUpdate(txCtx, in.OrderID)
		if err != nil {
			return err
		}
		if order.Status != domain.StatusPending {
			return domain.ErrInvalidTransition
		}
		if order.MethodSelected() {
			return domain.ErrMethodAlreadySet
		}

		amount, currency, err := pricing.Settlement(order.TotalAmount, in.Method, s.usdToRub)
		if err != nil {
			return err
		}
		if err := s.repo.SetPaymentMethod(txCtx, order.ID, in.Method, amount, currency); err != nil {
			return err
		}

		order.PaymentMethod = in.Method
		order.SettlementAmount = amount
		order.SettlementCurrency = currency
		updated = order
		return nil
	})
	if err != nil {
		return SelectMethodResult{}, s.fail("select payment method", err)
	}

	requisites, err := s.requisites.Requisites(ctx, in.Method)
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", updated.ID).Msg("requisites lookup failed")
		requisites = ""
	}

	s.notifyOperators(ctx, fmt.Sprintf(
		"New order %s\nowner: %d\nservice: %s\ntotal: $%s\nmethod: %s",
		updated.ID, updated.OwnerID, updated.ServiceLabel,
		updated.TotalAmount.StringFixed(2), updated.PaymentMethod,
	))

	return SelectMethodResult{Order: updated, Requisites: requisites}, nil
}

// MarkPaid records the owner's claim of payment and queues the order for
// operator review.
func (s *OrderService) MarkPaid(ctx context.Context, orderID string) (domain.Order, error) {
	var updated domain.Order
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(order.Status, domain.StatusAwaitingReview) {
			return domain.ErrInvalidTransition
		}
		if !order.MethodSelected() {
			return domain.ErrMethodNotSelected
		}

		paidAt := s.clock.Now()
		if err := s.repo.UpdateStatus(txCtx, order.ID, domain.StatusAwaitingReview, &paidAt, nil); err != nil {
			return err
		}

		order.Status = domain.StatusAwaitingReview
		order.PaidAt = &paidAt
		updated = order
		return nil
	})
	if err != nil {
		return domain.Order{}, s.fail("mark paid", err)
	}

	s.notifyOperators(ctx, fmt.Sprintf(
		"Order %s awaits review\npaid: %s %s via %s at %s",
		updated.ID, updated.SettlementAmount, updated.SettlementCurrency,
		updated.PaymentMethod, updated.PaidAt.Format(time.RFC3339),
	))

	return updated, nil
}

// Cancel rejects a PENDING order. Cancelling an order already in a terminal
// state is a tolerated no-op; an order awaiting review can only be resolved
// by an operator.
func (s *OrderService) Cancel(ctx context.Context, orderID string) (domain.Order, error) {
	var updated domain.Order
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			updated = order
			return nil
		}
		if order.Status != domain.StatusPending {
			return domain.ErrInvalidTransition
		}

		if err := s.repo.UpdateStatus(txCtx, order.ID, domain.StatusRejected, nil, nil); err != nil {
			return err
		}
		order.Status = domain.StatusRejected
		updated = order
		return nil
	})
	if err != nil {
		return domain.Order{}, s.fail("cancel order", err)
	}
	return updated, nil
}

type ResolveInput struct {
	OrderID string
	Target  domain.Status
}

// Resolve is the operator decision on an order awaiting review. Exactly one
// owner notification is attempted after the transition commits.
func (s *OrderService) Resolve(ctx context.Context, in ResolveInput) (domain.Order, error) {
	if in.Target != domain.StatusCompleted && in.Target != domain.StatusRejected {
		return domain.Order{}, domain.ErrInvalidStatus
	}

	var updated domain.Order
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetForUpdate(txCtx, in.OrderID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(order.Status, in.Target) {
			return domain.ErrInvalidTransition
		}

		var completedAt *time.Time
		if in.Target == domain.StatusCompleted {
			now := s.clock.Now()
			completedAt = &now
		}
		if err := s.repo.UpdateStatus(txCtx, order.ID, in.Target, nil, completedAt); err != nil {
			return err
		}

		order.Status = in.Target
		order.CompletedAt = completedAt
		updated = order
		return nil
	})
	if err != nil {
		return domain.Order{}, s.fail("resolve order", err)
	}

	if updated.Status == domain.StatusCompleted {
		s.notifyOwner(ctx, updated.OwnerID, fmt.Sprintf("Your order %s has been completed.", updated.ID))
	} else {
		s.notifyOwner(ctx, updated.OwnerID, fmt.Sprintf("Your order %s has been rejected.", updated.ID))
	}

	return updated, nil
}

// Order fetches a single order.
func (s *OrderService) Order(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Order{}, s.fail("get order", err)
	}
	return order, nil
}

// UserOrders lists the owner's orders newest first.
func (s *OrderService) UserOrders(ctx context.Context, ownerID int64, limit, offset int) ([]domain.Order, error) {
	if offset < 0 {
		offset = 0
	}
	orders, err := s.repo.UserOrders(ctx, ownerID, clampLimit(limit, 10, 100), offset)
	if err != nil {
		return nil, s.fail("list user orders", err)
	}
	return orders, nil
}

// UserStats summarizes the owner's completed orders.
func (s *OrderService) UserStats(ctx context.Context, ownerID int64) (domain.UserStats, error) {
	stats, err := s.repo.UserStats(ctx, ownerID)
	if err != nil {
		return domain.UserStats{}, s.fail("user stats", err)
	}
	return stats, nil
}

func (s *OrderService) notifyOperators(ctx context.Context, message string) {
	if err := s.notifier.NotifyOperators(ctx, message); err != nil {
		s.log.Warn().Err(err).Msg("operator notification failed")
	}
}

func (s *OrderService) notifyOwner(ctx context.Context, ownerID int64, message string) {
	if err := s.notifier.NotifyOwner(ctx, ownerID, message); err != nil {
		s.log.Warn().Err(err).Int64("owner_id", ownerID).Msg("owner notification failed")
	}
}

// fail passes domain errors through and wraps everything else as a storage
// failure, logged with its cause.
func (s *OrderService) fail(op string, err error) error {
	if isDomainError(err) {
		return err
	}
	s.log.Error().Err(err).Str("op", op).Msg("storage failure")
	return &domain.StorageError{Op: op, Err: err}
}

var domainSentinels = []error{
	domain.ErrInvalidAmount,
	domain.ErrInvalidMethod,
	domain.ErrInvalidRate,
	domain.ErrInvalidStatus,
	domain.ErrServiceRequired,
	domain.ErrOrderNotFound,
	domain.ErrInvalidTransition,
	domain.ErrMethodAlreadySet,
	domain.ErrMethodNotSelected,
	domain.ErrInvalidID,
	domain.ErrInvalidPeriod,
}

func isDomainError(err error) bool {
	var active *domain.ActiveOrderError
	if errors.As(err, &active) {
		return true
	}
	for _, sentinel := range domainSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func clampLimit(limit, def, ceiling int) int {
	if limit <= 0 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
