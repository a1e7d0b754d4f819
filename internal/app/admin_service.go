package app

import (
	"context"
	"time"

	"github.com/paydesk/api/internal/clock"
	"github.com/paydesk/api/internal/domain"
	"github.com/rs/zerolog"
)

// AdminRepository is the persistence contract for operator views.
type AdminRepository interface {
	ListByStatus(ctx context.Context, status *domain.Status, limit, offset int) ([]domain.Order, error)
	ListAwaitingReview(ctx context.Context) ([]domain.Order, error)
	PeriodStats(ctx context.Context, start, end time.Time) (domain.PeriodStats, error)
}

// AdminService serves the operator-facing order lists and statistics.
type AdminService struct {
	repo  AdminRepository
	clock clock.Clock
	log   zerolog.Logger
}

func NewAdminService(repo AdminRepository, clk clock.Clock, log zerolog.Logger) *AdminService {
	return &AdminService{
		repo:  repo,
		clock: clk,
		log:   log,
	}
}

type ListOrdersInput struct {
	// Status filters by lifecycle state; "" or "all" lists everything.
	Status string
	Limit  int
	Offset int
}

func (s *AdminService) ListOrders(ctx context.Context, in ListOrdersInput) ([]domain.Order, error) {
	var status *domain.Status
	if in.Status != "" && in.Status != "all" {
		parsed := domain.Status(in.Status)
		if !parsed.Valid() {
			return nil, domain.ErrInvalidStatus
		}
		status = &parsed
	}
	if in.Offset < 0 {
		in.Offset = 0
	}

	orders, err := s.repo.ListByStatus(ctx, status, clampLimit(in.Limit, 50, 200), in.Offset)
	if err != nil {
		return nil, s.fail("list orders", err)
	}
	return orders, nil
}

// ReviewQueue lists orders claiming payment, most recently paid first.
func (s *AdminService) ReviewQueue(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.repo.ListAwaitingReview(ctx)
	if err != nil {
		return nil, s.fail("list review queue", err)
	}
	return orders, nil
}

type StatsInput struct {
	// Period is a named window: "day", "week" or "month". Ignored when an
	// explicit Start/End pair is supplied.
	Period string
	Start  *time.Time
	End    *time.Time
}

type StatsResult struct {
	Start time.Time
	End   time.Time
	Stats domain.PeriodStats
}

// Stats aggregates orders created inside the requested window.
func (s *AdminService) Stats(ctx context.Context, in StatsInput) (StatsResult, error) {
	start, end, err := s.window(in)
	if err != nil {
		return StatsResult{}, err
	}

	stats, err := s.repo.PeriodStats(ctx, start, end)
	if err != nil {
		return StatsResult{}, s.fail("period stats", err)
	}
	return StatsResult{Start: start, End: end, Stats: stats}, nil
}

func (s *AdminService) window(in StatsInput) (time.Time, time.Time, error) {
	if in.Start != nil || in.End != nil {
		if in.Start == nil || in.End == nil || in.End.Before(*in.Start) {
			return time.Time{}, time.Time{}, domain.ErrInvalidPeriod
		}
		return *in.Start, *in.End, nil
	}

	end := s.clock.Now()
	switch in.Period {
	case "", "day":
		return end.AddDate(0, 0, -1), end, nil
	case "week":
		return end.AddDate(0, 0, -7), end, nil
	case "month":
		return end.AddDate(0, 0, -30), end, nil
	default:
		return time.Time{}, time.Time{}, domain.ErrInvalidPeriod
	}
}

func (s *AdminService) fail(op string, err error) error {
	if isDomainError(err) {
		return err
	}
	s.log.Error().Err(err).Str("op", op).Msg("storage failure")
	return &domain.StorageError{Op: op, Err: err}
}
