package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paydesk/api/internal/app"
	"github.com/paydesk/api/internal/domain"
	"github.com/shopspring/decimal"
)

type fakeAdmin struct {
	listFn    func(in app.ListOrdersInput) ([]domain.Order, error)
	reviewFn  func() ([]domain.Order, error)
	statsFn   func(in app.StatsInput) (app.StatsResult, error)
	resolveFn func(in app.ResolveInput) (domain.Order, error)
}

func (f *fakeAdmin) ListOrders(_ context.Context, in app.ListOrdersInput) ([]domain.Order, error) {
	return f.listFn(in)
}

func (f *fakeAdmin) ReviewQueue(context.Context) ([]domain.Order, error) {
	return f.reviewFn()
}

func (f *fakeAdmin) Stats(_ context.Context, in app.StatsInput) (app.StatsResult, error) {
	return f.statsFn(in)
}

func (f *fakeAdmin) Resolve(_ context.Context, in app.ResolveInput) (domain.Order, error) {
	return f.resolveFn(in)
}

func TestOperatorOnly(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := OperatorOnly([]int64{10, 20}, next)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"allowed operator", "10", http.StatusOK},
		{"unknown operator", "30", http.StatusForbidden},
		{"missing header", "", http.StatusForbidden},
		{"garbage header", "admin", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
		if tc.header != "" {
			req.Header.Set("X-Operator-ID", tc.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}

func TestHandleAdminOrders(t *testing.T) {
	t.Run("list forwards query filters", func(t *testing.T) {
		var got app.ListOrdersInput
		admin := &fakeAdmin{listFn: func(in app.ListOrdersInput) ([]domain.Order, error) {
			got = in
			return []domain.Order{sampleOrder()}, nil
		}}

		req := httptest.NewRequest(http.MethodGet, "/admin/orders?status=PENDING&limit=5&offset=10", nil)
		rec := httptest.NewRecorder()
		HandleAdminOrders(admin, admin)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.Status != "PENDING" || got.Limit != 5 || got.Offset != 10 {
			t.Fatalf("unexpected input: %+v", got)
		}
		var resp []orderResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp) != 1 || resp[0].ID != "ord-1" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("invalid status filter is 400", func(t *testing.T) {
		admin := &fakeAdmin{listFn: func(app.ListOrdersInput) ([]domain.Order, error) {
			return nil, domain.ErrInvalidStatus
		}}

		req := httptest.NewRequest(http.MethodGet, "/admin/orders?status=SHIPPED", nil)
		rec := httptest.NewRecorder()
		HandleAdminOrders(admin, admin)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("review queue", func(t *testing.T) {
		order := sampleOrder()
		order.Status = domain.StatusAwaitingReview
		admin := &fakeAdmin{reviewFn: func() ([]domain.Order, error) {
			return []domain.Order{order}, nil
		}}

		req := httptest.NewRequest(http.MethodGet, "/admin/orders/review", nil)
		rec := httptest.NewRecorder()
		HandleAdminOrders(admin, admin)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp []orderResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if len(resp) != 1 || resp[0].Status != "PAID_USER" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("resolve forwards the decision", func(t *testing.T) {
		var got app.ResolveInput
		admin := &fakeAdmin{resolveFn: func(in app.ResolveInput) (domain.Order, error) {
			got = in
			order := sampleOrder()
			order.Status = domain.StatusCompleted
			return order, nil
		}}

		req := httptest.NewRequest(http.MethodPost, "/admin/orders/ord-1/resolve",
			strings.NewReader(`{"status":"COMPLETED"}`))
		rec := httptest.NewRecorder()
		HandleAdminOrders(admin, admin)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.OrderID != "ord-1" || got.Target != domain.StatusCompleted {
			t.Fatalf("unexpected input: %+v", got)
		}
	})

	t.Run("resolve on a settled order conflicts", func(t *testing.T) {
		admin := &fakeAdmin{resolveFn: func(app.ResolveInput) (domain.Order, error) {
			return domain.Order{}, domain.ErrInvalidTransition
		}}

		req := httptest.NewRequest(http.MethodPost, "/admin/orders/ord-1/resolve",
			strings.NewReader(`{"status":"REJECTED"}`))
		rec := httptest.NewRecorder()
		HandleAdminOrders(admin, admin)(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("unknown subroutes are 404", func(t *testing.T) {
		for _, path := range []string{"/admin/orders/ord-1", "/admin/orders/ord-1/approve", "/admin/orders/review/extra"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			HandleAdminOrders(&fakeAdmin{}, &fakeAdmin{})(rec, req)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("%s: expected 404, got %d", path, rec.Code)
			}
		}
	})
}

func TestHandleAdminStats(t *testing.T) {
	t.Run("named period", func(t *testing.T) {
		var got app.StatsInput
		start := time.Date(2025, 2, 22, 12, 0, 0, 0, time.UTC)
		end := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		admin := &fakeAdmin{statsFn: func(in app.StatsInput) (app.StatsResult, error) {
			got = in
			return app.StatsResult{
				Start: start,
				End:   end,
				Stats: domain.PeriodStats{
					TotalOrders:     10,
					CompletedOrders: 4,
					SuccessRate:     40,
					TurnoverUSD:     decimal.RequireFromString("500.00"),
					TurnoverRUB:     decimal.RequireFromString("20056"),
					TotalCommission: decimal.RequireFromString("35.00"),
				},
			}, nil
		}}

		req := httptest.NewRequest(http.MethodGet, "/admin/stats?period=week", nil)
		rec := httptest.NewRecorder()
		HandleAdminStats(admin)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.Period != "week" || got.Start != nil || got.End != nil {
			t.Fatalf("unexpected input: %+v", got)
		}
		var resp statsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.SuccessRate != 40 || resp.TotalOrders != 10 {
			t.Fatalf("unexpected response: %+v", resp)
		}
		if !resp.TurnoverRUB.Equal(decimal.RequireFromString("20056")) {
			t.Fatalf("unexpected turnover: %s", resp.TurnoverRUB)
		}
	})

	t.Run("explicit range is parsed as RFC3339", func(t *testing.T) {
		var got app.StatsInput
		admin := &fakeAdmin{statsFn: func(in app.StatsInput) (app.StatsResult, error) {
			got = in
			return app.StatsResult{}, nil
		}}

		req := httptest.NewRequest(http.MethodGet,
			"/admin/stats?start=2025-01-01T00:00:00Z&end=2025-02-01T00:00:00Z", nil)
		rec := httptest.NewRecorder()
		HandleAdminStats(admin)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.Start == nil || got.End == nil {
			t.Fatalf("expected range forwarded: %+v", got)
		}
	})

	t.Run("malformed timestamps are 400", func(t *testing.T) {
		admin := &fakeAdmin{statsFn: func(app.StatsInput) (app.StatsResult, error) {
			t.Fatal("stats should not be called")
			return app.StatsResult{}, nil
		}}

		req := httptest.NewRequest(http.MethodGet, "/admin/stats?start=yesterday", nil)
		rec := httptest.NewRecorder()
		HandleAdminStats(admin)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown period is 400", func(t *testing.T) {
		admin := &fakeAdmin{statsFn: func(app.StatsInput) (app.StatsResult, error) {
			return app.StatsResult{}, domain.ErrInvalidPeriod
		}}

		req := httptest.NewRequest(http.MethodGet, "/admin/stats?period=year", nil)
		rec := httptest.NewRecorder()
		HandleAdminStats(admin)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
