package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paydesk/api/internal/app"
	"github.com/paydesk/api/internal/domain"
	"github.com/shopspring/decimal"
)

// AdminQueries is the minimal interface needed for operator list/stats endpoints.
type AdminQueries interface {
	ListOrders(ctx context.Context, in app.ListOrdersInput) ([]domain.Order, error)
	ReviewQueue(ctx context.Context) ([]domain.Order, error)
	Stats(ctx context.Context, in app.StatsInput) (app.StatsResult, error)
}

// OrderResolver is the operator decision on an order awaiting review.
type OrderResolver interface {
	Resolve(ctx context.Context, in app.ResolveInput) (domain.Order, error)
}

// OperatorOnly rejects requests whose X-Operator-ID header is missing or not
// on the configured allow-list.
func OperatorOnly(operatorIDs []int64, next http.Handler) http.Handler {
	allowed := make(map[int64]struct{}, len(operatorIDs))
	for _, id := range operatorIDs {
		allowed[id] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get("X-Operator-ID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusForbidden, codeForbidden, "forbidden")
			return
		}
		if _, ok := allowed[id]; !ok {
			writeError(w, http.StatusForbidden, codeForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleAdminOrders routes /admin/orders, /admin/orders/review and
// /admin/orders/{id}/resolve.
func HandleAdminOrders(queries AdminQueries, resolver OrderResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, action, ok := parseAdminOrdersPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch action {
		case "list":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			orders, err := queries.ListOrders(r.Context(), app.ListOrdersInput{
				Status: r.URL.Query().Get("status"),
				Limit:  queryInt(r, "limit"),
				Offset: queryInt(r, "offset"),
			})
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toOrderResponses(orders))

		case "review":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			orders, err := queries.ReviewQueue(r.Context())
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toOrderResponses(orders))

		case "resolve":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			var req resolveRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			order, err := resolver.Resolve(r.Context(), app.ResolveInput{
				OrderID: id,
				Target:  domain.Status(req.Status),
			})
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toOrderResponse(order))

		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

// HandleAdminStats serves /admin/stats with either a named period or an
// explicit start/end pair.
func HandleAdminStats(queries AdminQueries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		in := app.StatsInput{Period: r.URL.Query().Get("period")}
		for _, bound := range []struct {
			key  string
			dest **time.Time
		}{
			{"start", &in.Start},
			{"end", &in.End},
		} {
			raw := r.URL.Query().Get(bound.key)
			if raw == "" {
				continue
			}
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidPeriod, "start and end must be RFC3339 timestamps")
				return
			}
			*bound.dest = &parsed
		}

		res, err := queries.Stats(r.Context(), in)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{
			Start:           res.Start,
			End:             res.End,
			TotalOrders:     res.Stats.TotalOrders,
			CompletedOrders: res.Stats.CompletedOrders,
			SuccessRate:     res.Stats.SuccessRate,
			TurnoverUSD:     res.Stats.TurnoverUSD,
			TurnoverRUB:     res.Stats.TurnoverRUB,
			TotalCommission: res.Stats.TotalCommission,
		})
	}
}

type resolveRequest struct {
	Status string `json:"status"`
}

type statsResponse struct {
	Start           time.Time       `json:"start"`
	End             time.Time       `json:"end"`
	TotalOrders     int64           `json:"total_orders"`
	CompletedOrders int64           `json:"completed_orders"`
	SuccessRate     float64         `json:"success_rate"`
	TurnoverUSD     decimal.Decimal `json:"turnover_usd"`
	TurnoverRUB     decimal.Decimal `json:"turnover_rub"`
	TotalCommission decimal.Decimal `json:"total_commission"`
}

// parseAdminOrdersPath distinguishes the list, review and resolve routes.
// The returned action is "list", "review" or "resolve"; id is set only for
// resolve.
func parseAdminOrdersPath(path string) (string, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] != "admin" || parts[1] != "orders" {
		return "", "", false
	}
	switch len(parts) {
	case 2:
		return "", "list", true
	case 3:
		if parts[2] == "review" {
			return "", "review", true
		}
		return "", "", false
	case 4:
		if parts[3] != "resolve" || parts[2] == "" {
			return "", "", false
		}
		return parts[2], "resolve", true
	default:
		return "", "", false
	}
}
