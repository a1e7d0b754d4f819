package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paydesk/api/internal/domain"
	"github.com/shopspring/decimal"
)

// UserQueries is the minimal interface needed for owner history endpoints.
type UserQueries interface {
	UserOrders(ctx context.Context, ownerID int64, limit, offset int) ([]domain.Order, error)
	UserStats(ctx context.Context, ownerID int64) (domain.UserStats, error)
}

// HandleUsers routes /users/{owner}/orders and /users/{owner}/stats.
func HandleUsers(svc UserQueries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, resource, ok := parseUserPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		switch resource {
		case "orders":
			limit := queryInt(r, "limit")
			offset := queryInt(r, "offset")
			orders, err := svc.UserOrders(r.Context(), ownerID, limit, offset)
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toOrderResponses(orders))

		case "stats":
			stats, err := svc.UserStats(r.Context(), ownerID)
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, userStatsResponse{
				OwnerID:          ownerID,
				CompletedCount:   stats.CompletedCount,
				TotalSpent:       stats.TotalSpent,
				FirstCompletedAt: stats.FirstCompletedAt,
				LastCompletedAt:  stats.LastCompletedAt,
			})

		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

type userStatsResponse struct {
	OwnerID          int64           `json:"owner_id"`
	CompletedCount   int64           `json:"completed_count"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	FirstCompletedAt *time.Time      `json:"first_completed_at,omitempty"`
	LastCompletedAt  *time.Time      `json:"last_completed_at,omitempty"`
}

func parseUserPath(path string) (int64, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "users" {
		return 0, "", false
	}
	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || ownerID <= 0 {
		return 0, "", false
	}
	return ownerID, parts[2], true
}

func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
