package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/paydesk/api/internal/app"
	"github.com/paydesk/api/internal/domain"
	"github.com/shopspring/decimal"
)

// OrderWorkflow is the minimal interface needed for owner-facing order endpoints.
type OrderWorkflow interface {
	Create(ctx context.Context, in app.CreateOrderInput) (domain.Order, error)
	Order(ctx context.Context, id string) (domain.Order, error)
	SelectMethod(ctx context.Context, in app.SelectMethodInput) (app.SelectMethodResult, error)
	MarkPaid(ctx context.Context, orderID string) (domain.Order, error)
	Cancel(ctx context.Context, orderID string) (domain.Order, error)
}

// HandleCreateOrder returns an HTTP handler for opening orders.
func HandleCreateOrder(svc OrderWorkflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.OwnerID <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidOwnerID, "owner_id is required")
			return
		}
		amount, err := decimal.NewFromString(req.BaseAmount)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidAmount, "base_amount must be a decimal number")
			return
		}

		order, err := svc.Create(r.Context(), app.CreateOrderInput{
			OwnerID:      req.OwnerID,
			ServiceLabel: req.Service,
			BaseAmount:   amount,
		})
		if err != nil {
			respondError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toOrderResponse(order))
	}
}

// HandleOrder routes /orders/{id} and /orders/{id}/{action}.
func HandleOrder(svc OrderWorkflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, action, ok := parseOrderPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch action {
		case "":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			order, err := svc.Order(r.Context(), id)
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toOrderResponse(order))

		case "method":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			var req selectMethodRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			res, err := svc.SelectMethod(r.Context(), app.SelectMethodInput{
				OrderID: id,
				Method:  domain.PaymentMethod(req.Method),
			})
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, selectMethodResponse{
				Order:      toOrderResponse(res.Order),
				Requisites: res.Requisites,
			})

		case "paid":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			order, err := svc.MarkPaid(r.Context(), id)
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toOrderResponse(order))

		case "cancel":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			order, err := svc.Cancel(r.Context(), id)
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

type createOrderRequest struct {
	OwnerID    int64  `json:"owner_id"`
	Service    string `json:"service"`
	BaseAmount string `json:"base_amount"`
}

type selectMethodRequest struct {
	Method string `json:"method"`
}

type selectMethodResponse struct {
	Order      orderResponse `json:"order"`
	Requisites string        `json:"requisites"`
}

type orderResponse struct {
	ID                 string           `json:"id"`
	OwnerID            int64            `json:"owner_id"`
	Service            string           `json:"service"`
	BaseAmount         decimal.Decimal  `json:"base_amount"`
	CommissionRate     decimal.Decimal  `json:"commission_rate"`
	CommissionAmount   decimal.Decimal  `json:"commission_amount"`
	TotalAmount        decimal.Decimal  `json:"total_amount"`
	PaymentMethod      string           `json:"payment_method,omitempty"`
	SettlementAmount   *decimal.Decimal `json:"settlement_amount,omitempty"`
	SettlementCurrency string           `json:"settlement_currency,omitempty"`
	Status             string           `json:"status"`
	CreatedAt          time.Time        `json:"created_at"`
	PaidAt             *time.Time       `json:"paid_at,omitempty"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:               order.ID,
		OwnerID:          order.OwnerID,
		Service:          order.ServiceLabel,
		BaseAmount:       order.BaseAmount,
		CommissionRate:   order.CommissionRate,
		CommissionAmount: order.CommissionAmount,
		TotalAmount:      order.TotalAmount,
		Status:           string(order.Status),
		CreatedAt:        order.CreatedAt,
		PaidAt:           order.PaidAt,
		CompletedAt:      order.CompletedAt,
	}
	if order.MethodSelected() {
		resp.PaymentMethod = string(order.PaymentMethod)
		amount := order.SettlementAmount
		resp.SettlementAmount = &amount
		resp.SettlementCurrency = order.SettlementCurrency
	}
	return resp
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	resp := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toOrderResponse(order))
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseOrderPath(path string) (string, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "orders" || parts[1] == "" {
		return "", "", false
	}
	if len(parts) == 2 {
		return parts[1], "", true
	}
	return parts[1], parts[2], true
}
