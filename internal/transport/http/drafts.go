package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/paydesk/api/internal/app"
	"github.com/paydesk/api/internal/domain"
	"github.com/shopspring/decimal"
)

// OrderCreator is the subset of the workflow that draft submission needs.
type OrderCreator interface {
	Create(ctx context.Context, in app.CreateOrderInput) (domain.Order, error)
}

// HandleDrafts routes /drafts/{owner} and its field endpoints. Drafts gather
// the order fields one call at a time; submit hands the completed draft to
// the workflow. A submit that fails puts the draft back.
func HandleDrafts(store *app.DraftStore, orders OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, action, ok := parseDraftPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch action {
		case "":
			switch r.Method {
			case http.MethodGet:
				draft, ok := store.Get(ownerID)
				if !ok {
					writeError(w, http.StatusNotFound, codeNotFound, "no draft")
					return
				}
				writeJSON(w, http.StatusOK, toDraftResponse(draft))
			case http.MethodDelete:
				store.Clear(ownerID)
				w.WriteHeader(http.StatusNoContent)
			default:
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			}

		case "service":
			if r.Method != http.MethodPut {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			var req draftServiceRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			draft, err := store.SetService(ownerID, req.Service)
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toDraftResponse(draft))

		case "amount":
			if r.Method != http.MethodPut {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			var req draftAmountRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			amount, err := decimal.NewFromString(req.Amount)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidAmount, "amount must be a decimal number")
				return
			}
			draft, err := store.SetAmount(ownerID, amount)
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toDraftResponse(draft))

		case "submit":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			draft, err := store.Take(ownerID)
			if err != nil {
				respondError(w, err)
				return
			}
			order, err := orders.Create(r.Context(), app.CreateOrderInput{
				OwnerID:      ownerID,
				ServiceLabel: draft.ServiceLabel,
				BaseAmount:   draft.BaseAmount,
			})
			if err != nil {
				store.Put(draft)
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toOrderResponse(order))

		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

type draftServiceRequest struct {
	Service string `json:"service"`
}

type draftAmountRequest struct {
	Amount string `json:"amount"`
}

type draftResponse struct {
	OwnerID    int64            `json:"owner_id"`
	Service    string           `json:"service,omitempty"`
	BaseAmount *decimal.Decimal `json:"base_amount,omitempty"`
	Complete   bool             `json:"complete"`
}

func toDraftResponse(draft app.Draft) draftResponse {
	resp := draftResponse{
		OwnerID:  draft.OwnerID,
		Service:  draft.ServiceLabel,
		Complete: draft.Complete(),
	}
	if draft.AmountSet {
		amount := draft.BaseAmount
		resp.BaseAmount = &amount
	}
	return resp
}

func parseDraftPath(path string) (int64, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "drafts" {
		return 0, "", false
	}
	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || ownerID <= 0 {
		return 0, "", false
	}
	if len(parts) == 2 {
		return ownerID, "", true
	}
	return ownerID, parts[2], true
}
