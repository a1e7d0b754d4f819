package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/paydesk/api/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidOwnerID     = "invalid_owner_id"
	codeInvalidAmount      = "invalid_amount"
	codeInvalidMethod      = "invalid_payment_method"
	codeServiceRequired    = "service_required"
	codeInvalidStatus      = "invalid_status"
	codeInvalidPeriod      = "invalid_period"
	codeInvalidID          = "invalid_id"
	codeOrderNotFound      = "order_not_found"
	codeActiveOrderExists  = "active_order_exists"
	codeInvalidTransition  = "invalid_transition"
	codeMethodAlreadySet   = "method_already_set"
	codeMethodNotSelected  = "method_not_selected"
	codeDraftIncomplete    = "draft_incomplete"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	OrderID string `json:"order_id,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// respondError maps service errors onto HTTP statuses. Handlers call it after
// their own request-shape checks.
func respondError(w http.ResponseWriter, err error) {
	var active *domain.ActiveOrderError
	if errors.As(err, &active) {
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error:   err.Error(),
			Code:    codeActiveOrderExists,
			OrderID: active.OrderID,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusNotFound, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrMethodAlreadySet):
		writeError(w, http.StatusConflict, codeMethodAlreadySet, err.Error())
	case errors.Is(err, domain.ErrMethodNotSelected):
		writeError(w, http.StatusConflict, codeMethodNotSelected, err.Error())
	case errors.Is(err, domain.ErrDraftIncomplete):
		writeError(w, http.StatusConflict, codeDraftIncomplete, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, codeInvalidAmount, err.Error())
	case errors.Is(err, domain.ErrInvalidMethod):
		writeError(w, http.StatusBadRequest, codeInvalidMethod, err.Error())
	case errors.Is(err, domain.ErrServiceRequired):
		writeError(w, http.StatusBadRequest, codeServiceRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
	case errors.Is(err, domain.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, codeInvalidPeriod, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
