package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// SettingsStore is the key/value vault for operator-managed settings, chiefly
// the payout requisites per payment method.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// HandleAdminSettings routes GET and PUT /admin/settings/{key}.
func HandleAdminSettings(store SettingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := parseSettingsPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			value, err := store.Get(r.Context(), key)
			if err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: value})

		case http.MethodPut:
			var req settingRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if err := store.Set(r.Context(), key, req.Value); err != nil {
				respondError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: req.Value})

		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

type settingRequest struct {
	Value string `json:"value"`
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func parseSettingsPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "admin" || parts[1] != "settings" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
