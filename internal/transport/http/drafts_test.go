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
	"github.com/paydesk/api/internal/clock"
	"github.com/paydesk/api/internal/domain"
	"github.com/shopspring/decimal"
)

type fakeCreator struct {
	createFn func(in app.CreateOrderInput) (domain.Order, error)
}

func (f *fakeCreator) Create(_ context.Context, in app.CreateOrderInput) (domain.Order, error) {
	return f.createFn(in)
}

func newDraftStore() *app.DraftStore {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return app.NewDraftStore(15*time.Minute, clock.NewFixed(now))
}

func TestHandleDrafts(t *testing.T) {
	t.Run("fields accumulate and submit creates the order", func(t *testing.T) {
		store := newDraftStore()
		var got app.CreateOrderInput
		creator := &fakeCreator{createFn: func(in app.CreateOrderInput) (domain.Order, error) {
			got = in
			return sampleOrder(), nil
		}}
		handler := HandleDrafts(store, creator)

		req := httptest.NewRequest(http.MethodPut, "/drafts/7/service",
			strings.NewReader(`{"service":"netflix.com"}`))
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("service: expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var draft draftResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &draft)
		if draft.Complete {
			t.Fatalf("expected draft incomplete after one field")
		}

		req = httptest.NewRequest(http.MethodPut, "/drafts/7/amount",
			strings.NewReader(`{"amount":"30.00"}`))
		rec = httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("amount: expected 200, got %d", rec.Code)
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &draft)
		if !draft.Complete {
			t.Fatalf("expected draft complete")
		}

		req = httptest.NewRequest(http.MethodPost, "/drafts/7/submit", nil)
		rec = httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit: expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.OwnerID != 7 || got.ServiceLabel != "netflix.com" {
			t.Fatalf("unexpected create input: %+v", got)
		}
		if !got.BaseAmount.Equal(decimal.RequireFromString("30.00")) {
			t.Fatalf("unexpected amount: %s", got.BaseAmount)
		}

		// Draft is consumed.
		req = httptest.NewRequest(http.MethodGet, "/drafts/7", nil)
		rec = httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 after submit, got %d", rec.Code)
		}
	})

	t.Run("incomplete submit conflicts and keeps the draft", func(t *testing.T) {
		store := newDraftStore()
		handler := HandleDrafts(store, &fakeCreator{createFn: func(app.CreateOrderInput) (domain.Order, error) {
			t.Fatal("create should not be called")
			return domain.Order{}, nil
		}})

		req := httptest.NewRequest(http.MethodPut, "/drafts/7/service",
			strings.NewReader(`{"service":"netflix.com"}`))
		handler(httptest.NewRecorder(), req)

		req = httptest.NewRequest(http.MethodPost, "/drafts/7/submit", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}

		req = httptest.NewRequest(http.MethodGet, "/drafts/7", nil)
		rec = httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected draft kept, got %d", rec.Code)
		}
	})

	t.Run("failed create restores the draft", func(t *testing.T) {
		store := newDraftStore()
		handler := HandleDrafts(store, &fakeCreator{createFn: func(app.CreateOrderInput) (domain.Order, error) {
			return domain.Order{}, &domain.ActiveOrderError{OrderID: "ord-blocking"}
		}})

		for _, step := range []struct{ method, path, body string }{
			{http.MethodPut, "/drafts/7/service", `{"service":"netflix.com"}`},
			{http.MethodPut, "/drafts/7/amount", `{"amount":"30.00"}`},
		} {
			req := httptest.NewRequest(step.method, step.path, strings.NewReader(step.body))
			handler(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest(http.MethodPost, "/drafts/7/submit", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}

		req = httptest.NewRequest(http.MethodGet, "/drafts/7", nil)
		rec = httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected draft restored, got %d", rec.Code)
		}
		var draft draftResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &draft)
		if !draft.Complete {
			t.Fatalf("expected restored draft still complete")
		}
	})

	t.Run("delete clears the draft", func(t *testing.T) {
		store := newDraftStore()
		handler := HandleDrafts(store, &fakeCreator{})

		req := httptest.NewRequest(http.MethodPut, "/drafts/7/service",
			strings.NewReader(`{"service":"netflix.com"}`))
		handler(httptest.NewRecorder(), req)

		req = httptest.NewRequest(http.MethodDelete, "/drafts/7", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}

		req = httptest.NewRequest(http.MethodGet, "/drafts/7", nil)
		rec = httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("validation errors map to 400", func(t *testing.T) {
		store := newDraftStore()
		handler := HandleDrafts(store, &fakeCreator{})

		cases := []struct{ path, body, code string }{
			{"/drafts/7/service", `{"service":"  "}`, codeServiceRequired},
			{"/drafts/7/amount", `{"amount":"-5"}`, codeInvalidAmount},
			{"/drafts/7/amount", `{"amount":"lots"}`, codeInvalidAmount},
		}
		for _, tc := range cases {
			req := httptest.NewRequest(http.MethodPut, tc.path, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("%s: expected 400, got %d", tc.body, rec.Code)
			}
			var resp errorResponse
			_ = json.Unmarshal(rec.Body.Bytes(), &resp)
			if resp.Code != tc.code {
				t.Fatalf("%s: expected code %s, got %s", tc.body, tc.code, resp.Code)
			}
		}
	})

	t.Run("bad owner ids are 404", func(t *testing.T) {
		handler := HandleDrafts(newDraftStore(), &fakeCreator{})
		for _, path := range []string{"/drafts/abc", "/drafts/0", "/drafts/-2/service"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("%s: expected 404, got %d", path, rec.Code)
			}
		}
	})
}
