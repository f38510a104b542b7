package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

func TestCheckoutRejectsNonPost(t *testing.T) {
	h := NewSubscriptionHandler(nil, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		h.Checkout(rec, authedRequest(method, "/subscriptions/checkout"))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s /subscriptions/checkout: expected 404, got %d", method, rec.Code)
		}
	}
}
