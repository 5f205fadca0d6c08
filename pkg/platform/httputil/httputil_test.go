package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal" {
			t.Fatalf("expected error code internal, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("invalid input includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "owner key is malformed"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "invalid_input" {
			t.Fatalf("expected error code invalid_input, got %q", body["error"])
		}
		if body["error_description"] != "owner key is malformed" {
			t.Fatalf("expected error_description to be returned, got %q", body["error_description"])
		}
	})

	t.Run("non-domain errors map to internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, http.ErrBodyNotAllowed)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeAlreadyExists:         http.StatusConflict,
		dErrors.CodeNotFound:              http.StatusNotFound,
		dErrors.CodeNotOwner:              http.StatusForbidden,
		dErrors.CodeInvalidAuthorization:  http.StatusForbidden,
		dErrors.CodeClawbackDisabled:      http.StatusForbidden,
		dErrors.CodeNotManagedTreasury:    http.StatusConflict,
		dErrors.CodeCannotClawbackManaged: http.StatusConflict,
		dErrors.CodeInsufficientBalance:   http.StatusUnprocessableEntity,
		dErrors.CodeSupplyMustBeZero:      http.StatusUnprocessableEntity,
		dErrors.CodeInvariantViolation:    http.StatusUnprocessableEntity,
		dErrors.CodeInvalidInput:          http.StatusBadRequest,
		dErrors.CodeTimeout:               http.StatusGatewayTimeout,
		dErrors.CodeInternal:              http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := ToHTTPStatus(code); got != want {
			t.Errorf("code %s: expected %d, got %d", code, want, got)
		}
	}
}
