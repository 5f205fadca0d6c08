// Package httputil centralizes JSON encoding and domain error translation
// for the HTTP layer, keeping handlers free of status-mapping logic.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
)

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors omit the description so infrastructure detail never
// leaks to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		body["error_description"] = de.Message
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}

// ToHTTPStatus maps a domain error code to its HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeAlreadyExists, dErrors.CodeNotManagedTreasury, dErrors.CodeCannotClawbackManaged:
		return http.StatusConflict
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeNotOwner, dErrors.CodeInvalidAuthorization, dErrors.CodeClawbackDisabled:
		return http.StatusForbidden
	case dErrors.CodeInsufficientBalance, dErrors.CodeSupplyMustBeZero, dErrors.CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Decode parses the JSON request body into T, writing the 400 response
// itself when the body is malformed.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		var zero T
		return zero, false
	}
	return req, true
}
