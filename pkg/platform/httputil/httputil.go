// Package httputil centralizes JSON response writing so every handler emits
// the same envelopes and the same error-code-to-status translation.
package httputil

import (
	"encoding/json"
	"net/http"

	"juristrack/pkg/procerrors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded error into an HTTP error envelope.
// Internal errors omit the description so store/file details never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := procerrors.CodeOf(err)
	status := toHTTPStatus(code)

	body := map[string]string{"error": string(code)}
	if status < http.StatusInternalServerError {
		body["error_description"] = err.Error()
	}
	WriteJSON(w, status, body)
}

func toHTTPStatus(code procerrors.Code) int {
	switch code {
	case procerrors.CodeBadRequest:
		return http.StatusBadRequest
	case procerrors.CodeNotFound:
		return http.StatusNotFound
	case procerrors.CodeLookup:
		return http.StatusBadGateway
	case procerrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case procerrors.CodeSourceFormat:
		return http.StatusUnprocessableEntity
	default:
		// configuration, cache_build and internal all surface as 500.
		return http.StatusInternalServerError
	}
}
