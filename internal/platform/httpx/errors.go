// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors mapped to HTTP statuses by RespondError.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("service unavailable")
)

// StatusFor returns the HTTP status and title RespondError uses for err.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "Validation Failed"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "Service Unavailable"
	default:
		return http.StatusInternalServerError, "Internal Error"
	}
}

// RespondError maps err to an RFC7807 response. Internal errors never leak
// their message to the client.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	status, title := StatusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = ""
	}
	Problem(w, r, status, title, detail)
}
