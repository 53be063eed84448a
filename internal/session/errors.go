package session

import (
	"errors"
	"net/http"
)

// Registry operations fail with exactly one of these sentinels, possibly
// wrapped. Transports map them and never invent their own codes.
var (
	ErrValidation  = errors.New("validation")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("not_found")
	ErrConflict    = errors.New("conflict")
	ErrNotYourTurn = errors.New("not_your_turn")
	ErrInternal    = errors.New("internal")
)

// HTTPStatus maps a registry error to an HTTP status and a wire code.
func HTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, ErrValidation.Error()
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, ErrForbidden.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrNotFound.Error()
	case errors.Is(err, ErrNotYourTurn):
		return http.StatusConflict, ErrNotYourTurn.Error()
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, ErrConflict.Error()
	default:
		return http.StatusInternalServerError, ErrInternal.Error()
	}
}

// Code extracts the wire code alone, for event payloads.
func Code(err error) string {
	_, code := HTTPStatus(err)
	return code
}
