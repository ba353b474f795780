package handlers

import (
	"context"
	"errors"
	"net/http"

	"marketplace-client/internal/domain"
)

// StatusFor maps an error kind onto the mirror's HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidationRejected):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuction), errors.Is(err, domain.ErrNoActiveListing):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTransportUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrReconcilerStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func ErrorResponse(err error) map[string]string {
	body := map[string]string{"error": domain.Reason(err)}
	if kind := domain.KindOf(err); kind != nil {
		body["kind"] = kind.Error()
	}
	return body
}
