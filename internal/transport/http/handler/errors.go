package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spendsmart-api/internal/domain"
	"github.com/spendsmart-api/internal/pkg/validate"
)

// httpError maps a service error to its HTTP status. Unmapped errors are logged
// and reported as a generic 500 so infrastructure details never reach the client.
func httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrBadRequest),
		errors.Is(err, domain.ErrInvalidOrExpiredCode),
		errors.Is(err, domain.ErrNoPendingWorkflow):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateRequest):
		status = http.StatusTooManyRequests
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// decode reads a JSON body into dst and runs its validate tags.
// It writes the error response itself and reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}
