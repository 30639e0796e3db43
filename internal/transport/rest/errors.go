package rest

import (
	"log/slog"
	"net/http"

	inverrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/pkg/web"
)

// statusFor maps a service error to the response status: 404 for a missing record,
// 400 for a rejected stock movement and 500 for everything else.
func statusFor(err error) int {
	switch {
	case inverrors.IsNotFound(err):
		return http.StatusNotFound
	case inverrors.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError logs err and writes the mapped status. Client errors carry message,
// server errors carry failMsg.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, message, failMsg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), failMsg, "error", err)
		web.RespondError(w, logger, status, failMsg)
		return
	}
	logger.WarnContext(r.Context(), message, "error", err)
	web.RespondError(w, logger, status, message)
}
