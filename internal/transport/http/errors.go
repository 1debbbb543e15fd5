package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "charmcli/internal/errors"
	"charmcli/internal/middleware"
	"charmcli/internal/operations"
)

// toAPIError maps pipeline errors onto API errors
func toAPIError(err error) *apperrors.APIError {
	switch {
	case errors.Is(err, operations.ErrRunInProgress):
		return apperrors.NewWithDetails(http.StatusConflict, apperrors.ErrRunInProgress.ErrorCode,
			apperrors.ErrRunInProgress.Message, err.Error())
	case errors.Is(err, operations.ErrRunNotCancellable):
		return apperrors.NewWithDetails(http.StatusConflict, "RUN_NOT_CANCELLABLE", err.Error(), nil)
	case errors.Is(err, operations.ErrRunNotFound):
		return apperrors.ErrRunNotFound
	}

	var opErr *operations.OperationError
	if !errors.As(err, &opErr) {
		return apperrors.FromAppError(err)
	}
	switch opErr.Type {
	case operations.ErrorTypeValidation:
		return apperrors.NewValidationError(opErr.Error())
	case operations.ErrorTypeNotFound:
		return apperrors.NotFoundError("step " + opErr.Step)
	case operations.ErrorTypeDependency:
		return apperrors.NewWithDetails(http.StatusConflict, "DEPENDENCY_MISSING", opErr.Error(), opErr.Context)
	default:
		return apperrors.FromAppError(err)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	middleware.WriteProblem(w, r, middleware.ProblemFromAPIError(apiErr, middleware.GetRequestID(r.Context())))
}
