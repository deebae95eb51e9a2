package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/forgo/guildhall/api/internal/model"
	"github.com/forgo/guildhall/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Service errors wrap one of three kinds, so matching on the kind covers
// every specific error in the family.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch {
	// ===== Not Found → 404 =====
	case errors.Is(err, service.ErrGuildNotFound):
		return model.NewNotFoundError("guild")
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrPartnerNotFound):
		return model.NewNotFoundError("partner")
	case errors.Is(err, service.ErrNotFound):
		return model.NewNotFoundError(err.Error())

	// ===== Conflict → 409 =====
	case errors.Is(err, service.ErrConflict):
		return model.NewConflictError(err.Error())

	// ===== Bad Request → 400 =====
	case errors.Is(err, service.ErrBadRequest):
		return model.NewBadRequestError(err.Error())

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// writeServiceError maps err and logs anything that is not a caller error
func writeServiceError(w http.ResponseWriter, operation string, err error) {
	pd := MapServiceError(err)
	if pd.Status >= 500 {
		slog.Error("request failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		pd.Detail = operation + ": an unexpected error occurred"
	}
	WriteError(w, pd)
}
