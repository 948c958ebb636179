package http

import (
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/lorrc/ops-console-engine/internal/adapters/primary/http/middleware"
	apperrors "github.com/lorrc/ops-console-engine/internal/core/errors"
)

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, response := h.mapError(err)
	h.logError(r, statusCode, err)
	WriteJSON(w, statusCode, response)
}

func (h *ErrorHandler) mapError(err error) (int, ErrorResponse) {
	// Gateway failures carry their own taxonomy.
	var gwErr *apperrors.GatewayError
	if errors.As(err, &gwErr) {
		switch gwErr.Kind {
		case apperrors.KindUnauthorized:
			return http.StatusUnauthorized, ErrorResponse{Error: gwErr.Message, Code: "UNAUTHORIZED"}
		case apperrors.KindTransport:
			return http.StatusBadGateway, ErrorResponse{Error: gwErr.Message, Code: "UPSTREAM_UNREACHABLE"}
		default:
			status := gwErr.StatusCode
			if status < 400 {
				status = http.StatusBadGateway
			}
			return status, ErrorResponse{Error: gwErr.Message, Code: "UPSTREAM_REJECTED"}
		}
	}

	// Field edits report a per-field message alongside the rollback.
	var fieldErr *apperrors.FieldError
	if errors.As(err, &fieldErr) {
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: fieldErr.Message,
			Code:  "FIELD_ERROR",
			Field: fieldErr.Field,
		}
	}

	switch {
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, ErrorResponse{Error: "Session expired", Code: "UNAUTHORIZED"}

	case errors.Is(err, apperrors.ErrTicketNotFound), errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Not found", Code: "NOT_FOUND"}

	case errors.Is(err, apperrors.ErrNoSelection):
		return http.StatusConflict, ErrorResponse{Error: "No ticket is open for editing", Code: "NO_SELECTION"}

	case errors.Is(err, apperrors.ErrInvalidStatus),
		errors.Is(err, apperrors.ErrInvalidPriority),
		errors.Is(err, apperrors.ErrInvalidCategory),
		errors.Is(err, apperrors.ErrInvalidField),
		errors.Is(err, apperrors.ErrCommentTextRequired),
		errors.Is(err, apperrors.ErrThreadRequired),
		errors.Is(err, apperrors.ErrReplyRequired),
		errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "BAD_REQUEST"}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: "An unexpected error occurred",
		Code:  "INTERNAL_ERROR",
	}
}

func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error) {
	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"request_id", mw.GetRequestID(r.Context()),
		"error", err,
	}
	if statusCode >= 500 {
		h.logger.Error("request error", attrs...)
	} else {
		h.logger.Warn("request error", attrs...)
	}
}
