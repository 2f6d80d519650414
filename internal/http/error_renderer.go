package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/itsAR-VR/Community-Intellect-sub001/internal/errors"
)

// ErrorOpts contains everything needed to render a service error as JSON.
type ErrorOpts struct {
	W http.ResponseWriter
	R *http.Request
	// Err is the error returned by the service layer.
	Err error
	// FallbackCode is the error code used for unclassified failures, e.g. "list_failed".
	FallbackCode string
	// Logger receives 5xx failures (optional).
	Logger *slog.Logger
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// DetermineErrorStatus maps an error onto an HTTP status and a stable error code.
// Database errors are classified through apperrors.MapDBError first.
func DetermineErrorStatus(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	mapped := apperrors.MapDBError(err)
	switch apperrors.GetCode(mapped) {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound, "not_found"
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest, "validation_failed"
	case apperrors.ErrCodeConflict:
		return http.StatusConflict, "conflict"
	case apperrors.ErrCodeForeignKey:
		return http.StatusConflict, "in_use"
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden, "forbidden"
	case apperrors.ErrCodeUnavailable, apperrors.ErrCodeCanceled:
		return http.StatusServiceUnavailable, "unavailable"
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, ""
	}
}

// RenderError writes err as a JSON error response. Client errors carry the
// service message; server errors hide it behind a generic message and are logged.
func RenderError(opts ErrorOpts) {
	if opts.Err == nil {
		opts.Err = errors.New("unknown error")
	}
	status, code := DetermineErrorStatus(opts.Err)
	mapped := apperrors.MapDBError(opts.Err)
	body := errorBody{Error: code, Message: clientMessage(mapped, opts.Err), Field: apperrors.GetField(mapped)}
	if status >= http.StatusInternalServerError {
		body.Message = http.StatusText(status)
		if code == "" {
			body.Error = opts.FallbackCode
			if body.Error == "" {
				body.Error = "internal_error"
			}
		}
		if opts.Logger != nil && opts.R != nil {
			opts.Logger.ErrorContext(opts.R.Context(), "request failed",
				slog.String("method", opts.R.Method),
				slog.String("path", opts.R.URL.Path),
				slog.Any("error", opts.Err))
		}
	}
	WriteJSON(opts.W, status, body)
}

// clientMessage prefers the AppError message over the full wrapped chain.
func clientMessage(mapped, err error) string {
	var appErr *apperrors.AppError
	if errors.As(mapped, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
