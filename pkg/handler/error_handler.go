package handler

import (
	"errors"
	"log/slog"
	"maps"
	"net/http"

	"github.com/dmitrymomot/tenantkit/pkg/binder"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/requestid"
)

// ErrorInfo is the response-facing classification of an error.
type ErrorInfo struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string][]string
}

// Classify maps err to a status and message. HTTPError and ValidationError
// keep their meaning, binder failures are client errors, and anything else
// becomes a 500 without leaking err's text.
func Classify(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrInternalServer.Key,
		Message:    http.StatusText(http.StatusInternalServerError),
	}

	var validationErr ValidationError
	if errors.As(err, &validationErr) {
		info.StatusCode = http.StatusUnprocessableEntity
		info.Code = "validation_error"
		info.Message = validationErr.Error()
		info.Details = maps.Clone(map[string][]string(validationErr))
		return info
	}

	switch {
	case errors.Is(err, binder.ErrBodyTooLarge):
		return ErrorInfo{StatusCode: http.StatusRequestEntityTooLarge, Code: "body_too_large", Message: err.Error()}
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return ErrorInfo{StatusCode: http.StatusUnsupportedMediaType, Code: "unsupported_media_type", Message: err.Error()}
	case errors.Is(err, binder.ErrInvalidJSON):
		return ErrorInfo{StatusCode: http.StatusBadRequest, Code: "invalid_request", Message: err.Error()}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		info.StatusCode = httpErr.Code
		info.Code = httpErr.Key
		info.Message = httpErr.Message
		if info.Message == "" {
			info.Message = http.StatusText(httpErr.Code)
		}
	}
	return info
}

// ErrorMapper translates domain errors into HTTP errors.
type ErrorMapper func(err error) (HTTPError, bool)

// NewErrorHandler returns a JSON error handler. Mappers run in order before
// classification; client errors are logged at warn level, server errors at
// error level.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(ctx Context, err error) {
		for _, m := range mappers {
			if httpErr, ok := m(err); ok {
				err = errors.Join(httpErr, err)
				break
			}
		}
		info := Classify(err)

		level := slog.LevelError
		if info.StatusCode < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		r := ctx.Request()
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", info.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if renderErr := JSONError(err).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(renderErr))
		}
	}
}
