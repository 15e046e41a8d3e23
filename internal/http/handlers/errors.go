package handlers

import (
	"errors"
	"net/http"

	"passportsheet/internal/domain"
	"passportsheet/internal/middleware"
	"passportsheet/internal/passport"
	"passportsheet/internal/photo"
	"passportsheet/internal/providers/genai"
)

// fail maps a domain error to its HTTP status, error code and localized
// message. fallbackKey selects the message for encoding failures.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error, fallbackKey string) {
	locale := middleware.LocaleFromContext(r.Context())
	status, code, key := http.StatusInternalServerError, "internal", msgInternal
	var detail string

	var remote *genai.RemoteServiceError
	switch {
	case errors.Is(err, passport.ErrNoSource):
		status, code, key = http.StatusBadRequest, "no_photo", msgNoPhoto
	case errors.Is(err, passport.ErrInvalidCount):
		status, code, key = http.StatusBadRequest, "invalid_count", msgInvalidCount
	case errors.Is(err, genai.ErrMissingCredential):
		status, code, key = http.StatusBadRequest, "missing_credential", msgMissingCredential
	case errors.Is(err, photo.ErrUnsupportedType):
		status, code, key = http.StatusUnprocessableEntity, "unsupported_type", msgUnsupportedType
	case errors.Is(err, photo.ErrTooLarge):
		status, code, key = http.StatusUnprocessableEntity, "too_large", msgTooLarge
	case errors.Is(err, domain.ErrPrecondition):
		status, code, key = http.StatusBadRequest, "precondition_failed", msgInvalidPayload
	case errors.Is(err, domain.ErrEncoding):
		status, code, key = http.StatusUnprocessableEntity, "encoding_error", fallbackKey
	case errors.Is(err, domain.ErrInvalidCredential):
		status, code, key = http.StatusUnauthorized, "invalid_credential", msgInvalidCredential
	case errors.As(err, &remote):
		status, code, key = http.StatusBadGateway, "remote_service_error", msgGenerateFailed
		if remote.StatusCode == http.StatusServiceUnavailable || remote.StatusCode == http.StatusTooManyRequests {
			status = http.StatusServiceUnavailable
		}
		detail = remote.Message
	case errors.Is(err, domain.ErrDecode), errors.Is(err, domain.ErrRender):
		status, code, key = http.StatusInternalServerError, "render_error", msgGenerateFailed
		detail = err.Error()
	case errors.Is(err, domain.ErrSuperseded):
		status, code, key = http.StatusConflict, "superseded", msgSuperseded
	case errors.Is(err, domain.ErrNotFound):
		status, code, key = http.StatusNotFound, "not_found", msgSheetNotFound
	}

	evt := a.Logger.Warn()
	if status >= http.StatusInternalServerError {
		evt = a.Logger.Error()
	}
	evt.Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("code", code).
		Int("status", status).
		Msg("request failed")

	if key == msgGenerateFailed {
		a.error(w, status, code, message(locale, key, detail))
		return
	}
	a.error(w, status, code, message(locale, key))
}
