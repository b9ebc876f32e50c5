package handlers

import (
	"errors"
	"net/http"

	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/api/internal/service"
	"github.com/edutrack/edutrack/common/httputil"
	"github.com/edutrack/edutrack/common/logging"
)

// errorMapping pairs a sentinel with its status and client-facing message.
// Order matters: the first match wins.
type errorMapping struct {
	err     error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{httputil.ErrInvalidBody, http.StatusBadRequest, "Invalid request body"},
	{service.ErrEmailAlreadyExists, http.StatusConflict, "Email already registered"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{service.ErrNotAuthenticated, http.StatusUnauthorized, "Not authenticated"},
	// A refresh failure wraps the expiry cause, so invalid is checked first.
	{service.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "Token has expired"},
	{service.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{service.ErrSyllabusNotFound, http.StatusNotFound, "Syllabus not found"},
	{service.ErrRegistrationFailed, http.StatusInternalServerError, "Registration failed"},
	{service.ErrUpdateFailed, http.StatusInternalServerError, "Update failed"},
}

// statusFor returns the status and message for err. Unknown errors are 500
// with a generic message.
func statusFor(err error) (int, string) {
	var verr *models.ValidationError
	if errors.Is(err, service.ErrValidation) && errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Error()
	}
	if errors.Is(err, service.ErrValidation) {
		return http.StatusBadRequest, "Invalid request"
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}

// writeError maps err onto the response. Server errors are logged with
// their full text, which never reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", logging.Path(r.URL.Path), logging.Error(err))
	}
	httputil.WriteError(w, status, message)
}

// writeAuthError is writeError for the auth endpoints, where a token whose
// subject no longer exists is an authentication failure.
func writeAuthError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	if errors.Is(err, service.ErrUserNotFound) {
		httputil.WriteError(w, http.StatusUnauthorized, "User not found")
		return
	}
	writeError(w, r, logger, err)
}
