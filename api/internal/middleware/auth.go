package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/api/internal/service"
	"github.com/edutrack/edutrack/common/httputil"
	"github.com/edutrack/edutrack/common/logging"
)

type contextKey string

const userKey contextKey = "user"

// AccessVerifier resolves an access token to its user.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, token string) (*models.User, error)
}

type AuthMiddleware struct {
	verifier   AccessVerifier
	cookieName string
	logger     *logging.Logger
}

func NewAuthMiddleware(verifier AccessVerifier, cookieName string, logger *logging.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:   verifier,
		cookieName: cookieName,
		logger:     logger,
	}
}

// RequireAuth rejects requests without a valid access token. The token is
// read from the access cookie, or from an Authorization bearer header when
// the cookie is absent.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(m.cookieName); err == nil {
			token = c.Value
		}
		if token == "" {
			token = httputil.BearerToken(r)
		}

		user, err := m.verifier.VerifyAccess(r.Context(), token)
		if err != nil {
			m.unauthorized(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

func (m *AuthMiddleware) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	var detail string
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		detail = "Not authenticated"
	case errors.Is(err, service.ErrInvalidToken):
		detail = "Invalid token"
	case errors.Is(err, service.ErrTokenExpired):
		detail = "Token has expired"
	case errors.Is(err, service.ErrUserNotFound):
		detail = "User not found"
	default:
		m.logger.ErrorContext(r.Context(), "access verification failed", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httputil.WriteError(w, http.StatusUnauthorized, detail)
}

// ContextWithUser stores the authenticated user in ctx.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by RequireAuth, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
