package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack/api/internal/audit"
	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/api/internal/service"
	"github.com/edutrack/edutrack/common/httputil"
	"github.com/edutrack/edutrack/common/logging"
)

// fakeVerifier accepts a single token.
type fakeVerifier struct {
	token string
	user  *models.User
	err   error
}

func (f *fakeVerifier) VerifyAccess(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, service.ErrNotAuthenticated
	}
	if f.err != nil {
		return nil, f.err
	}
	if token != f.token {
		return nil, service.ErrInvalidToken
	}
	return f.user, nil
}

func TestRequireAuth(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "ada@example.com"}
	verifier := &fakeVerifier{token: "good-token", user: user}
	mw := NewAuthMiddleware(verifier, "access_token", logging.Discard())

	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.RequireAuth(next)

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
		wantUser   bool
	}{
		{
			name:       "cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: "good-token"}) },
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name:       "bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer good-token") },
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name: "cookie wins over header",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "access_token", Value: "bad-token"})
				r.Header.Set("Authorization", "Bearer good-token")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing",
			prepare:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong cookie name",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "good-token"}) },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantUser {
				assert.Equal(t, user, seen)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}

func TestRequireAuth_ErrorDetails(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "expired", err: service.ErrTokenExpired, wantStatus: http.StatusUnauthorized, wantBody: "Token has expired"},
		{name: "invalid", err: service.ErrInvalidToken, wantStatus: http.StatusUnauthorized, wantBody: "Invalid token"},
		{name: "deleted user", err: service.ErrUserNotFound, wantStatus: http.StatusUnauthorized, wantBody: "User not found"},
		{name: "store failure", err: errors.New("connection refused"), wantStatus: http.StatusInternalServerError, wantBody: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewAuthMiddleware(&fakeVerifier{err: tt.err}, "access_token", logging.Discard())
			handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next must not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.AddCookie(&http.Cookie{Name: "access_token", Value: "token"})
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	assert.Nil(t, UserFromContext(context.Background()))
}

func TestClientInfo(t *testing.T) {
	var got audit.Client
	handler := ClientInfo(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = audit.ClientFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:51234"
	req.Header.Set("User-Agent", "edutrack-web/1.0")
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "192.0.2.10", got.IP)
	assert.Equal(t, "edutrack-web/1.0", got.UserAgent)
}

func TestClientInfo_TrustedProxy(t *testing.T) {
	resolver, err := httputil.NewClientIPResolver([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	var got audit.Client
	handler := ClientInfo(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = audit.ClientFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:51234"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "198.51.100.1", got.IP)
}
