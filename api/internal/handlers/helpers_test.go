package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edutrack/edutrack/api/internal/config"
	"github.com/edutrack/edutrack/api/internal/middleware"
	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/api/internal/ratelimit"
	"github.com/edutrack/edutrack/api/internal/repository"
	"github.com/edutrack/edutrack/api/internal/service"
	"github.com/edutrack/edutrack/api/pkg/password"
	"github.com/edutrack/edutrack/api/pkg/tokens"
	"github.com/edutrack/edutrack/common/logging"
)

const testPassword = "correct horse battery"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// stubLimiter admits the first n attempts.
type stubLimiter struct {
	mu      sync.Mutex
	allowed int
	err     error
}

func (s *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if s.allowed <= 0 {
		return false, nil
	}
	s.allowed--
	return true, nil
}

func (s *stubLimiter) Window() time.Duration { return 15 * time.Minute }
func (s *stubLimiter) Close() error          { return nil }

var _ ratelimit.RateLimiter = (*stubLimiter)(nil)

type testEnv struct {
	auth      *AuthHandler
	users     *UserHandler
	syllabi   *SyllabusHandler
	authSvc   *service.AuthService
	authMW    *middleware.AuthMiddleware
	repo      *repository.InMemoryRepository
	clock     *fakeClock
	cookieCfg config.CookieConfig
}

func testCookieConfig() config.CookieConfig {
	secure := true
	return config.CookieConfig{
		AccessName:  "access_token",
		RefreshName: "refresh_token",
		Secure:      &secure,
		SameSite:    "none",
	}
}

func setup(t *testing.T, limiter ratelimit.RateLimiter) *testEnv {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	repo := repository.NewInMemoryRepository()
	codec, err := tokens.NewCodec(tokens.Config{Secret: "handler-test-secret", Issuer: "edutrack", Now: clock.Now})
	require.NoError(t, err)
	hasher, err := password.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	logger := logging.Discard()
	opts := []service.Option{service.WithClock(clock.Now), service.WithLogger(logger)}
	authSvc, err := service.NewAuthService(repo, codec, hasher, &config.AuthConfig{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}, opts...)
	require.NoError(t, err)

	cookieCfg := testCookieConfig()
	return &testEnv{
		auth:      NewAuthHandler(authSvc, limiter, cookieCfg, logger),
		users:     NewUserHandler(service.NewUserService(repo, opts...), logger),
		syllabi:   NewSyllabusHandler(service.NewSyllabusService(repo, opts...), logger),
		authSvc:   authSvc,
		authMW:    middleware.NewAuthMiddleware(authSvc, cookieCfg.AccessName, logger),
		repo:      repo,
		clock:     clock,
		cookieCfg: cookieCfg,
	}
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func registerBody(email string) map[string]string {
	return map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      email,
		"password":   testPassword,
	}
}

// register signs up a user and returns it with its response cookies.
func (e *testEnv) register(t *testing.T, email string) (*models.User, []*http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.auth.Register(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", registerBody(email)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env struct {
		User *models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.User, rec.Result().Cookies()
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}
