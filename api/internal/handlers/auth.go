package handlers

import (
	"net/http"
	"strconv"

	"github.com/edutrack/edutrack/api/internal/config"
	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/api/internal/ratelimit"
	"github.com/edutrack/edutrack/api/internal/service"
	"github.com/edutrack/edutrack/common/httputil"
	"github.com/edutrack/edutrack/common/logging"
)

type AuthHandler struct {
	auth     *service.AuthService
	limiter  ratelimit.RateLimiter
	clientIP *httputil.ClientIPResolver
	cookies  cookieJar
	logger   *logging.Logger
}

// AuthHandlerOption configures an AuthHandler.
type AuthHandlerOption func(*AuthHandler)

// WithClientIPResolver sets how login attempts are attributed to clients.
// Without it the limiter is keyed on the direct peer address.
func WithClientIPResolver(r *httputil.ClientIPResolver) AuthHandlerOption {
	return func(h *AuthHandler) { h.clientIP = r }
}

func NewAuthHandler(auth *service.AuthService, limiter ratelimit.RateLimiter, cookies config.CookieConfig, logger *logging.Logger, opts ...AuthHandlerOption) *AuthHandler {
	if limiter == nil {
		limiter = &ratelimit.NoOpRateLimiter{}
	}
	h := &AuthHandler{
		auth:    auth,
		limiter: limiter,
		cookies: cookieJar{cfg: cookies},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, pair, err := h.auth.RegisterSession(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.cookies.setTokens(w, pair)
	httputil.WriteJSON(w, http.StatusCreated, models.UserEnvelope{User: user})
}

// Login checks credentials and sets the token cookies. Attempts are limited
// per client IP.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := h.clientIP.ClientIP(r)
	allowed, err := h.limiter.Allow(r.Context(), ip)
	if err != nil {
		// Fail open.
		h.logger.WarnContext(r.Context(), "login rate limit check failed", logging.IP(ip), logging.Error(err))
	} else if !allowed {
		if window := h.limiter.Window(); window > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
		}
		httputil.WriteError(w, http.StatusTooManyRequests, "Too many login attempts")
		return
	}

	var req models.LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	pair, err := h.auth.IssueTokenPair(user)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.cookies.setTokens(w, pair)
	httputil.WriteJSON(w, http.StatusOK, models.UserEnvelope{User: user})
}

// Logout clears the token cookies. Tokens are not revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), h.cookies.read(r, h.cookies.cfg.AccessName))
	h.cookies.clear(w)
	httputil.NoContent(w)
}

// Verify reports the user behind the access cookie.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.VerifyAccess(r.Context(), h.cookies.read(r, h.cookies.cfg.AccessName))
	if err != nil {
		writeAuthError(w, r, h.logger, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.VerifyResponse{
		Authenticated: true,
		User:          user.ToResponse(),
	})
}

// Refresh sets a new access cookie from the refresh cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	access, user, err := h.auth.RefreshAccess(r.Context(), h.cookies.read(r, h.cookies.cfg.RefreshName))
	if err != nil {
		writeAuthError(w, r, h.logger, err)
		return
	}

	h.cookies.setAccess(w, access, h.auth.AccessMaxAge())
	httputil.WriteJSON(w, http.StatusOK, models.UserEnvelope{User: user})
}
