package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edutrack/edutrack/api/internal/audit"
	"github.com/edutrack/edutrack/api/internal/config"
	"github.com/edutrack/edutrack/api/internal/metrics"
	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/api/internal/repository"
	"github.com/edutrack/edutrack/api/pkg/password"
	"github.com/edutrack/edutrack/api/pkg/tokens"
	"github.com/edutrack/edutrack/common/logging"
)

// dummyPassword is hashed once at construction. Logins for unknown emails are
// compared against it so they cost the same as a wrong password.
const dummyPassword = "edutrack-dummy-password"

// AuthService registers users, checks credentials and issues and verifies
// tokens. It holds no mutable state and is safe for concurrent use.
type AuthService struct {
	repo       repository.UserRepository
	codec      *tokens.Codec
	hasher     password.Hasher
	accessTTL  time.Duration
	refreshTTL time.Duration
	dummyHash  string
	now        func() time.Time
	auditLog   *audit.Logger
	logger     *logging.Logger
}

func NewAuthService(repo repository.UserRepository, codec *tokens.Codec, hasher password.Hasher, cfg *config.AuthConfig, opts ...Option) (*AuthService, error) {
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if cfg.RefreshTokenTTL <= cfg.AccessTokenTTL {
		return nil, fmt.Errorf("refresh token lifetime %s must exceed access token lifetime %s",
			cfg.RefreshTokenTTL, cfg.AccessTokenTTL)
	}

	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	o := buildOptions(opts)
	return &AuthService{
		repo:       repo,
		codec:      codec,
		hasher:     hasher,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		dummyHash:  dummyHash,
		now:        o.now,
		auditLog:   o.auditLog,
		logger:     o.logger,
	}, nil
}

// Register creates a student or admin account. The password is stored hashed.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	user, _, err := s.register(ctx, req, false)
	return user, err
}

// RegisterSession creates an account and returns a token pair for it. The
// tokens are signed before the account is written, so a stored account
// always comes with its session.
func (s *AuthService) RegisterSession(ctx context.Context, req *models.RegisterRequest) (*models.User, *models.TokenPair, error) {
	return s.register(ctx, req, true)
}

func (s *AuthService) register(ctx context.Context, req *models.RegisterRequest, withSession bool) (*models.User, *models.TokenPair, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.recordFailure(ctx, models.AuditActionRegister, "", req.Email, "invalid request")
		return nil, nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	_, err := s.repo.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		s.recordFailure(ctx, models.AuditActionRegister, "", req.Email, "email already registered")
		return nil, nil, ErrEmailAlreadyExists
	case !errors.Is(err, repository.ErrUserNotFound):
		s.logger.ErrorContext(ctx, "failed to look up email during registration", logging.Error(err))
		s.recordFailure(ctx, models.AuditActionRegister, "", req.Email, "store lookup failed")
		return nil, nil, ErrRegistrationFailed
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to hash password", logging.Error(err))
		s.recordFailure(ctx, models.AuditActionRegister, "", req.Email, "password hashing failed")
		return nil, nil, ErrRegistrationFailed
	}

	id, err := uuid.NewV7()
	if err != nil {
		s.recordFailure(ctx, models.AuditActionRegister, "", req.Email, "id generation failed")
		return nil, nil, ErrRegistrationFailed
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           id.String(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Type:         req.Type,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var pair *models.TokenPair
	if withSession {
		pair, err = s.IssueTokenPair(user)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to issue tokens for new account", logging.Email(req.Email), logging.Error(err))
			s.recordFailure(ctx, models.AuditActionRegister, "", req.Email, "token issue failed")
			return nil, nil, ErrRegistrationFailed
		}
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			s.recordFailure(ctx, models.AuditActionRegister, "", req.Email, "email already registered")
			return nil, nil, ErrEmailAlreadyExists
		}
		s.logger.ErrorContext(ctx, "failed to create user", logging.Email(req.Email), logging.Error(err))
		s.recordFailure(ctx, models.AuditActionRegister, "", req.Email, "store write failed")
		return nil, nil, ErrRegistrationFailed
	}

	s.recordSuccess(ctx, models.AuditActionRegister, user)
	return user, pair, nil
}

// Login returns the user whose email and password match. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*models.User, error) {
	email = models.NormalizeEmail(email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.Verify(plaintext, s.dummyHash)
			s.recordFailure(ctx, models.AuditActionLogin, "", email, "unknown email")
			return nil, ErrInvalidCredentials
		}
		s.logger.ErrorContext(ctx, "failed to look up user for login", logging.Error(err))
		s.recordFailure(ctx, models.AuditActionLogin, "", email, "store lookup failed")
		return nil, fmt.Errorf("%w: failed to look up user", ErrDatabase)
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		s.recordFailure(ctx, models.AuditActionLogin, user.ID, email, "wrong password")
		return nil, ErrInvalidCredentials
	}

	s.recordSuccess(ctx, models.AuditActionLogin, user)
	return user, nil
}

// IssueToken signs a token of the given class for user.
func (s *AuthService) IssueToken(user *models.User, class tokens.Class) (string, error) {
	ttl, err := s.ttlFor(class)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	token, err := s.codec.Encode(tokens.Claims{
		Subject:   user.ID,
		Email:     user.Email,
		Role:      string(user.Type),
		Class:     class,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to issue %s token: %w", class, err)
	}

	metrics.TokensIssued.WithLabelValues(class.String()).Inc()
	s.logger.Debug("token issued", logging.UserID(user.ID), logging.TokenClass(class.String()))
	return token, nil
}

// IssueTokenPair issues an access and a refresh token with their lifetimes.
func (s *AuthService) IssueTokenPair(user *models.User) (*models.TokenPair, error) {
	access, err := s.IssueToken(user, tokens.ClassAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueToken(user, tokens.ClassRefresh)
	if err != nil {
		return nil, err
	}
	return &models.TokenPair{
		AccessToken:   access,
		AccessMaxAge:  int(s.accessTTL.Seconds()),
		RefreshToken:  refresh,
		RefreshMaxAge: int(s.refreshTTL.Seconds()),
	}, nil
}

// AccessMaxAge is the access token lifetime in seconds.
func (s *AuthService) AccessMaxAge() int {
	return int(s.accessTTL.Seconds())
}

// VerifyAccess resolves an access token to the current stored user.
// Expired and invalid tokens are reported separately; refresh tokens are
// rejected as invalid.
func (s *AuthService) VerifyAccess(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	claims, err := s.codec.Decode(token)
	if err != nil {
		s.recordFailure(ctx, models.AuditActionVerify, "", "", reasonFor(err))
		return nil, err
	}
	if claims.Class != tokens.ClassAccess {
		s.recordFailure(ctx, models.AuditActionVerify, claims.Subject, claims.Email, "wrong token class")
		return nil, fmt.Errorf("%w: %s token used for access", ErrInvalidToken, claims.Class)
	}

	user, err := s.lookupSubject(ctx, claims.Subject)
	if err != nil {
		s.recordFailure(ctx, models.AuditActionVerify, claims.Subject, claims.Email, reasonFor(err))
		return nil, err
	}

	metrics.AuthOperations.WithLabelValues(models.AuditActionVerify, metrics.ResultSuccess).Inc()
	return user, nil
}

// RefreshAccess exchanges a refresh token for a new access token. Any
// problem with the refresh token itself, expiry included, is ErrInvalidToken.
// The refresh token is not rotated.
func (s *AuthService) RefreshAccess(ctx context.Context, refreshToken string) (string, *models.User, error) {
	if refreshToken == "" {
		return "", nil, ErrNotAuthenticated
	}

	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		s.recordFailure(ctx, models.AuditActionRefresh, "", "", reasonFor(err))
		if errors.Is(err, ErrInvalidToken) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Class != tokens.ClassRefresh {
		s.recordFailure(ctx, models.AuditActionRefresh, claims.Subject, claims.Email, "wrong token class")
		return "", nil, fmt.Errorf("%w: %s token used for refresh", ErrInvalidToken, claims.Class)
	}

	user, err := s.lookupSubject(ctx, claims.Subject)
	if err != nil {
		s.recordFailure(ctx, models.AuditActionRefresh, claims.Subject, claims.Email, reasonFor(err))
		return "", nil, err
	}

	access, err := s.IssueToken(user, tokens.ClassAccess)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to issue access token on refresh", logging.UserID(user.ID), logging.Error(err))
		s.recordFailure(ctx, models.AuditActionRefresh, user.ID, user.Email, "token issuance failed")
		return "", nil, err
	}

	s.recordSuccess(ctx, models.AuditActionRefresh, user)
	return access, user, nil
}

// Logout records the logout of whoever holds accessToken. Tokens are not
// revoked; clearing them is up to the transport.
func (s *AuthService) Logout(ctx context.Context, accessToken string) {
	entry := audit.Entry{Action: models.AuditActionLogout, Result: models.AuditResultSuccess}
	if claims, err := s.codec.Decode(accessToken); err == nil {
		entry.UserID = claims.Subject
		entry.Email = claims.Email
	}
	metrics.AuthOperations.WithLabelValues(models.AuditActionLogout, metrics.ResultSuccess).Inc()
	if s.auditLog != nil {
		s.auditLog.Log(ctx, entry)
	}
}

func (s *AuthService) lookupSubject(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "failed to load token subject", logging.UserID(id), logging.Error(err))
		return nil, fmt.Errorf("%w: failed to load user", ErrDatabase)
	}
	return user, nil
}

func (s *AuthService) ttlFor(class tokens.Class) (time.Duration, error) {
	switch class {
	case tokens.ClassAccess:
		return s.accessTTL, nil
	case tokens.ClassRefresh:
		return s.refreshTTL, nil
	default:
		return 0, fmt.Errorf("unknown token class %q", class)
	}
}

func (s *AuthService) recordSuccess(ctx context.Context, action string, user *models.User) {
	metrics.AuthOperations.WithLabelValues(action, metrics.ResultSuccess).Inc()
	if s.auditLog != nil {
		s.auditLog.Log(ctx, audit.Entry{
			Action: action,
			Result: models.AuditResultSuccess,
			UserID: user.ID,
			Email:  user.Email,
		})
	}
}

func (s *AuthService) recordFailure(ctx context.Context, action, userID, email, reason string) {
	metrics.AuthOperations.WithLabelValues(action, metrics.ResultFailure).Inc()
	if s.auditLog != nil {
		s.auditLog.Log(ctx, audit.Entry{
			Action: action,
			Result: models.AuditResultFailure,
			UserID: userID,
			Email:  email,
			Reason: reason,
		})
	}
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "token expired"
	case errors.Is(err, ErrInvalidToken):
		return "invalid token"
	case errors.Is(err, ErrUserNotFound):
		return "user not found"
	default:
		return "internal error"
	}
}
