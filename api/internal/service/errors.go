package service

import (
	"errors"

	"github.com/edutrack/edutrack/api/pkg/tokens"
)

var (
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRegistrationFailed = errors.New("registration failed")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrUserNotFound       = errors.New("user not found")

	// Token errors are the codec's own sentinels so errors.Is works across layers.
	ErrTokenExpired = tokens.ErrTokenExpired
	ErrInvalidToken = tokens.ErrTokenInvalid

	ErrValidation       = errors.New("validation failed")
	ErrUpdateFailed     = errors.New("update failed")
	ErrSyllabusNotFound = errors.New("syllabus not found")
	ErrDatabase         = errors.New("database error")
)
