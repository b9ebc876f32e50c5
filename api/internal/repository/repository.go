package repository

import (
	"context"
	"errors"

	"github.com/edutrack/edutrack/api/internal/models"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrSyllabusNotFound = errors.New("syllabus not found")
)

// UserRepository persists user accounts. Emails are unique; implementations
// return ErrUserExists when a write would violate that.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// SyllabusRepository persists syllabi and their user links.
type SyllabusRepository interface {
	// CreateSyllabus stores s and links it to ownerID atomically.
	CreateSyllabus(ctx context.Context, s *models.Syllabus, ownerID string) error
	GetSyllabusByID(ctx context.Context, id string) (*models.Syllabus, error)
	ListSyllabiByUser(ctx context.Context, userID string) ([]*models.Syllabus, error)
	ListSyllabi(ctx context.Context) ([]*models.Syllabus, error)
	UpdateSyllabus(ctx context.Context, s *models.Syllabus) error
	DeleteSyllabus(ctx context.Context, id string) error
}

// Repository is the full store used by the API service.
type Repository interface {
	UserRepository
	SyllabusRepository
}
