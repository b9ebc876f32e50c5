package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/api/internal/repository"
	"github.com/edutrack/edutrack/common/logging"
)

// UserService reads and edits user profiles.
type UserService struct {
	repo   repository.UserRepository
	now    func() time.Time
	logger *logging.Logger
}

func NewUserService(repo repository.UserRepository, opts ...Option) *UserService {
	o := buildOptions(opts)
	return &UserService{
		repo:   repo,
		now:    o.now,
		logger: o.logger,
	}
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "failed to get user", id, err)
	}
	return user, nil
}

// UpdateUser applies the fields present in req. A new email must not belong
// to another account.
func (s *UserService) UpdateUser(ctx context.Context, id string, req *models.UpdateUserRequest) (*models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "failed to get user for update", id, err)
	}

	if req.Email != nil && *req.Email != user.Email {
		other, err := s.repo.GetUserByEmail(ctx, *req.Email)
		switch {
		case err == nil && other.ID != user.ID:
			return nil, ErrEmailAlreadyExists
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return nil, s.storeError(ctx, "failed to check email", id, err)
		}
	}

	req.Apply(user)
	user.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserExists):
			return nil, ErrEmailAlreadyExists
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "failed to update user", logging.UserID(id), logging.Error(err))
		return nil, ErrUpdateFailed
	}

	s.logger.InfoContext(ctx, "user updated", logging.UserID(id))
	return user, nil
}

// DeleteUser removes the account and its syllabus links. Tokens already
// issued for it stop verifying because the subject no longer exists.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return s.storeError(ctx, "failed to delete user", id, err)
	}
	s.logger.InfoContext(ctx, "user deleted", logging.UserID(id))
	return nil
}

func (s *UserService) storeError(ctx context.Context, msg, id string, err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	s.logger.ErrorContext(ctx, msg, logging.UserID(id), logging.Error(err))
	return fmt.Errorf("%w: %s", ErrDatabase, msg)
}
