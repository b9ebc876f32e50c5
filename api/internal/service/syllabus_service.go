package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/api/internal/repository"
	"github.com/edutrack/edutrack/common/logging"
)

// SyllabusService manages syllabi and the users enrolled on them.
type SyllabusService struct {
	repo   repository.SyllabusRepository
	now    func() time.Time
	logger *logging.Logger
}

func NewSyllabusService(repo repository.SyllabusRepository, opts ...Option) *SyllabusService {
	o := buildOptions(opts)
	return &SyllabusService{
		repo:   repo,
		now:    o.now,
		logger: o.logger,
	}
}

// CreateSyllabus stores a new syllabus and enrols owner on it.
func (s *SyllabusService) CreateSyllabus(ctx context.Context, owner *models.User, req *models.CreateSyllabusRequest) (*models.Syllabus, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate syllabus ID", ErrDatabase)
	}

	now := s.now().UTC()
	syllabus := &models.Syllabus{
		ID:              id.String(),
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		Code:            req.Code,
		Level:           req.Level,
		ExaminationDate: req.ExaminationDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateSyllabus(ctx, syllabus, owner.ID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "failed to create syllabus", logging.UserID(owner.ID), logging.Error(err))
		return nil, fmt.Errorf("%w: failed to create syllabus", ErrDatabase)
	}

	s.logger.InfoContext(ctx, "syllabus created", logging.SyllabusID(syllabus.ID), logging.UserID(owner.ID))
	return syllabus, nil
}

func (s *SyllabusService) GetSyllabus(ctx context.Context, id string) (*models.Syllabus, error) {
	syllabus, err := s.repo.GetSyllabusByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "failed to get syllabus", id, err)
	}
	return syllabus, nil
}

// ListSyllabiForUser returns the syllabi user is enrolled on, or every
// syllabus for admins.
func (s *SyllabusService) ListSyllabiForUser(ctx context.Context, user *models.User) ([]*models.Syllabus, error) {
	var (
		syllabi []*models.Syllabus
		err     error
	)
	if user.IsAdmin() {
		syllabi, err = s.repo.ListSyllabi(ctx)
	} else {
		syllabi, err = s.repo.ListSyllabiByUser(ctx, user.ID)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list syllabi", logging.UserID(user.ID), logging.Error(err))
		return nil, fmt.Errorf("%w: failed to list syllabi", ErrDatabase)
	}
	if syllabi == nil {
		syllabi = []*models.Syllabus{}
	}
	return syllabi, nil
}

// UpdateSyllabus applies the fields present in req.
func (s *SyllabusService) UpdateSyllabus(ctx context.Context, id string, req *models.UpdateSyllabusRequest) (*models.Syllabus, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	syllabus, err := s.repo.GetSyllabusByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "failed to get syllabus for update", id, err)
	}

	req.Apply(syllabus)
	syllabus.Name = strings.TrimSpace(syllabus.Name)
	syllabus.Description = strings.TrimSpace(syllabus.Description)
	syllabus.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateSyllabus(ctx, syllabus); err != nil {
		return nil, s.storeError(ctx, "failed to update syllabus", id, err)
	}
	return syllabus, nil
}

func (s *SyllabusService) DeleteSyllabus(ctx context.Context, id string) error {
	if err := s.repo.DeleteSyllabus(ctx, id); err != nil {
		return s.storeError(ctx, "failed to delete syllabus", id, err)
	}
	s.logger.InfoContext(ctx, "syllabus deleted", logging.SyllabusID(id))
	return nil
}

func (s *SyllabusService) storeError(ctx context.Context, msg, id string, err error) error {
	if errors.Is(err, repository.ErrSyllabusNotFound) {
		return ErrSyllabusNotFound
	}
	s.logger.ErrorContext(ctx, msg, logging.SyllabusID(id), logging.Error(err))
	return fmt.Errorf("%w: %s", ErrDatabase, msg)
}
