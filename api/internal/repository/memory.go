package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/edutrack/edutrack/api/internal/models"
)

// InMemoryRepository is a Repository for development and tests. Records are
// copied on the way in and out so callers never share memory with the store.
type InMemoryRepository struct {
	users        map[string]*models.User
	usersByEmail map[string]*models.User
	syllabi      map[string]*models.Syllabus
	// links maps user id to the set of linked syllabus ids.
	links map[string]map[string]struct{}
	mu    sync.RWMutex
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:        make(map[string]*models.User),
		usersByEmail: make(map[string]*models.User),
		syllabi:      make(map[string]*models.Syllabus),
		links:        make(map[string]map[string]struct{}),
	}
}

// =============================================================================
// USERS
// =============================================================================

func (r *InMemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByEmail[user.Email]; exists {
		return ErrUserExists
	}
	if _, exists := r.users[user.ID]; exists {
		return ErrUserExists
	}

	stored := user.Clone()
	r.users[stored.ID] = stored
	r.usersByEmail[stored.Email] = stored
	return nil
}

func (r *InMemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.usersByEmail[email]
	if !exists {
		return nil, ErrUserNotFound
	}
	return user.Clone(), nil
}

func (r *InMemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	return user.Clone(), nil
}

func (r *InMemoryRepository) UpdateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.users[user.ID]
	if !exists {
		return ErrUserNotFound
	}
	if other, taken := r.usersByEmail[user.Email]; taken && other.ID != user.ID {
		return ErrUserExists
	}

	stored := user.Clone()
	delete(r.usersByEmail, existing.Email)
	r.users[stored.ID] = stored
	r.usersByEmail[stored.Email] = stored
	return nil
}

func (r *InMemoryRepository) DeleteUser(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return ErrUserNotFound
	}
	delete(r.users, id)
	delete(r.usersByEmail, user.Email)
	delete(r.links, id)
	return nil
}

// =============================================================================
// SYLLABI
// =============================================================================

func (r *InMemoryRepository) CreateSyllabus(ctx context.Context, s *models.Syllabus, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[ownerID]; !exists {
		return ErrUserNotFound
	}

	r.syllabi[s.ID] = s.Clone()
	if r.links[ownerID] == nil {
		r.links[ownerID] = make(map[string]struct{})
	}
	r.links[ownerID][s.ID] = struct{}{}
	return nil
}

func (r *InMemoryRepository) GetSyllabusByID(ctx context.Context, id string) (*models.Syllabus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.syllabi[id]
	if !exists {
		return nil, ErrSyllabusNotFound
	}
	return s.Clone(), nil
}

func (r *InMemoryRepository) ListSyllabiByUser(ctx context.Context, userID string) ([]*models.Syllabus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Syllabus, 0, len(r.links[userID]))
	for id := range r.links[userID] {
		if s, ok := r.syllabi[id]; ok {
			out = append(out, s.Clone())
		}
	}
	sortSyllabi(out)
	return out, nil
}

func (r *InMemoryRepository) ListSyllabi(ctx context.Context) ([]*models.Syllabus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Syllabus, 0, len(r.syllabi))
	for _, s := range r.syllabi {
		out = append(out, s.Clone())
	}
	sortSyllabi(out)
	return out, nil
}

func (r *InMemoryRepository) UpdateSyllabus(ctx context.Context, s *models.Syllabus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.syllabi[s.ID]; !exists {
		return ErrSyllabusNotFound
	}
	r.syllabi[s.ID] = s.Clone()
	return nil
}

func (r *InMemoryRepository) DeleteSyllabus(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.syllabi[id]; !exists {
		return ErrSyllabusNotFound
	}
	delete(r.syllabi, id)
	for _, set := range r.links {
		delete(set, id)
	}
	return nil
}

// sortSyllabi orders by creation time, then id, matching the postgres queries.
func sortSyllabi(list []*models.Syllabus) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

var _ Repository = (*InMemoryRepository)(nil)
