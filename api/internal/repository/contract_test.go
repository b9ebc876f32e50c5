package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack/api/internal/models"
)

// Store behaviour shared by every Repository implementation.

var fixtureTime = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

func newTestUser(t *testing.T, f *gofakeit.Faker, n int) *models.User {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return &models.User{
		ID:           id.String(),
		FirstName:    f.FirstName(),
		LastName:     f.LastName(),
		Email:        models.NormalizeEmail(fmt.Sprintf("%d.%s", n, f.Email())),
		PasswordHash: "$2a$04$abcdefghijklmnopqrstuuFakeHashForRepositoryTestsOnly",
		Type:         models.UserTypeStudent,
		CreatedAt:    fixtureTime,
		UpdatedAt:    fixtureTime,
	}
}

func newTestSyllabus(t *testing.T, name string, created time.Time) *models.Syllabus {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return &models.Syllabus{
		ID:              id.String(),
		Name:            name,
		Description:     "Cambridge International AS & A Level",
		Code:            models.SubjectCambridgeIALCS,
		Level:           models.LevelALevel,
		ExaminationDate: models.NewDate(2026, time.May, 12),
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func assertSameUser(t *testing.T, want, got *models.User) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.FirstName, got.FirstName)
	assert.Equal(t, want.LastName, got.LastName)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.PasswordHash, got.PasswordHash)
	assert.Equal(t, want.Type, got.Type)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at %v != %v", want.UpdatedAt, got.UpdatedAt)
}

func runUserRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()
	f := gofakeit.New(42)

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		user := newTestUser(t, f, 1)
		require.NoError(t, repo.CreateUser(ctx, user))

		byID, err := repo.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assertSameUser(t, user, byID)

		byEmail, err := repo.GetUserByEmail(ctx, user.Email)
		require.NoError(t, err)
		assertSameUser(t, user, byEmail)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newRepo(t)
		first := newTestUser(t, f, 2)
		require.NoError(t, repo.CreateUser(ctx, first))

		second := newTestUser(t, f, 3)
		second.Email = first.Email
		assert.ErrorIs(t, repo.CreateUser(ctx, second), ErrUserExists)
	})

	t.Run("not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetUserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = repo.GetUserByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("update", func(t *testing.T) {
		repo := newRepo(t)
		user := newTestUser(t, f, 4)
		require.NoError(t, repo.CreateUser(ctx, user))

		oldEmail := user.Email
		user.FirstName = "Grace"
		user.Email = "grace.updated@example.com"
		user.Type = models.UserTypeAdmin
		user.UpdatedAt = fixtureTime.Add(time.Hour)
		require.NoError(t, repo.UpdateUser(ctx, user))

		got, err := repo.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assertSameUser(t, user, got)

		_, err = repo.GetUserByEmail(ctx, oldEmail)
		assert.ErrorIs(t, err, ErrUserNotFound)
		_, err = repo.GetUserByEmail(ctx, "grace.updated@example.com")
		assert.NoError(t, err)
	})

	t.Run("update to taken email", func(t *testing.T) {
		repo := newRepo(t)
		a := newTestUser(t, f, 5)
		b := newTestUser(t, f, 6)
		require.NoError(t, repo.CreateUser(ctx, a))
		require.NoError(t, repo.CreateUser(ctx, b))

		b.Email = a.Email
		assert.ErrorIs(t, repo.UpdateUser(ctx, b), ErrUserExists)
	})

	t.Run("update missing", func(t *testing.T) {
		repo := newRepo(t)
		assert.ErrorIs(t, repo.UpdateUser(ctx, newTestUser(t, f, 7)), ErrUserNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		user := newTestUser(t, f, 8)
		require.NoError(t, repo.CreateUser(ctx, user))

		require.NoError(t, repo.DeleteUser(ctx, user.ID))
		_, err := repo.GetUserByID(ctx, user.ID)
		assert.ErrorIs(t, err, ErrUserNotFound)
		_, err = repo.GetUserByEmail(ctx, user.Email)
		assert.ErrorIs(t, err, ErrUserNotFound)

		assert.ErrorIs(t, repo.DeleteUser(ctx, user.ID), ErrUserNotFound)

		// the email is free again
		again := newTestUser(t, f, 9)
		again.Email = user.Email
		assert.NoError(t, repo.CreateUser(ctx, again))
	})

	t.Run("returned records are copies", func(t *testing.T) {
		repo := newRepo(t)
		user := newTestUser(t, f, 10)
		require.NoError(t, repo.CreateUser(ctx, user))
		user.FirstName = "Mutated"

		got, err := repo.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "Mutated", got.FirstName)

		got.LastName = "AlsoMutated"
		again, err := repo.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "AlsoMutated", again.LastName)
	})
}

func runSyllabusRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()
	f := gofakeit.New(7)

	t.Run("create links owner", func(t *testing.T) {
		repo := newRepo(t)
		owner := newTestUser(t, f, 100)
		other := newTestUser(t, f, 101)
		require.NoError(t, repo.CreateUser(ctx, owner))
		require.NoError(t, repo.CreateUser(ctx, other))

		s1 := newTestSyllabus(t, "Computer Science", fixtureTime)
		s2 := newTestSyllabus(t, "Information Technology", fixtureTime.Add(time.Minute))
		require.NoError(t, repo.CreateSyllabus(ctx, s2, owner.ID))
		require.NoError(t, repo.CreateSyllabus(ctx, s1, owner.ID))

		got, err := repo.GetSyllabusByID(ctx, s1.ID)
		require.NoError(t, err)
		assert.Equal(t, s1.Name, got.Name)
		assert.Equal(t, s1.Code, got.Code)
		assert.Equal(t, s1.Level, got.Level)
		assert.Equal(t, "2026-05-12", got.ExaminationDate.String())

		mine, err := repo.ListSyllabiByUser(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, s1.ID, mine[0].ID)
		assert.Equal(t, s2.ID, mine[1].ID)

		theirs, err := repo.ListSyllabiByUser(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, theirs)

		all, err := repo.ListSyllabi(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("create for missing owner", func(t *testing.T) {
		repo := newRepo(t)
		s := newTestSyllabus(t, "Orphan", fixtureTime)
		assert.ErrorIs(t, repo.CreateSyllabus(ctx, s, uuid.NewString()), ErrUserNotFound)

		_, err := repo.GetSyllabusByID(ctx, s.ID)
		assert.ErrorIs(t, err, ErrSyllabusNotFound)
	})

	t.Run("update and delete", func(t *testing.T) {
		repo := newRepo(t)
		owner := newTestUser(t, f, 102)
		require.NoError(t, repo.CreateUser(ctx, owner))
		s := newTestSyllabus(t, "Computer Science", fixtureTime)
		require.NoError(t, repo.CreateSyllabus(ctx, s, owner.ID))

		s.Name = "Further Computer Science"
		s.Level = models.LevelDiploma
		s.Code = models.SubjectIBDiplomaCS
		s.UpdatedAt = fixtureTime.Add(time.Hour)
		require.NoError(t, repo.UpdateSyllabus(ctx, s))

		got, err := repo.GetSyllabusByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Further Computer Science", got.Name)
		assert.Equal(t, models.SubjectIBDiplomaCS, got.Code)

		require.NoError(t, repo.DeleteSyllabus(ctx, s.ID))
		_, err = repo.GetSyllabusByID(ctx, s.ID)
		assert.ErrorIs(t, err, ErrSyllabusNotFound)

		mine, err := repo.ListSyllabiByUser(ctx, owner.ID)
		require.NoError(t, err)
		assert.Empty(t, mine)

		assert.ErrorIs(t, repo.DeleteSyllabus(ctx, s.ID), ErrSyllabusNotFound)
		assert.ErrorIs(t, repo.UpdateSyllabus(ctx, s), ErrSyllabusNotFound)
	})

	t.Run("deleting user drops links", func(t *testing.T) {
		repo := newRepo(t)
		owner := newTestUser(t, f, 103)
		require.NoError(t, repo.CreateUser(ctx, owner))
		s := newTestSyllabus(t, "Computer Science", fixtureTime)
		require.NoError(t, repo.CreateSyllabus(ctx, s, owner.ID))

		require.NoError(t, repo.DeleteUser(ctx, owner.ID))

		mine, err := repo.ListSyllabiByUser(ctx, owner.ID)
		require.NoError(t, err)
		assert.Empty(t, mine)

		// the syllabus itself survives
		_, err = repo.GetSyllabusByID(ctx, s.ID)
		assert.NoError(t, err)
	})
}
