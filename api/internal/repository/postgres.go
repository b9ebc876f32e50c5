package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edutrack/edutrack/api/internal/models"
	"github.com/edutrack/edutrack/common/database"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository wraps an open pool. The caller owns the pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// =============================================================================
// USERS
// =============================================================================

const userColumns = `id, first_name, last_name, email, password_hash, type, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Type, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash,
		string(user.Type), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrUserNotFound
	}

	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, password_hash = $5, type = $6, updated_at = $7
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash,
		string(user.Type), user.UpdatedAt,
	)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrUserNotFound
	}

	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// =============================================================================
// SYLLABI
// =============================================================================

const syllabusColumns = `s.id, s.name, s.description, s.code, s.level, s.examination_date, s.created_at, s.updated_at`

func scanSyllabus(row pgx.Row) (*models.Syllabus, error) {
	var s models.Syllabus
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Code, &s.Level,
		&s.ExaminationDate.Time, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) CreateSyllabus(ctx context.Context, s *models.Syllabus, ownerID string) error {
	if uuid.Validate(ownerID) != nil {
		return ErrUserNotFound
	}
	linkID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate link id: %w", err)
	}

	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO syllabus (id, name, description, code, level, examination_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.Name, s.Description, string(s.Code), string(s.Level), s.ExaminationDate.Time, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create syllabus: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_syllabus (id, user_id, syllabus_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`, linkID.String(), ownerID, s.ID, s.CreatedAt)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to link syllabus to user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit syllabus: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetSyllabusByID(ctx context.Context, id string) (*models.Syllabus, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrSyllabusNotFound
	}

	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `SELECT ` + syllabusColumns + ` FROM syllabus s WHERE s.id = $1`
	s, err := scanSyllabus(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSyllabusNotFound
		}
		return nil, fmt.Errorf("failed to get syllabus: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListSyllabiByUser(ctx context.Context, userID string) ([]*models.Syllabus, error) {
	if uuid.Validate(userID) != nil {
		return []*models.Syllabus{}, nil
	}

	query := `
		SELECT ` + syllabusColumns + `
		FROM syllabus s
		JOIN user_syllabus us ON us.syllabus_id = s.id
		WHERE us.user_id = $1
		ORDER BY s.created_at, s.id
	`
	return r.listSyllabi(ctx, query, userID)
}

func (r *PostgresRepository) ListSyllabi(ctx context.Context) ([]*models.Syllabus, error) {
	query := `SELECT ` + syllabusColumns + ` FROM syllabus s ORDER BY s.created_at, s.id`
	return r.listSyllabi(ctx, query)
}

func (r *PostgresRepository) listSyllabi(ctx context.Context, query string, args ...any) ([]*models.Syllabus, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list syllabi: %w", err)
	}
	defer rows.Close()

	out := []*models.Syllabus{}
	for rows.Next() {
		s, err := scanSyllabus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan syllabus: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list syllabi: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateSyllabus(ctx context.Context, s *models.Syllabus) error {
	if uuid.Validate(s.ID) != nil {
		return ErrSyllabusNotFound
	}

	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		UPDATE syllabus
		SET name = $2, description = $3, code = $4, level = $5, examination_date = $6, updated_at = $7
		WHERE id = $1
	`, s.ID, s.Name, s.Description, string(s.Code), string(s.Level), s.ExaminationDate.Time, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update syllabus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSyllabusNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteSyllabus(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrSyllabusNotFound
	}

	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM syllabus WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete syllabus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSyllabusNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
