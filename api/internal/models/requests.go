package models

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLength     = 100
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// ValidationError describes the first invalid field of a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail accepts bare addresses only, no display names.
func ValidateEmail(email string) error {
	if email == "" {
		return invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return invalid("email", "is not a valid email address")
	}
	return nil
}

func validateName(field, value string) error {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		return invalid(field, "is required")
	}
	if n > MaxNameLength {
		return invalid(field, "must be at most %d characters", MaxNameLength)
	}
	return nil
}

func validatePassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return invalid("password", "must be at least %d characters", MinPasswordLength)
	}
	if len(pw) > MaxPasswordLength {
		return invalid("password", "must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Type      UserType `json:"type"`
}

// Normalize trims names, normalises the email and defaults the type.
func (r *RegisterRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = NormalizeEmail(r.Email)
	if r.Type == "" {
		r.Type = UserTypeStudent
	}
}

// Validate checks a normalised request.
func (r *RegisterRequest) Validate() error {
	if err := validateName("first_name", r.FirstName); err != nil {
		return err
	}
	if err := validateName("last_name", r.LastName); err != nil {
		return err
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if err := validatePassword(r.Password); err != nil {
		return err
	}
	if !r.Type.Valid() {
		return invalid("type", "must be one of student, admin")
	}
	return nil
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest is a partial user update. Nil fields are left unchanged.
type UpdateUserRequest struct {
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Type      *UserType `json:"type,omitempty"`
}

// Normalize trims present fields.
func (r *UpdateUserRequest) Normalize() {
	if r.FirstName != nil {
		v := strings.TrimSpace(*r.FirstName)
		r.FirstName = &v
	}
	if r.LastName != nil {
		v := strings.TrimSpace(*r.LastName)
		r.LastName = &v
	}
	if r.Email != nil {
		v := NormalizeEmail(*r.Email)
		r.Email = &v
	}
}

// Validate checks present fields.
func (r *UpdateUserRequest) Validate() error {
	if r.FirstName != nil {
		if err := validateName("first_name", *r.FirstName); err != nil {
			return err
		}
	}
	if r.LastName != nil {
		if err := validateName("last_name", *r.LastName); err != nil {
			return err
		}
	}
	if r.Email != nil {
		if err := ValidateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.Type != nil && !r.Type.Valid() {
		return invalid("type", "must be one of student, admin")
	}
	return nil
}

// Apply copies present fields onto u.
func (r *UpdateUserRequest) Apply(u *User) {
	if r.FirstName != nil {
		u.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		u.LastName = *r.LastName
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	if r.Type != nil {
		u.Type = *r.Type
	}
}

// CreateSyllabusRequest is the body of POST /syllabus.
type CreateSyllabusRequest struct {
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Code            SubjectCode   `json:"code"`
	Level           SyllabusLevel `json:"level"`
	ExaminationDate Date          `json:"examination_date"`
}

// Validate checks the request.
func (r *CreateSyllabusRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name", "is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return invalid("description", "is required")
	}
	if !r.Code.Valid() {
		return invalid("code", "unknown subject code %q", r.Code)
	}
	if !r.Level.Valid() {
		return invalid("level", "must be one of igcse, olevel, alevel, diploma")
	}
	if r.ExaminationDate.IsZero() {
		return invalid("examination_date", "is required")
	}
	return nil
}

// UpdateSyllabusRequest is a partial syllabus update.
type UpdateSyllabusRequest struct {
	Name            *string        `json:"name,omitempty"`
	Description     *string        `json:"description,omitempty"`
	Code            *SubjectCode   `json:"code,omitempty"`
	Level           *SyllabusLevel `json:"level,omitempty"`
	ExaminationDate *Date          `json:"examination_date,omitempty"`
}

// Validate checks present fields.
func (r *UpdateSyllabusRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if r.Description != nil && strings.TrimSpace(*r.Description) == "" {
		return invalid("description", "must not be empty")
	}
	if r.Code != nil && !r.Code.Valid() {
		return invalid("code", "unknown subject code %q", *r.Code)
	}
	if r.Level != nil && !r.Level.Valid() {
		return invalid("level", "must be one of igcse, olevel, alevel, diploma")
	}
	if r.ExaminationDate != nil && r.ExaminationDate.IsZero() {
		return invalid("examination_date", "must not be empty")
	}
	return nil
}

// Apply copies present fields onto s.
func (r *UpdateSyllabusRequest) Apply(s *Syllabus) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.Description != nil {
		s.Description = *r.Description
	}
	if r.Code != nil {
		s.Code = *r.Code
	}
	if r.Level != nil {
		s.Level = *r.Level
	}
	if r.ExaminationDate != nil {
		s.ExaminationDate = *r.ExaminationDate
	}
}

// UserEnvelope wraps a single user in responses.
type UserEnvelope struct {
	User *User `json:"user"`
}

// VerifyResponse is returned by GET /auth/verify.
type VerifyResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user"`
}

// SyllabusEnvelope wraps a single syllabus in responses.
type SyllabusEnvelope struct {
	Syllabus *Syllabus `json:"syllabus"`
}

// SyllabusListResponse is returned by GET /syllabus/all.
type SyllabusListResponse struct {
	Syllabuses []*Syllabus `json:"syllabuses"`
}
