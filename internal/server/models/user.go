// Package models defines the persistent entities of the task service and
// their pre-persistence validation rules. Validation is explicit: services
// call it before handing data to a repository, nothing fires implicitly
// inside the storage layer.
package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"taskkeeper/internal/common"
)

// User is an account holder. PasswordHash is a bcrypt hash, never the raw
// password. The avatar is stored separately (see avatar.Store) and the active
// bearer tokens live in the sessions table.
type User struct {
	ID           string
	Name         string
	Email        string
	Age          int
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the outward-facing representation. It deliberately excludes
// the password hash and session tokens.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public returns the serializable view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateName requires a non-empty name after trimming.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	return nil
}

// ValidateEmail requires a parseable address. Callers normalize first.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: email is invalid", common.ErrValidation)
	}
	return nil
}

// ValidateAge rejects negative ages; zero is the documented default.
func ValidateAge(age int) error {
	if age < 0 {
		return fmt.Errorf("%w: age must be a positive number", common.ErrValidation)
	}
	return nil
}

// ValidatePassword enforces the raw-password rules: at least 7 characters
// and no "password" substring, case-insensitive.
func ValidatePassword(raw string) error {
	if len(raw) < 7 {
		return fmt.Errorf("%w: password must be at least 7 characters", common.ErrValidation)
	}
	if strings.Contains(strings.ToLower(raw), "password") {
		return fmt.Errorf(`%w: password cannot contain "password"`, common.ErrValidation)
	}
	return nil
}

// Validate checks the stored fields of a user (password is validated in its
// raw form before hashing, not here).
func (u *User) Validate() error {
	if err := ValidateName(u.Name); err != nil {
		return err
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	return ValidateAge(u.Age)
}
