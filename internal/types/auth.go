package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateUserRequest is the body of POST /auth/register.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=1"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// User is the account as returned by the API. It mirrors db.User without
// the password hash.
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	PasswordSet bool      `json:"password_set"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LoginResponse is returned by register and login.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// UpdatePasswordRequest is the body of PUT /auth/password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// PasswordResetRequest starts a password reset for an email address.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest completes a password reset with the emailed token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required,min=16"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// Profile is the user-facing profile document mirrored alongside the account.
type Profile struct {
	DisplayName     string `json:"displayName,omitempty" validate:"omitempty,max=120"`
	Headline        string `json:"headline,omitempty" validate:"omitempty,max=200"`
	TargetRole      string `json:"targetRole,omitempty" validate:"omitempty,max=200"`
	ExperienceLevel string `json:"experienceLevel,omitempty" validate:"omitempty,oneof=entry junior mid senior lead principal"`
	ResumeKey       string `json:"resumeKey,omitempty"`
}

// validate is shared by every request type. validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = validator.New()

// Validate checks the registration fields.
func (r *CreateUserRequest) Validate() error { return validate.Struct(r) }

// Validate checks the login fields.
func (r *LoginRequest) Validate() error { return validate.Struct(r) }

// Validate checks the password change fields.
func (r *UpdatePasswordRequest) Validate() error { return validate.Struct(r) }

// Validate checks the reset request email.
func (r *PasswordResetRequest) Validate() error { return validate.Struct(r) }

// Validate checks the reset token and replacement password.
func (r *PasswordResetConfirmRequest) Validate() error { return validate.Struct(r) }

// Validate checks field lengths and the experience level.
func (p *Profile) Validate() error { return validate.Struct(p) }
