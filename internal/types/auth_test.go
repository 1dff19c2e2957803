//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validatable is implemented by every request type in this file
type validatable interface {
	Validate() error
}

func TestAccountRequests_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     validatable
		wantTag string // empty means valid
	}{
		{"register", &CreateUserRequest{Name: "Priya Natarajan", Email: "priya@example.com", Password: "long-enough"}, ""},
		{"register with phone", &CreateUserRequest{Name: "Priya", Email: "priya@example.com", Password: "long-enough", Phone: "+44 20 7946 0000"}, ""},
		{"register missing name", &CreateUserRequest{Email: "priya@example.com", Password: "long-enough"}, "required"},
		{"register bad email", &CreateUserRequest{Name: "Priya", Email: "priya.example.com", Password: "long-enough"}, "email"},
		{"register short password", &CreateUserRequest{Name: "Priya", Email: "priya@example.com", Password: "seven77"}, "min"},

		{"login", &LoginRequest{Email: "priya@example.com", Password: "x"}, ""},
		{"login missing password", &LoginRequest{Email: "priya@example.com"}, "required"},
		{"login bad email", &LoginRequest{Email: "priya", Password: "x"}, "email"},

		{"change password", &UpdatePasswordRequest{CurrentPassword: "old", NewPassword: "brand-new-pw"}, ""},
		{"change password short", &UpdatePasswordRequest{CurrentPassword: "old", NewPassword: "short"}, "min"},
		{"change password missing current", &UpdatePasswordRequest{NewPassword: "brand-new-pw"}, "required"},

		{"reset request", &PasswordResetRequest{Email: "priya@example.com"}, ""},
		{"reset request empty", &PasswordResetRequest{}, "required"},

		{"reset confirm", &PasswordResetConfirmRequest{Token: strings.Repeat("ab", 32), NewPassword: "brand-new-pw"}, ""},
		{"reset confirm short token", &PasswordResetConfirmRequest{Token: "abc", NewPassword: "brand-new-pw"}, "min"},
		{"reset confirm short password", &PasswordResetConfirmRequest{Token: strings.Repeat("ab", 32), NewPassword: "short"}, "min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantTag)
		})
	}
}

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"empty", Profile{}, false},
		{"full", Profile{DisplayName: "Priya", Headline: "Backend engineer", TargetRole: "Staff Engineer", ExperienceLevel: "senior"}, false},
		{"every level", Profile{ExperienceLevel: "principal"}, false},
		{"unknown level", Profile{ExperienceLevel: "wizard"}, true},
		{"long name", Profile{DisplayName: strings.Repeat("x", 121)}, true},
		{"long headline", Profile{Headline: strings.Repeat("x", 201)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoginResponse_JSON(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	resp := LoginResponse{
		User:  &User{ID: userID, Name: "Priya", Email: "priya@example.com", PasswordSet: true, CreatedAt: now, UpdatedAt: now},
		Token: "header.payload.signature",
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password_hash")
	assert.NotContains(t, string(data), "phone", "empty phone is omitted")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "header.payload.signature", decoded["token"])

	user := decoded["user"].(map[string]any)
	assert.Equal(t, userID.String(), user["id"])
	assert.Equal(t, true, user["password_set"])
}

func TestProfile_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Profile{DisplayName: "Priya", ExperienceLevel: "mid", ResumeKey: "u/1.pdf"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"displayName":"Priya","experienceLevel":"mid","resumeKey":"u/1.pdf"}`, string(data))
}
