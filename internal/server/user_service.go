package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/career-coach/internal/config"
	"github.com/jonathan/career-coach/internal/db"
	"github.com/jonathan/career-coach/internal/types"
)

// DBClient is the persistence surface used by UserService. *db.DB satisfies it.
type DBClient interface {
	CreateUser(ctx context.Context, name, email, phone string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	CreatePasswordResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*db.PasswordResetToken, error)
	ResetPassword(ctx context.Context, tokenHash, passwordHash string) (uuid.UUID, error)
	DeleteExpiredResetTokens(ctx context.Context) (int64, error)

	GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
	UpsertProfile(ctx context.Context, userID uuid.UUID, p *types.Profile) (*types.Profile, error)
	SetResumeKey(ctx context.Context, userID uuid.UUID, key string) error
}

// ResetNotifier delivers password reset tokens to their owner
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error
}

// LogResetNotifier writes reset tokens to the log. It stands in for an
// email sender in development deployments.
type LogResetNotifier struct {
	Logger *slog.Logger
}

// NotifyPasswordReset implements ResetNotifier
func (n *LogResetNotifier) NotifyPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error {
	n.Logger.InfoContext(ctx, "password reset issued",
		"email", email,
		"token", token,
		"expires_at", expiresAt.Format(time.RFC3339))
	return nil
}

// UserService provides business logic for accounts, sessions and profiles
type UserService struct {
	db             DBClient
	passwordConfig *config.PasswordConfig
	notifier       ResetNotifier
	logger         *slog.Logger
	now            func() time.Time
}

// NewUserService creates a new UserService with the given dependencies.
// A nil notifier logs reset tokens.
func NewUserService(db DBClient, passwordConfig *config.PasswordConfig, notifier ResetNotifier, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if notifier == nil {
		notifier = &LogResetNotifier{Logger: logger}
	}
	return &UserService{
		db:             db,
		passwordConfig: passwordConfig,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
}

// convertDBUserToTypesUser converts db.User to types.User, excluding password hash
func convertDBUserToTypesUser(dbUser *db.User) *types.User {
	if dbUser == nil {
		return nil
	}
	return &types.User{
		ID:          dbUser.ID,
		Name:        dbUser.Name,
		Email:       dbUser.Email,
		Phone:       dbUser.Phone,
		PasswordSet: dbUser.PasswordSet,
		CreatedAt:   dbUser.CreatedAt,
		UpdatedAt:   dbUser.UpdatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user with password authentication and an empty profile
func (s *UserService) Register(ctx context.Context, req *types.CreateUserRequest) (*types.User, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.db.CheckEmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, &ErrEmailAlreadyExists{Email: email}
	}

	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.db.CreateUser(ctx, strings.TrimSpace(req.Name), email, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.db.UpdatePassword(ctx, userID, passwordHash); err != nil {
		// Without a password the account is unusable; remove it so the
		// email can be registered again.
		if delErr := s.db.DeleteUser(ctx, userID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove half-created user", "user_id", userID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to set password: %w", err)
	}

	if _, err := s.db.UpsertProfile(ctx, userID, &types.Profile{DisplayName: strings.TrimSpace(req.Name)}); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	dbUser, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created user: %w", err)
	}
	if dbUser == nil {
		return nil, fmt.Errorf("created user not found: %s", userID)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", userID)
	return convertDBUserToTypesUser(dbUser), nil
}

// Login authenticates a user and returns user data
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	dbUser, err := s.db.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Unknown email, unset password and wrong password are indistinguishable
	if dbUser == nil || !dbUser.PasswordSet {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, dbUser.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	return convertDBUserToTypesUser(dbUser), nil
}

// UpdatePassword updates a user's password
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	dbUser, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if dbUser == nil {
		return &ErrUserNotFound{UserID: userID}
	}

	if !s.passwordConfig.VerifyPassword(currentPassword, dbUser.PasswordHash) {
		return &ErrPasswordMismatch{}
	}

	newPasswordHash, err := s.passwordConfig.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.db.UpdatePassword(ctx, userID, newPasswordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// RequestPasswordReset issues a reset token when the email belongs to an
// account. Unknown emails succeed silently so callers cannot enumerate
// registered addresses.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	s.sweepExpiredResetTokens(ctx)

	email = normalizeEmail(email)
	dbUser, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to get user by email: %w", err)
	}
	if dbUser == nil {
		s.logger.DebugContext(ctx, "password reset requested for unknown email")
		return nil
	}

	token, hash, err := config.NewResetToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.passwordConfig.ResetTTL)

	if _, err := s.db.CreatePasswordResetToken(ctx, dbUser.ID, hash, expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.notifier.NotifyPasswordReset(ctx, dbUser.Email, token, expiresAt); err != nil {
		return fmt.Errorf("failed to send reset token: %w", err)
	}
	return nil
}

// sweepExpiredResetTokens deletes tokens past their expiry. Issuing a token
// is the only thing that adds rows, so sweeping here keeps the table bounded.
func (s *UserService) sweepExpiredResetTokens(ctx context.Context) {
	removed, err := s.db.DeleteExpiredResetTokens(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to delete expired reset tokens", "error", err)
		return
	}
	if removed > 0 {
		s.logger.DebugContext(ctx, "deleted expired reset tokens", "count", removed)
	}
}

// ConfirmPasswordReset sets a new password using a reset token. Returns
// db.ErrResetTokenInvalid for unknown, used or expired tokens.
func (s *UserService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	passwordHash, err := s.passwordConfig.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	userID, err := s.db.ResetPassword(ctx, config.HashResetToken(token), passwordHash)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password reset completed", "user_id", userID)
	return nil
}

// GetProfile returns the user's profile; users who never saved one get an
// empty profile.
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	p, err := s.db.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &types.Profile{}, nil
	}
	return p, nil
}

// UpdateProfile replaces the editable profile fields. The resume key is
// owned by the resume upload and is carried over from the stored profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, p *types.Profile) (*types.Profile, error) {
	return s.db.UpsertProfile(ctx, userID, p)
}

// SetResumeKey records where the user's latest resume is stored
func (s *UserService) SetResumeKey(ctx context.Context, userID uuid.UUID, key string) error {
	return s.db.SetResumeKey(ctx, userID, key)
}
