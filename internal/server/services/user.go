// Package services implements the application logic between the HTTP layer
// and the repositories.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskkeeper/internal/common"
	"taskkeeper/internal/dbx"
	"taskkeeper/internal/logging"
	"taskkeeper/internal/server/auth"
	"taskkeeper/internal/server/avatar"
	"taskkeeper/internal/server/config"
	"taskkeeper/internal/server/mail"
	"taskkeeper/internal/server/models"
	"taskkeeper/internal/server/repositories/repomanager"
)

// RegisterInput is the payload accepted at signup.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Age      int
}

// UserUpdate is the allow-listed partial update of a profile. Nil fields are
// left untouched; anything outside these four fields is rejected before it
// gets here.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int
}

// UserService owns accounts, sessions, and avatars.
type UserService struct {
	db            *sql.DB
	repos         repomanager.RepositoryManager
	avatars       avatar.Store
	processor     *avatar.Processor
	mailer        mail.Mailer
	logger        logging.Logger
	jwtSecret     []byte
	tokenValidity time.Duration
	bcryptCost    int
}

// NewUserService wires the service from its collaborators.
func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, avatars avatar.Store,
	processor *avatar.Processor, mailer mail.Mailer, logger logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repos:         repos,
		avatars:       avatars,
		processor:     processor,
		mailer:        mailer,
		logger:        logger.With("module", "user_service"),
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		bcryptCost:    cfg.BcryptCost,
	}
}

func (s *UserService) issueToken(ctx context.Context, userID string) (string, error) {
	token, err := auth.GenerateToken(userID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	if err := s.repos.Sessions(s.db).Create(ctx, userID, token); err != nil {
		return "", err
	}
	return token, nil
}

// Register validates the input, stores the account, and opens the first
// session. The welcome email is fire-and-forget.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	user := &models.User{
		Name:  in.Name,
		Email: models.NormalizeEmail(in.Email),
		Age:   in.Age,
	}
	if err := user.Validate(); err != nil {
		return nil, "", err
	}
	if err := models.ValidatePassword(in.Password); err != nil {
		return nil, "", err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = hash

	user, err = s.repos.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	// Notify only after the whole signup succeeded.
	s.notify(user.Email, user.Name, s.mailer.SendWelcome)

	return user, token, nil
}

// Login verifies credentials and appends a fresh session token. The failure
// is identical for an unknown email and a wrong password.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", common.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, "", common.ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Authenticate resolves a bearer token to its user. The signature must
// verify and the exact token must still be present in the session list.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrUnauthorized
	}

	active, err := s.repos.Sessions(s.db).Exists(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, common.ErrUnauthorized
	}

	user, err := s.repos.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes exactly the presented token.
func (s *UserService) Logout(ctx context.Context, userID, token string) error {
	return s.repos.Sessions(s.db).Delete(ctx, userID, token)
}

// LogoutAll revokes every session the user holds.
func (s *UserService) LogoutAll(ctx context.Context, userID string) error {
	return s.repos.Sessions(s.db).DeleteAllForUser(ctx, userID)
}

// Get returns the account by id.
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.repos.Users(s.db).GetByID(ctx, userID)
}

// Update applies the allow-listed fields. A new password is re-validated and
// re-hashed; the stored value is never hashed twice.
func (s *UserService) Update(ctx context.Context, userID string, upd UserUpdate) (*models.User, error) {
	user, err := s.repos.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Email != nil {
		user.Email = models.NormalizeEmail(*upd.Email)
	}
	if upd.Age != nil {
		user.Age = *upd.Age
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if upd.Password != nil {
		if err := models.ValidatePassword(*upd.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*upd.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = hash
	}

	return s.repos.Users(s.db).Update(ctx, user)
}

// Delete removes the account, its tasks, and its sessions in one
// transaction, then sends the cancellation email best-effort.
func (s *UserService) Delete(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repos.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Tasks(tx).DeleteAllForOwner(ctx, userID); err != nil {
			return err
		}
		if err := s.repos.Sessions(tx).DeleteAllForUser(ctx, userID); err != nil {
			return err
		}
		return s.repos.Users(tx).Delete(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	s.notify(user.Email, user.Name, s.mailer.SendCancellation)

	return user, nil
}

// SetAvatar normalizes the uploaded image and stores the resulting PNG.
func (s *UserService) SetAvatar(ctx context.Context, userID string, data []byte) error {
	png, err := s.processor.Normalize(data)
	if err != nil {
		return err
	}
	return s.avatars.Set(ctx, userID, png)
}

// GetAvatar returns the stored PNG for any user id; no authentication.
func (s *UserService) GetAvatar(ctx context.Context, userID string) ([]byte, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, common.ErrNotFound
	}
	return s.avatars.Get(ctx, userID)
}

// DeleteAvatar clears the stored avatar.
func (s *UserService) DeleteAvatar(ctx context.Context, userID string) error {
	return s.avatars.Delete(ctx, userID)
}

// notify delivers a lifecycle email without blocking the request and without
// surfacing failures to the caller.
func (s *UserService) notify(email, name string, send func(context.Context, string, string) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := send(ctx, email, name); err != nil {
			s.logger.Warn(ctx, "notification failed", "email", email, "error", err.Error())
		}
	}()
}
