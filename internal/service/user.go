// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minicrm/minicrm/internal/auth"
	"github.com/minicrm/minicrm/internal/model"
	"github.com/minicrm/minicrm/internal/repository"
)

// Service errors.
var (
	ErrMissingFields      = errors.New("required fields missing")
	ErrInvalidRole        = errors.New("invalid role")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserService handles account business logic.
type UserService struct {
	repo   *repository.Repository
	logger *slog.Logger

	bootstrapOnce sync.Once
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.Repository, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// CreateUserInput defines input for creating an account.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// Create validates the input, hashes the password and persists the account.
// The plaintext password never reaches the repository.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)

	if email == "" || name == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	role := model.Role(input.Role)
	if input.Role == "" {
		role = model.RoleUser
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("user_created",
		"user_id", user.ID,
		"role", string(user.Role),
	)

	return user, nil
}

// Authenticate verifies the credentials and returns the matching account.
// Every failure mode collapses into ErrInvalidCredentials so callers cannot
// distinguish an unknown email from a wrong password.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// List returns all accounts, newest-created first.
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	return s.repo.ListUsers(ctx)
}

// EnsureAdmin creates the bootstrap administrator when the store holds none.
// It runs its body at most once per process lifetime; a concurrent duplicate
// across processes is absorbed by the unique email constraint.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	var outerErr error

	s.bootstrapOnce.Do(func() {
		_, err := s.repo.FindAdministrator(ctx)
		if err == nil {
			return
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			outerErr = err
			return
		}

		admin, err := s.Create(ctx, CreateUserInput{
			Email:    email,
			Name:     "Admin",
			Password: password,
			Role:     string(model.RoleAdmin),
		})
		if err != nil {
			if errors.Is(err, ErrEmailTaken) {
				return
			}
			outerErr = fmt.Errorf("failed to bootstrap administrator: %w", err)
			return
		}

		s.logger.Info("administrator bootstrapped", "email", admin.Email)
	})

	return outerErr
}
