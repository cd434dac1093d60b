package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/minicrm/minicrm/internal/auth"
	"github.com/minicrm/minicrm/internal/model"
	"github.com/minicrm/minicrm/internal/repository"
)

func newTestRepo(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(repo.Close)

	return repo
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUserService_CreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc := NewUserService(repo, testLogger())

	user, err := svc.Create(ctx, CreateUserInput{
		Email:    "  Alice@Example.com ",
		Name:     "Alice",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if user.Email != "alice@example.com" {
		t.Errorf("email should be trimmed and lower-cased, got %q", user.Email)
	}
	if user.Role != model.RoleUser {
		t.Errorf("role should default to user, got %q", user.Role)
	}

	// The stored hash verifies against the original password but is not
	// equal to it.
	stored, err := repo.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if stored.PasswordHash == "s3cret-pass" {
		t.Error("password must not be stored in plaintext")
	}
	if match, _ := auth.VerifyPassword("s3cret-pass", stored.PasswordHash); !match {
		t.Error("stored hash should verify against the original password")
	}

	if _, err := svc.Authenticate(ctx, "ALICE@example.com", "s3cret-pass"); err != nil {
		t.Errorf("Authenticate with correct credentials failed: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUserService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newTestRepo(t), testLogger())

	cases := []struct {
		name  string
		input CreateUserInput
		want  error
	}{
		{"missing email", CreateUserInput{Name: "X", Password: "p"}, ErrMissingFields},
		{"blank name", CreateUserInput{Email: "x@example.com", Name: "   ", Password: "p"}, ErrMissingFields},
		{"missing password", CreateUserInput{Email: "x@example.com", Name: "X"}, ErrMissingFields},
		{"unknown role", CreateUserInput{Email: "x@example.com", Name: "X", Password: "p", Role: "root"}, ErrInvalidRole},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newTestRepo(t), testLogger())

	input := CreateUserInput{Email: "dup@example.com", Name: "Dup", Password: "pass"}
	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	input.Email = "DUP@EXAMPLE.COM"
	if _, err := svc.Create(ctx, input); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	svc := NewUserService(repo, testLogger())

	if err := svc.EnsureAdmin(ctx, "admin@example.com", "admin123"); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}

	// The bootstrap credentials sign in immediately afterwards.
	admin, err := svc.Authenticate(ctx, "admin@example.com", "admin123")
	if err != nil {
		t.Fatalf("Authenticate after bootstrap failed: %v", err)
	}
	if admin.Role != model.RoleAdmin {
		t.Errorf("bootstrap account should be an administrator, got %q", admin.Role)
	}

	// A fresh service against the same store (a restarted process) must not
	// create a second administrator.
	if err := NewUserService(repo, testLogger()).EnsureAdmin(ctx, "other@example.com", "other"); err != nil {
		t.Fatalf("second EnsureAdmin failed: %v", err)
	}

	users, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("expected exactly one account after repeated bootstrap, got %d", len(users))
	}
}
