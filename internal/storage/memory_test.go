package storage

import (
	"context"
	"errors"
	"testing"

	usermodel "github.com/arnavchau/authd/internal/models/user"
)

func TestMemoryUserStorage_CreateAndGet(t *testing.T) {
	store := NewMemoryUserStorage()
	ctx := context.Background()

	created, err := store.CreateUser(ctx, &usermodel.CreateUserRequest{
		Email: "alice@example.com",
		Name:  "Alice",
	}, "hashed-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Error("expected store-assigned ID")
	}

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byEmail == nil || byEmail.ID != created.ID {
		t.Fatalf("expected user %q by email, got %+v", created.ID, byEmail)
	}
	if byEmail.PasswordHash != "hashed-password" {
		t.Error("expected password hash to round-trip")
	}

	byID, err := store.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byID == nil || byID.Email != "alice@example.com" {
		t.Fatalf("expected user by ID, got %+v", byID)
	}
}

func TestMemoryUserStorage_DuplicateEmail(t *testing.T) {
	store := NewMemoryUserStorage()
	ctx := context.Background()

	req := &usermodel.CreateUserRequest{Email: "bob@example.com", Name: "Bob"}
	if _, err := store.CreateUser(ctx, req, "hash1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := store.CreateUser(ctx, req, "hash2")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestMemoryUserStorage_EmailCaseInsensitive(t *testing.T) {
	store := NewMemoryUserStorage()
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, &usermodel.CreateUserRequest{
		Email: "  Carol@Example.COM ",
		Name:  "Carol",
	}, "hash"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user, err := store.GetUserByEmail(ctx, "carol@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil {
		t.Fatal("expected lookup by normalized email to succeed")
	}
	if user.Email != "carol@example.com" {
		t.Errorf("expected stored email to be normalized, got %q", user.Email)
	}

	_, err = store.CreateUser(ctx, &usermodel.CreateUserRequest{
		Email: "CAROL@example.com",
		Name:  "Other Carol",
	}, "hash")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail for differently-cased email, got %v", err)
	}
}

func TestMemoryUserStorage_NotFound(t *testing.T) {
	store := NewMemoryUserStorage()
	ctx := context.Background()

	user, err := store.GetUserByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Error("expected nil for unknown email")
	}

	user, err = store.GetUserByID(ctx, "missing-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Error("expected nil for unknown ID")
	}
}

func TestMemoryUserStorage_ReturnsCopies(t *testing.T) {
	store := NewMemoryUserStorage()
	ctx := context.Background()

	created, err := store.CreateUser(ctx, &usermodel.CreateUserRequest{
		Email: "dave@example.com",
		Name:  "Dave",
	}, "hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created.Name = "Mutated"

	stored, err := store.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Name != "Dave" {
		t.Error("mutating a returned record must not affect the store")
	}
}
