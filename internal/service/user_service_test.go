package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arnavchau/authd/internal/auth"
	usermodel "github.com/arnavchau/authd/internal/models/user"
	"github.com/arnavchau/authd/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() (*UserService, *storage.MemoryUserStorage) {
	store := storage.NewMemoryUserStorage()
	jwtManager := auth.NewJWTManager("test-secret-key", time.Hour)
	return NewUserService(store, jwtManager, bcrypt.MinCost, nil), store
}

func registerTestUser(t *testing.T, svc *UserService) *usermodel.User {
	t.Helper()

	user, err := svc.Register(context.Background(), &usermodel.CreateUserRequest{
		Name:     "Test User",
		Email:    "a@x.com",
		Password: "secret123",
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	return user
}

func TestRegister(t *testing.T) {
	svc, store := newTestService()

	user := registerTestUser(t, svc)

	if user.ID == "" {
		t.Error("expected store-assigned user ID")
	}

	stored, err := store.GetUserByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatal("expected user to be persisted")
	}
	if stored.PasswordHash == "secret123" {
		t.Error("password must never be stored as plaintext")
	}
	if stored.PasswordHash == "" {
		t.Error("expected password hash to be stored")
	}
}

func TestRegister_MissingFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []*usermodel.CreateUserRequest{
		{Email: "a@x.com", Password: "secret123"},
		{Name: "Test", Password: "secret123"},
		{Name: "Test", Email: "a@x.com"},
		{},
	}

	for _, req := range cases {
		if _, err := svc.Register(ctx, req, RequestMeta{}); !errors.Is(err, ErrMissingFields) {
			t.Errorf("expected ErrMissingFields for %+v, got %v", req, err)
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	registerTestUser(t, svc)

	_, err := svc.Register(context.Background(), &usermodel.CreateUserRequest{
		Name:     "Other User",
		Email:    "a@x.com",
		Password: "different456",
	}, RequestMeta{})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	user := registerTestUser(t, svc)

	resp, err := svc.Login(context.Background(), &usermodel.LoginRequest{
		Email:    "a@x.com",
		Password: "secret123",
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Token == "" {
		t.Error("expected non-empty token")
	}
	if resp.UserID != user.ID {
		t.Errorf("expected UserID %q, got %q", user.ID, resp.UserID)
	}
	if !resp.ExpiresAt.After(time.Now()) {
		t.Error("expected expiry in the future")
	}
}

func TestLogin_TokenSubjectRoundTrip(t *testing.T) {
	store := storage.NewMemoryUserStorage()
	jwtManager := auth.NewJWTManager("test-secret-key", time.Hour)
	svc := NewUserService(store, jwtManager, bcrypt.MinCost, nil)
	user := registerTestUser(t, svc)

	resp, err := svc.Login(context.Background(), &usermodel.LoginRequest{
		Email:    "a@x.com",
		Password: "secret123",
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := jwtManager.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("failed to validate issued token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("expected token subject %q, got %q", user.ID, claims.UserID)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestService()
	registerTestUser(t, svc)

	_, err := svc.Login(context.Background(), &usermodel.LoginRequest{
		Email:    "nobody@x.com",
		Password: "secret123",
	}, RequestMeta{})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService()
	registerTestUser(t, svc)

	_, err := svc.Login(context.Background(), &usermodel.LoginRequest{
		Email:    "a@x.com",
		Password: "wrong",
	}, RequestMeta{})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc, _ := newTestService()

	cases := []*usermodel.LoginRequest{
		{Email: "a@x.com"},
		{Password: "secret123"},
		{},
	}

	for _, req := range cases {
		if _, err := svc.Login(context.Background(), req, RequestMeta{}); !errors.Is(err, ErrMissingFields) {
			t.Errorf("expected ErrMissingFields for %+v, got %v", req, err)
		}
	}
}

func TestProfile(t *testing.T) {
	svc, _ := newTestService()
	user := registerTestUser(t, svc)

	profile, err := svc.Profile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Email != "a@x.com" {
		t.Errorf("expected email 'a@x.com', got %q", profile.Email)
	}
	if profile.Name != "Test User" {
		t.Errorf("expected name 'Test User', got %q", profile.Name)
	}
}

func TestProfile_UnknownUser(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Profile(context.Background(), "deleted-user-id")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
