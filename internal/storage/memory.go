package storage

import (
	"context"
	"sync"
	"time"

	usermodel "github.com/arnavchau/authd/internal/models/user"
	"github.com/google/uuid"
)

// MemoryUserStorage is an in-process UserStore used by tests and local dev.
type MemoryUserStorage struct {
	mu      sync.RWMutex
	byID    map[string]*usermodel.User
	byEmail map[string]string
}

func NewMemoryUserStorage() *MemoryUserStorage {
	return &MemoryUserStorage{
		byID:    make(map[string]*usermodel.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUserStorage) CreateUser(ctx context.Context, req *usermodel.CreateUserRequest, passwordHash string) (*usermodel.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := NormalizeEmail(req.Email)
	if _, exists := s.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}

	now := time.Now()
	user := &usermodel.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         req.Name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.byID[user.ID] = user
	s.byEmail[email] = user.ID

	return copyUser(user), nil
}

func (s *MemoryUserStorage) GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[NormalizeEmail(email)]
	if !exists {
		return nil, nil
	}

	return copyUser(s.byID[id]), nil
}

func (s *MemoryUserStorage) GetUserByID(ctx context.Context, userID string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.byID[userID]
	if !exists {
		return nil, nil
	}

	return copyUser(user), nil
}

func copyUser(u *usermodel.User) *usermodel.User {
	c := *u
	return &c
}
