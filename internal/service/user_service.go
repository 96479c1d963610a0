package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnavchau/authd/internal/auth"
	"github.com/arnavchau/authd/internal/events"
	"github.com/arnavchau/authd/internal/logger"
	usermodel "github.com/arnavchau/authd/internal/models/user"
	"github.com/arnavchau/authd/internal/storage"
)

// Sentinel errors the HTTP layer translates into status codes. Anything
// else coming out of this package is an internal error.
var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrEmailExists        = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RequestMeta carries client details into audit events.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type UserService struct {
	store      storage.UserStore
	jwtManager *auth.JWTManager
	bcryptCost int
	producer   *events.Producer
	log        *logger.Logger
}

// NewUserService wires the credential flows. producer may be nil, in which
// case no audit events are published.
func NewUserService(store storage.UserStore, jwtManager *auth.JWTManager, bcryptCost int, producer *events.Producer) *UserService {
	return &UserService{
		store:      store,
		jwtManager: jwtManager,
		bcryptCost: bcryptCost,
		producer:   producer,
		log:        logger.New("user-service"),
	}
}

func (s *UserService) Register(ctx context.Context, req *usermodel.CreateUserRequest, meta RequestMeta) (*usermodel.User, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	// Fast path only; the store's unique index is the real guarantee.
	existing, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPasswordWithCost(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, req, passwordHash)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			// Lost a race with a concurrent registration.
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.publish(ctx, &events.AuthEvent{
		Type:      events.TypeRegister,
		UserID:    user.ID,
		Email:     user.Email,
		Timestamp: time.Now().Unix(),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})

	return user, nil
}

func (s *UserService) Login(ctx context.Context, req *usermodel.LoginRequest, meta RequestMeta) (*usermodel.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		s.publishLoginFailed(ctx, "", req.Email, meta)
		return nil, ErrUserNotFound
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.publishLoginFailed(ctx, user.ID, user.Email, meta)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.publish(ctx, &events.AuthEvent{
		Type:      events.TypeLoginOK,
		UserID:    user.ID,
		Email:     user.Email,
		Timestamp: time.Now().Unix(),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})

	return &usermodel.AuthResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*usermodel.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		// Token subject no longer exists, e.g. deleted after issuance.
		return nil, ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) publishLoginFailed(ctx context.Context, userID, email string, meta RequestMeta) {
	s.publish(ctx, &events.AuthEvent{
		Type:      events.TypeLoginFailed,
		UserID:    userID,
		Email:     email,
		Timestamp: time.Now().Unix(),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
}

// publish never fails the request; a lost audit event is logged and dropped.
func (s *UserService) publish(ctx context.Context, event *events.AuthEvent) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to publish %s event: %v", event.Type, err)
	}
}
