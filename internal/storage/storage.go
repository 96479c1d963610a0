package storage

import (
	"context"
	"errors"
	"strings"

	usermodel "github.com/arnavchau/authd/internal/models/user"
)

// ErrDuplicateEmail is returned when an insert collides with the store's
// unique email constraint. The constraint, not the application-level
// existence check, is the uniqueness guarantee.
var ErrDuplicateEmail = errors.New("email already exists")

// UserStore is the account store behind the auth flows.
// Lookups return (nil, nil) when no record matches.
type UserStore interface {
	CreateUser(ctx context.Context, req *usermodel.CreateUserRequest, passwordHash string) (*usermodel.User, error)
	GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error)
	GetUserByID(ctx context.Context, userID string) (*usermodel.User, error)
}

// NormalizeEmail applies the email case policy: addresses are stored and
// compared trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
