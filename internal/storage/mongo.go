package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	usermodel "github.com/arnavchau/authd/internal/models/user"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// MongoUserStorage is the default document-store backend.
type MongoUserStorage struct {
	client *mongo.Client
	users  *mongo.Collection
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

func NewMongoUserStorage(ctx context.Context, cfg MongoConfig) (*MongoUserStorage, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := &MongoUserStorage{
		client: client,
		users:  client.Database(cfg.Database).Collection(usersCollection),
	}

	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

// ensureIndexes installs the unique email index. The index is the real
// uniqueness boundary; the register handler's existence check is only a
// fast path.
func (s *MongoUserStorage) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

func (s *MongoUserStorage) CreateUser(ctx context.Context, req *usermodel.CreateUserRequest, passwordHash string) (*usermodel.User, error) {
	now := time.Now()
	user := &usermodel.User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(req.Email),
		Name:         req.Name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *MongoUserStorage) GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	var user usermodel.User
	err := s.users.FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (s *MongoUserStorage) GetUserByID(ctx context.Context, userID string) (*usermodel.User, error) {
	var user usermodel.User
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (s *MongoUserStorage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
