package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

// UserRepository provides access to user records.
type UserRepository struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool, logger logger.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// CreateUser creates a user with the given public ID and a generated
// secondary UUID.
func (r *UserRepository) CreateUser(ctx context.Context, publicID, username string) (*User, error) {
	secondary := uuid.New()

	var user User
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (public_id, secondary_uuid, username)
		 VALUES ($1, $2, $3)
		 RETURNING id, public_id, secondary_uuid, username, created_at, updated_at`,
		publicID, secondary, username,
	).Scan(&user.ID, &user.PublicID, &user.SecondaryUUID, &user.Username, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create user", logger.ErrorField(err), logger.StringField("username", username))
		return nil, fmt.Errorf("create user: %w", err)
	}

	r.logger.Info("created user", logger.StringField("public_id", user.PublicID))
	return &user, nil
}

// GetByPublicID returns the user with the given public identifier.
func (r *UserRepository) GetByPublicID(ctx context.Context, publicID string) (*User, error) {
	var user User
	err := r.db.QueryRow(ctx,
		`SELECT id, public_id, secondary_uuid, username, created_at, updated_at
		 FROM users WHERE public_id = $1`,
		publicID,
	).Scan(&user.ID, &user.PublicID, &user.SecondaryUUID, &user.Username, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// SecondaryID returns the user's secondary UUID as a string. This is the
// preferred identity for memory scoping; callers fall back to the public ID
// when this lookup fails.
func (r *UserRepository) SecondaryID(ctx context.Context, publicID string) (string, error) {
	var secondary uuid.UUID
	err := r.db.QueryRow(ctx,
		`SELECT secondary_uuid FROM users WHERE public_id = $1`,
		publicID,
	).Scan(&secondary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get secondary id: %w", err)
	}
	return secondary.String(), nil
}
