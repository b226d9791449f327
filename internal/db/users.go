package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"yt-analytics/internal/models"
)

// CreateUser inserts a new user. The email is stored lower-cased.
func CreateUser(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, password_hash, created_at
	`
	user := &models.User{}
	err := DB.GetContext(ctx, user, query, uuid.NewString(), strings.ToLower(email), name, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		log.Error().Err(err).Msg("Error creating user")
		return nil, err
	}
	return user, nil
}

// GetUserByEmail looks a user up by email, case-insensitively.
func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := DB.GetContext(ctx, user, "SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1", strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
