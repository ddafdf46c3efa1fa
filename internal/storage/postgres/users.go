package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adanyl0v/tasklist/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	userUUID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate user uuid: %w", err)
	}
	now := time.Now().Truncate(time.Microsecond)
	user.ID = userUUID.String()
	user.CreatedAt = now
	user.UpdatedAt = now

	const insertUserQuery = `
INSERT INTO users (id,
                   name,
                   email,
                   password,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Name,
		user.Email,
		user.Password,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", classify(err))
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	const selectUserByIDQuery = `
SELECT id,
       name,
       email,
       password,
       created_at,
       updated_at
FROM users
WHERE id = $1
`
	return s.selectUser(ctx, selectUserByIDQuery, userID)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const selectUserByEmailQuery = `
SELECT id,
       name,
       email,
       password,
       created_at,
       updated_at
FROM users
WHERE email = $1
`
	return s.selectUser(ctx, selectUserByEmailQuery, email)
}

func (s *Store) selectUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	err := s.pgPool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	return &user, nil
}
