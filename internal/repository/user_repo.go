package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"todoapp/internal/model"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// Create inserts a new user. The unique index on email decides the
// sign-in race: the loser gets ErrEmailTaken and should re-fetch.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (name, email, image)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, u.Name, u.Email, u.Image).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			r.logger.Warn("User already exists", zap.String("email", u.Email))
			return ErrEmailTaken
		case pgCheckViolation, pgStringTooLong:
			r.logger.Warn("User rejected by store validation", zap.Error(err))
			return ErrInvalidField
		}
		r.logger.Error("Failed to insert user", zap.Error(err), zap.String("email", u.Email))
		return err
	}
	r.logger.Info("User created", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	return nil
}

// FindByEmail returns the user with the given email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
        SELECT id, name, email, COALESCE(image, ''), created_at
        FROM users
        WHERE email = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.Image, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to query user", zap.Error(err), zap.String("email", email))
		return nil, err
	}
	return &u, nil
}
