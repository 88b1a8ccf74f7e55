package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mossfern/verdant/internal/auth"
	"github.com/mossfern/verdant/internal/domain"
)

// UserService implements domain.UserService using PostgreSQL.
type UserService struct {
	pool *pgxpool.Pool
}

var _ domain.UserService = (*UserService)(nil)

// NewUserService creates a new PostgreSQL-backed user service.
func NewUserService(pool *pgxpool.Pool) *UserService {
	return &UserService{pool: pool}
}

// CreateUser stores a user with a bcrypt-hashed password.
func (s *UserService) CreateUser(ctx context.Context, params domain.CreateUserParams) (*domain.User, error) {
	if err := validate.Struct(params); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, "user.create", "invalid user")
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, domain.Invalid("user.create", "password must be at least 8 characters")
		}
		return nil, domain.Internal(err, "user.create", "failed to hash password")
	}

	var user domain.User
	err = s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, email, password_hash, created_at`,
		params.Username, params.Email, hash,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, domain.ErrEmailTaken
		}
		return nil, domain.Internal(err, "user.create", "failed to create user")
	}
	return &user, nil
}

// GetUser retrieves a user by id.
func (s *UserService) GetUser(ctx context.Context, id int32) (*domain.User, error) {
	var user domain.User
	err := s.pool.QueryRow(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1", id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Internal(err, "user.get", "failed to get user")
	}
	return &user, nil
}

// Authenticate verifies the email/password pair and returns the user.
// A missing account and a wrong password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	var user domain.User
	err := s.pool.QueryRow(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1", email,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBadCredentials
		}
		return nil, domain.Internal(err, "user.authenticate", "failed to look up user")
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, domain.ErrBadCredentials
		}
		return nil, domain.Internal(err, "user.authenticate", "failed to verify password")
	}
	return &user, nil
}
