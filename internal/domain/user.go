package domain

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

var (
	ErrUserNotFound   = &Error{Code: ENOTFOUND, Message: "User not found"}
	ErrEmailTaken     = &Error{Code: ECONFLICT, Message: "Email address already registered"}
	ErrBadCredentials = &Error{Code: EUNAUTHORIZED, Message: "Invalid email or password"}
)

// UserService provides user account storage. Session handling lives in the
// HTTP layer outside this core; the service only owns the records that cart
// items and reviews hang off.
type UserService interface {
	// CreateUser stores a user with a bcrypt-hashed password.
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)

	// GetUser retrieves a user by id.
	GetUser(ctx context.Context, id int32) (*User, error)

	// Authenticate verifies the email/password pair and returns the user.
	Authenticate(ctx context.Context, email, password string) (*User, error)
}

// CreateUserParams contains the fields for registering a user.
// Password is the plaintext; hashing happens inside the service.
type CreateUserParams struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// User is one row of the users table. PasswordHash never leaves the
// service layer.
type User struct {
	ID           int32
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    pgtype.Timestamptz
}
