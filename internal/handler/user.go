package handler

import (
	"net/http"

	"github.com/mossfern/verdant/internal/domain"
)

// UserHandler handles account registration and login
type UserHandler struct {
	users domain.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users domain.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type userResponse struct {
	ID       int32  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Register handles POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var params domain.CreateUserParams
	if err := decodeJSON(r, &params); err != nil {
		ErrorResponse(w, r, domain.Invalid("user.register", "Invalid request body"))
		return
	}

	user, err := h.users.CreateUser(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login handles POST /login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		ErrorResponse(w, r, domain.Invalid("user.login", "Invalid request body"))
		return
	}

	user, err := h.users.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
