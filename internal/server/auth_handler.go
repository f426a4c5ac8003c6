package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"foyer/internal/auth"
	"foyer/internal/store/postgres"
)

// UserDirectory is the account backend behind registration and login.
type UserDirectory interface {
	Create(ctx context.Context, email, passwordHash string) (postgres.User, error)
	GetByEmail(ctx context.Context, email string) (postgres.User, error)
}

type AuthHandler struct {
	users  UserDirectory
	tokens *auth.TokenManager
}

func NewAuthHandler(users UserDirectory, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "invalid email")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	passwordHash, err := auth.HashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		return serverError(c)
	}

	user, err := h.users.Create(c.Request().Context(), email, passwordHash)
	if err != nil {
		if errors.Is(err, postgres.ErrConflict) {
			return conflict(c, "email already registered")
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database error"})
	}

	token, _, err := h.tokens.NewToken(user.ID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, AuthResponse{Token: token, Email: user.Email})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "invalid email")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.GetByEmail(c.Request().Context(), email)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return unauthorized(c)
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database error"})
	}

	if err := auth.ComparePassword(user.PasswordHash, strings.TrimSpace(req.Password)); err != nil {
		return unauthorized(c)
	}

	token, _, err := h.tokens.NewToken(user.ID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, AuthResponse{Token: token, Email: user.Email})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": message})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
}

func conflict(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, map[string]string{"error": message})
}

func notFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, map[string]string{"error": message})
}

func serverError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
