package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"billease/internal/common"
	"billease/internal/models"
	"billease/internal/repositories"
	"billease/internal/services"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandlers handles signup, login and token refresh
type AuthHandlers struct {
	userRepo repositories.UserRepository
	authSvc  services.AuthService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(userRepo repositories.UserRepository, authSvc services.AuthService) *AuthHandlers {
	return &AuthHandlers{userRepo: userRepo, authSvc: authSvc}
}

// Signup handles POST /auth/signup
func (h *AuthHandlers) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return common.SendValidationError(c, "email", "A valid email address is required")
	}
	if len(req.Password) < 8 {
		return common.SendValidationError(c, "password", "Password must be at least 8 characters")
	}

	if existing, err := h.userRepo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return common.SendConflictError(c, "An account with this email already exists")
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return common.SendServerError(c, "Failed to check existing account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return common.SendServerError(c, "Failed to hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		return common.SendServerError(c, "Failed to create account: "+err.Error())
	}

	tokens, err := h.authSvc.GenerateTokens(ctx, user.ID)
	if err != nil {
		return common.SendServerError(c, "Account created but token issuance failed")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	})
}

// Login handles POST /auth/login
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendUnauthorizedError(c)
		}
		return common.SendServerError(c, "Failed to look up account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return common.SendUnauthorizedError(c)
	}

	tokens, err := h.authSvc.GenerateTokens(ctx, user.ID)
	if err != nil {
		return common.SendServerError(c, "Failed to issue tokens")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandlers) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.RefreshToken == "" {
		return common.SendValidationError(c, "refresh_token", "Refresh token is required")
	}

	tokens, err := h.authSvc.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			return common.SendUnauthorizedError(c)
		}
		return common.SendServerError(c, "Failed to refresh tokens")
	}

	return c.JSON(http.StatusOK, tokens)
}

// Me handles GET /auth/me
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return common.SendNotFoundError(c, "user")
	}

	return c.JSON(http.StatusOK, user)
}
