package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billease/internal/caching"
	"billease/internal/middleware"
	"billease/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// ErrInvalidRefreshToken is returned when a refresh token is unknown,
// expired or revoked.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type AuthService interface {
	GenerateTokens(ctx context.Context, userID uuid.UUID) (*models.TokenResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
}

type authService struct {
	jwtSecret []byte
	cacheSvc  caching.CacheService
}

func NewAuthService(jwtSecret string, cacheSvc caching.CacheService) AuthService {
	return &authService{jwtSecret: []byte(jwtSecret), cacheSvc: cacheSvc}
}

// GenerateTokens issues an access/refresh token pair. The refresh token is
// an opaque handle stored in redis; rotation on use revokes the old one.
func (s *authService) GenerateTokens(ctx context.Context, userID uuid.UUID) (*models.TokenResponse, error) {
	now := time.Now()
	claims := &middleware.JWTCustomClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken := uuid.NewString()
	refreshKey := fmt.Sprintf("refresh:%s", refreshToken)
	if err := s.cacheSvc.SetString(ctx, refreshKey, userID.String(), refreshTokenTTL); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

// RefreshTokens rotates a refresh token into a new token pair.
func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	refreshKey := fmt.Sprintf("refresh:%s", refreshToken)

	userIDStr, err := s.cacheSvc.GetString(ctx, refreshKey)
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if userIDStr == "" {
		return nil, ErrInvalidRefreshToken
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if err := s.cacheSvc.Delete(ctx, refreshKey); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	return s.GenerateTokens(ctx, userID)
}
