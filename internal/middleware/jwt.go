package middleware

import (
	"context"
	"errors"

	"billease/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// JWTCustomClaims are the claims embedded in access tokens.
type JWTCustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// ParseJWTPayload validates the claims of a decoded token and stamps the
// user ID into the request context.
func ParseJWTPayload(c echo.Context, claims *JWTCustomClaims) (*JWTCustomClaims, error) {
	if claims.UserID == "" {
		return nil, errors.New("token missing user_id claim")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, errors.New("token user_id is not a valid UUID")
	}

	ctx := context.WithValue(c.Request().Context(), common.UserIDKey, userID)
	c.SetRequest(c.Request().WithContext(ctx))

	return claims, nil
}
