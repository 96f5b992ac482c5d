package middleware

import (
	"context"
	"net/http"
	"strings"

	"forms-search-indexer/internal/auth"

	"github.com/labstack/echo/v4"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// ServiceContextKey is the key for storing the caller identity in the
// request context
const ServiceContextKey contextKey = "service"

type AuthMiddleware struct {
	authClient *auth.Client
}

func NewAuthMiddleware(authClient *auth.Client) *AuthMiddleware {
	return &AuthMiddleware{
		authClient: authClient,
	}
}

func (m *AuthMiddleware) RequireServiceAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			serviceContext, err := m.authClient.ValidateServiceToken(c.Request().Context(), tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			ctx := context.WithValue(c.Request().Context(), ServiceContextKey, serviceContext)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func (m *AuthMiddleware) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			serviceContext, err := m.authClient.ValidateServiceToken(c.Request().Context(), tokenString)
			if err != nil {
				return next(c)
			}

			ctx := context.WithValue(c.Request().Context(), ServiceContextKey, serviceContext)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
