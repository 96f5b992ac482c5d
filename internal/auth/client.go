package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Config struct {
	ServiceName   string
	ServiceSecret string
	TokenTTL      time.Duration
}

// Client issues and validates the HS256 service tokens that guard the
// admin endpoints. Validation is local, no round trip to an auth
// service.
type Client struct {
	config Config

	mu         sync.Mutex
	tokenCache map[string]*CachedToken
}

type CachedToken struct {
	Context   *ServiceContext
	ExpiresAt time.Time
}

// ServiceContext identifies the calling service after validation.
type ServiceContext struct {
	ServiceName string   `json:"service_name"`
	Permissions []string `json:"permissions"`
}

type ServiceClaims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

func NewClient(config Config) *Client {
	return &Client{
		config:     config,
		tokenCache: make(map[string]*CachedToken),
	}
}

// GenerateServiceToken signs a short-lived token for outbound calls.
func (c *Client) GenerateServiceToken(ctx context.Context) (string, error) {
	now := time.Now()
	claims := ServiceClaims{
		Permissions: []string{"index:read", "index:write"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.config.ServiceName,
			Subject:   c.config.ServiceName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(c.config.ServiceSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateServiceToken parses and verifies a bearer token and returns
// the calling service's identity.
func (c *Client) ValidateServiceToken(ctx context.Context, tokenString string) (*ServiceContext, error) {
	c.mu.Lock()
	if cached, exists := c.tokenCache[tokenString]; exists && cached.ExpiresAt.After(time.Now()) {
		c.mu.Unlock()
		return cached.Context, nil
	}
	c.mu.Unlock()

	claims := &ServiceClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(c.config.ServiceSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	serviceContext := &ServiceContext{
		ServiceName: claims.Subject,
		Permissions: claims.Permissions,
	}

	c.mu.Lock()
	c.tokenCache[tokenString] = &CachedToken{
		Context:   serviceContext,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	c.mu.Unlock()

	return serviceContext, nil
}
