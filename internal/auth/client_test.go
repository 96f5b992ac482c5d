package auth

import (
	"context"
	"testing"
	"time"
)

func newTestClient() *Client {
	return NewClient(Config{
		ServiceName:   "forms-search-indexer",
		ServiceSecret: "test-secret",
		TokenTTL:      time.Minute,
	})
}

func TestClient_GenerateAndValidate(t *testing.T) {
	client := newTestClient()
	ctx := context.Background()

	token, err := client.GenerateServiceToken(ctx)
	if err != nil {
		t.Fatalf("GenerateServiceToken() error = %v", err)
	}

	serviceContext, err := client.ValidateServiceToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateServiceToken() error = %v", err)
	}
	if serviceContext.ServiceName != "forms-search-indexer" {
		t.Errorf("ServiceName = %q", serviceContext.ServiceName)
	}
	if len(serviceContext.Permissions) == 0 {
		t.Errorf("expected permissions on the token")
	}
}

func TestClient_RejectsWrongSecret(t *testing.T) {
	ctx := context.Background()

	token, err := newTestClient().GenerateServiceToken(ctx)
	if err != nil {
		t.Fatalf("GenerateServiceToken() error = %v", err)
	}

	other := NewClient(Config{
		ServiceName:   "forms-search-indexer",
		ServiceSecret: "different-secret",
		TokenTTL:      time.Minute,
	})

	if _, err := other.ValidateServiceToken(ctx, token); err == nil {
		t.Fatalf("ValidateServiceToken() should reject a token signed with another secret")
	}
}

func TestClient_RejectsGarbage(t *testing.T) {
	client := newTestClient()

	if _, err := client.ValidateServiceToken(context.Background(), "not-a-jwt"); err == nil {
		t.Fatalf("ValidateServiceToken() should reject a malformed token")
	}
}

func TestClient_CachesValidation(t *testing.T) {
	client := newTestClient()
	ctx := context.Background()

	token, err := client.GenerateServiceToken(ctx)
	if err != nil {
		t.Fatalf("GenerateServiceToken() error = %v", err)
	}

	first, err := client.ValidateServiceToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateServiceToken() error = %v", err)
	}
	second, err := client.ValidateServiceToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateServiceToken() error = %v", err)
	}
	if first != second {
		t.Errorf("second validation should hit the cache")
	}
}
