package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	token, expiresAt, err := svc.GenerateAccessToken("op-1", "ops@example.com", []string{RoleOperator}, false)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Error("token already expired")
	}

	op, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if op.ID != "op-1" || op.Email != "ops@example.com" {
		t.Errorf("claims mismatch: %+v", op)
	}
	if op.IsAdmin {
		t.Error("IsAdmin should be false")
	}
	if len(op.Roles) != 1 || op.Roles[0] != RoleOperator {
		t.Errorf("roles mismatch: %v", op.Roles)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, _, err := NewJWTService(DefaultJWTConfig("secret-a")).
		GenerateAccessToken("op-1", "ops@example.com", nil, false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewJWTService(DefaultJWTConfig("secret-b")).ValidateToken(token); err == nil {
		t.Error("expected validation failure with wrong secret")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	if _, err := svc.ValidateToken("not-a-token"); err == nil {
		t.Error("expected validation failure")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	token, _, err := NewJWTService(cfg).GenerateAccessToken("op-1", "ops@example.com", nil, false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewJWTService(DefaultJWTConfig("test-secret")).ValidateToken(token); err == nil {
		t.Error("expected validation failure for expired token")
	}
}
