package auth

import (
	"errors"
	"testing"
	"time"
)

func testConfig() JWTConfig {
	return JWTConfig{
		SecretKey:     "test-secret",
		TokenDuration: time.Hour,
		Issuer:        "hangout-hub-test",
	}
}

func TestGenerateAndValidate(t *testing.T) {
	manager := NewJWTManager(testConfig())

	token, err := manager.Generate("alice", true)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("username = %q, want alice", claims.Username)
	}
	if !claims.IsAdmin {
		t.Error("admin flag lost in round trip")
	}
	if claims.Issuer != "hangout-hub-test" {
		t.Errorf("issuer = %q, want hangout-hub-test", claims.Issuer)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	config := testConfig()
	config.TokenDuration = -time.Minute
	manager := NewJWTManager(config)

	token, err := manager.Generate("alice", false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := manager.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Validate error = %v, want ErrExpiredToken", err)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := NewJWTManager(testConfig()).Generate("alice", false)
	if err != nil {
		t.Fatal(err)
	}

	other := testConfig()
	other.SecretKey = "different-secret"
	if _, err := NewJWTManager(other).Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	manager := NewJWTManager(testConfig())

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate(%q) error = %v, want ErrInvalidToken", token, err)
		}
	}
}
