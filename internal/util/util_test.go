package util

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestValidateJWT(t *testing.T) {
	signed := signToken(t, &Claims{
		Role: "admin",
		StandardClaims: jwt.StandardClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}, testSecret)

	claims, err := ValidateJWT(signed, testSecret)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("expected subject user-1, got %q", claims.Subject)
	}
	if claims.Role != "admin" {
		t.Errorf("expected role admin, got %q", claims.Role)
	}
}

func TestValidateJWTWrongSecret(t *testing.T) {
	signed := signToken(t, &Claims{
		StandardClaims: jwt.StandardClaims{Subject: "user-1", ExpiresAt: time.Now().Add(time.Hour).Unix()},
	}, "other-secret")
	if _, err := ValidateJWT(signed, testSecret); err == nil {
		t.Error("expected error for token signed with the wrong secret")
	}
}

func TestValidateJWTExpired(t *testing.T) {
	signed := signToken(t, &Claims{
		StandardClaims: jwt.StandardClaims{Subject: "user-1", ExpiresAt: time.Now().Add(-time.Hour).Unix()},
	}, testSecret)
	if _, err := ValidateJWT(signed, testSecret); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestValidateJWTMissingSubject(t *testing.T) {
	signed := signToken(t, &Claims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	}, testSecret)
	if _, err := ValidateJWT(signed, testSecret); err == nil {
		t.Error("expected error for token without a subject")
	}
}
