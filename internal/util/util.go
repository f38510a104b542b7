package util

import (
	"fmt"

	"github.com/dgrijalva/jwt-go"
)

// Claims are the JWT claims the marketplace issues: the subject is the user
// id and role carries the marketplace role (buyer, designer or admin).
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// ValidateJWT parses and verifies an HS256 bearer token and returns its
// claims.
func ValidateJWT(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}
