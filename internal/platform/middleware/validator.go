package middleware

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// HMACValidator validates HS256 bearer tokens signed with a shared key.
type HMACValidator struct {
	key []byte
}

// NewHMACValidator creates a validator for the given signing key.
func NewHMACValidator(signingKey string) (*HMACValidator, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("hmac validator: signing key is required")
	}
	return &HMACValidator{key: []byte(signingKey)}, nil
}

// ValidateToken parses and verifies the token, returning its claims.
// Expiry and not-before are enforced by the jwt library.
func (v *HMACValidator) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", token.Claims)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	out := &JWTClaims{Subject: subject}
	if clientID, ok := claims["client_id"].(string); ok {
		out.ClientID = clientID
	}
	return out, nil
}
