package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const tokenTypeAccess = "access"

// TokenService issues and reads HS256 access tokens.
type TokenService struct {
	tokenAuth *jwtauth.JWTAuth
	ttl       time.Duration
	now       func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		tokenAuth: jwtauth.New("HS256", []byte(secret), nil, jwt.WithAcceptableSkew(30*time.Second)),
		ttl:       ttl,
		now:       time.Now,
	}
}

// JWTAuth exposes the underlying verifier for router middleware.
func (s *TokenService) JWTAuth() *jwtauth.JWTAuth {
	return s.tokenAuth
}

// Issue signs an access token for p.
func (s *TokenService) Issue(p Principal) (token string, expiresAt time.Time, err error) {
	expiresAt = s.now().Add(s.ttl)
	claims := map[string]interface{}{
		"user_id": p.ID,
		"name":    p.Name,
		"role":    string(p.Role),
		"type":    tokenTypeAccess,
		"exp":     expiresAt.Unix(),
	}
	_, token, err = s.tokenAuth.Encode(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Decode verifies a raw token and returns its principal.
func (s *TokenService) Decode(ctx context.Context, raw string) (Principal, error) {
	token, err := jwtauth.VerifyToken(s.tokenAuth, raw)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	claims, err := token.AsMap(ctx)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	return PrincipalFromClaims(claims)
}

// PrincipalFromClaims reads the identity claims set by Issue.
func PrincipalFromClaims(claims map[string]interface{}) (Principal, error) {
	if tokenType, _ := claims["type"].(string); tokenType != tokenTypeAccess {
		return Principal{}, ErrInvalidToken
	}
	id, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if id == "" || !Role(role).Valid() {
		return Principal{}, ErrInvalidToken
	}
	name, _ := claims["name"].(string)
	return Principal{ID: id, Name: name, Role: Role(role)}, nil
}
