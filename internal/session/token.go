package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrMissingSub   = errors.New("access token has no subject")
)

// accessClaims mirrors the claims of a hosted-auth access token. The subject
// is the user id; email rides along as a convenience claim.
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserFromAccessToken verifies an HS256 access token issued by the hosted
// auth provider and extracts the user identity from its claims.
func UserFromAccessToken(token string, secret []byte) (*User, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrMissingSub
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id: %w", ErrInvalidToken, err)
	}

	metadata := map[string]string{}
	if claims.Role != "" {
		metadata["role"] = claims.Role
	}

	return &User{
		ID:       userID,
		Email:    claims.Email,
		Metadata: metadata,
	}, nil
}

// FromAccessToken builds a session already signed in as the token's user.
func FromAccessToken(token string, secret []byte) (*MemorySession, error) {
	user, err := UserFromAccessToken(token, secret)
	if err != nil {
		return nil, err
	}

	s := NewMemorySession()
	s.SetUser(user)
	return s, nil
}
