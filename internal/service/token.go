package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer signs and verifies session handles. A handle is an HS256 JWT
// whose jti names the in-memory session and whose exp bounds its lifetime.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer for handles valid for ttl
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed handle for a new session of subject
func (t *TokenIssuer) Issue(subject string) (token, id string, expiresAt time.Time, err error) {
	now := t.now()
	id = uuid.NewString()
	expiresAt = now.Add(t.ttl).Truncate(time.Second)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, id, expiresAt, nil
}

// Parse verifies a handle and returns the session id it names. Invalid,
// tampered and expired handles all yield ErrSessionNotFound.
func (t *TokenIssuer) Parse(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", ErrSessionNotFound)
		}
		return "", fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	if claims.ID == "" {
		return "", fmt.Errorf("%w: token without session id", ErrSessionNotFound)
	}
	return claims.ID, nil
}
