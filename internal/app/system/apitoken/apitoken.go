// Package apitoken issues and verifies the bearer tokens handed out by
// POST /login for non-browser clients.
//
// A token only names the user. The role it carries is informational; the
// auth middleware re-reads the user on every request, so role changes and
// disabled accounts apply before the token expires.
package apitoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/golang-jwt/jwt/v5"
)

const issuerName = "branchhub"

// MinSecretLen is the shortest signing secret NewIssuer accepts.
const MinSecretLen = 32

// ErrInvalidToken covers every verification failure: bad signature, wrong
// algorithm, expired, wrong issuer, missing subject.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. ttl must be positive.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("token secret must be at least %d characters", MinSecretLen)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// SetClock replaces the time source. Tests only.
func (i *Issuer) SetClock(now func() time.Time) { i.now = now }

// TTL returns how long issued tokens stay valid.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for userID.
func (i *Issuer) Issue(userID string, role rbac.Role) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("issue token: empty user id")
	}
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks raw and returns the user ID it names.
func (i *Issuer) Verify(raw string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
