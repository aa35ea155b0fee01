// Package auth turns bearer tokens into marketplace actors.
package auth

import (
	"errors"
	"fmt"
	"time"

	"agromarket/internal/config"
	"agromarket/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 access tokens. The subject claim carries
// the actor id.
type Tokens struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokens(cfg config.AuthConfig) *Tokens {
	return &Tokens{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		now:    time.Now,
	}
}

func (t *Tokens) Issue(actor models.Actor, ttl time.Duration) (string, error) {
	if !actor.Authenticated() {
		return "", fmt.Errorf("auth.Tokens.Issue: %w", models.ErrUnauthenticated)
	}

	now := t.now()
	claims := Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.Id.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth.Tokens.Issue: %w", err)
	}
	return token, nil
}

func (t *Tokens) Parse(token string) (models.Actor, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: subject is not a uuid: %w", ErrInvalidToken, err)
	}

	actor := models.Actor{Id: id, Role: claims.Role}
	if !actor.Authenticated() {
		return models.Actor{}, fmt.Errorf("%w: unknown role '%s'", ErrInvalidToken, claims.Role)
	}
	return actor, nil
}
