// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"errors"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/config"
	"codeberg.org/oliverandrich/go-auth-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind selects which signing key and TTL apply to a token.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// ErrTokenExpired is returned by Verify for well-formed tokens past their expiry.
var ErrTokenExpired = errors.New("token expired")

// ErrTokenInvalid is returned by Verify for malformed tokens, bad signatures
// and tokens signed with the wrong kind's key.
var ErrTokenInvalid = errors.New("token invalid")

// Claims carried by both token kinds. Refresh tokens additionally get a
// random jti so two refresh tokens for identical claims are never
// byte-identical; the server authenticates refresh tokens by re-hashing and
// comparing, so colliding tokens would be indistinguishable.
type Claims struct {
	Email           string   `json:"email"`
	Roles           []string `json:"roles"`
	IsEmailVerified bool     `json:"isEmailVerified"`
	jwt.RegisteredClaims
}

// Signer issues and verifies the access/refresh token pair. The two kinds
// use independent HS256 keys, so a refresh token never validates as an
// access token and vice versa.
type Signer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewSigner creates a Signer from the JWT configuration.
func NewSigner(cfg *config.JWTConfig) *Signer {
	return &Signer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

// IssuePair signs a fresh access/refresh token pair for the user.
func (s *Signer) IssuePair(user *models.User) (models.TokenPair, error) {
	now := time.Now()

	access, err := s.sign(user, now, TokenKindAccess)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := s.sign(user, now, TokenKindRefresh)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Signer) sign(user *models.User, now time.Time, kind TokenKind) (string, error) {
	claims := Claims{
		Email:           user.Email,
		Roles:           user.RoleList(),
		IsEmailVerified: user.IsEmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl(kind))),
		},
	}
	if kind == TokenKindRefresh {
		claims.ID = uuid.New().String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret(kind))
}

// Verify parses and validates a token of the expected kind and returns its
// claims. Expiry is enforced here, relative to the issuance time embedded
// in the token.
func (s *Signer) Verify(tokenStr string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret(kind), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func (s *Signer) secret(kind TokenKind) []byte {
	if kind == TokenKindRefresh {
		return s.refreshSecret
	}
	return s.accessSecret
}

func (s *Signer) ttl(kind TokenKind) time.Duration {
	if kind == TokenKindRefresh {
		return s.refreshTTL
	}
	return s.accessTTL
}
