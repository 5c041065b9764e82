// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"slices"

	"codeberg.org/oliverandrich/go-auth-api/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// claimsKey is the echo context key holding the verified access-token claims.
const claimsKey = "auth_claims"

// AccessToken returns middleware that authenticates the request with a
// bearer access token. Refresh tokens are signed with a different key and
// fail verification here.
func AccessToken(signer *auth.Signer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}

			claims, err := signer.Verify(token, auth.TokenKindAccess)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid access token"})
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// RequireRoles returns middleware that passes when the token carries at
// least one of the given roles. Runs after AccessToken.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := CurrentClaims(c)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}

			for _, role := range claims.Roles {
				if slices.Contains(roles, role) {
					return next(c)
				}
			}

			return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient role"})
		}
	}
}

// CurrentClaims returns the access-token claims set by AccessToken, or nil
// when the request was not authenticated.
func CurrentClaims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}
