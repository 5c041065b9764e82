// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserHandlers contains handlers for the user endpoints.
type UserHandlers struct {
	repo *repository.Repository
}

// NewUsers creates a new UserHandlers instance.
func NewUsers(repo *repository.Repository) *UserHandlers {
	return &UserHandlers{repo: repo}
}

// Me returns the account of the authenticated user. The hash columns carry
// `json:"-"` tags and never leave the server.
func (h *UserHandlers) Me(c echo.Context) error {
	claims := CurrentClaims(c)

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid access token"})
	}

	user, err := h.repo.GetUserByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, user)
}
