// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"codeberg.org/oliverandrich/go-auth-api/internal/i18n"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for the authentication endpoints.
type AuthHandlers struct {
	service           *auth.Service
	passwordValidator *auth.PasswordValidator
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(service *auth.Service) *AuthHandlers {
	return &AuthHandlers{
		service:           service,
		passwordValidator: auth.DefaultPasswordValidator(),
	}
}

// CredentialsRequest is the request body for signup and signin.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmailRequest is the request body for refresh, logout and forgot-password.
type EmailRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the request body for reset-password.
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Signup registers a new user and returns a token pair.
func (h *AuthHandlers) Signup(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if err := validateEmail(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid email address"})
	}
	if validation := h.passwordValidator.Validate(req.Password); !validation.Valid {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":   "password does not meet requirements",
			"details": (&auth.PasswordValidationError{Errors: validation.Errors}).Messages(),
		})
	}

	pair, err := h.service.Signup(c.Request().Context(), normalizeEmail(req.Email), req.Password)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, pair)
}

// Signin authenticates a user and returns a fresh token pair.
func (h *AuthHandlers) Signin(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if err := validateEmail(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid email address"})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "password is required"})
	}

	pair, err := h.service.Signin(c.Request().Context(), normalizeEmail(req.Email), req.Password)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, pair)
}

// Refresh exchanges the bearer refresh token for a new pair.
func (h *AuthHandlers) Refresh(c echo.Context) error {
	req, token, ok := h.bindRefreshRequest(c)
	if !ok {
		return nil
	}

	pair, err := h.service.Refresh(c.Request().Context(), normalizeEmail(req.Email), token)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, pair)
}

// Logout invalidates the active session.
func (h *AuthHandlers) Logout(c echo.Context) error {
	req, token, ok := h.bindRefreshRequest(c)
	if !ok {
		return nil
	}

	if err := h.service.Logout(c.Request().Context(), normalizeEmail(req.Email), token); err != nil {
		return h.serviceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// VerifyEmail confirms an account from the mailed link. It always answers
// 200 with either the success message or one generic failure message,
// never distinguishing the reason.
func (h *AuthHandlers) VerifyEmail(c echo.Context) error {
	email := c.QueryParam("email")
	hash := c.QueryParam("hash")

	ctx := c.Request().Context()
	if err := h.service.VerifyEmail(ctx, normalizeEmail(email), hash); err != nil {
		return c.String(http.StatusOK, i18n.T(ctx, "verify_email_failure"))
	}

	return c.String(http.StatusOK, i18n.T(ctx, "verify_email_success"))
}

// ForgotPassword issues and mails a password-reset token.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if err := validateEmail(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid email address"})
	}

	if err := h.service.ForgotPassword(c.Request().Context(), normalizeEmail(req.Email)); err != nil {
		return h.serviceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ResetPassword validates the mailed token and sets a new password.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if err := validateEmail(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid email address"})
	}
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "token is required"})
	}
	if validation := h.passwordValidator.Validate(req.Password); !validation.Valid {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":   "password does not meet requirements",
			"details": (&auth.PasswordValidationError{Errors: validation.Errors}).Messages(),
		})
	}

	pair, err := h.service.ResetPassword(c.Request().Context(), normalizeEmail(req.Email), req.Password, req.Token)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, pair)
}

// bindRefreshRequest binds the email body and extracts the bearer refresh
// token. On failure the response is already written and ok is false.
func (h *AuthHandlers) bindRefreshRequest(c echo.Context) (EmailRequest, string, bool) {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		_ = c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return req, "", false
	}

	if err := validateEmail(req.Email); err != nil {
		_ = c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid email address"})
		return req, "", false
	}

	token, ok := bearerToken(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return req, "", false
	}

	return req, token, true
}

// serviceError maps auth service errors to HTTP responses.
func (h *AuthHandlers) serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		return c.JSON(http.StatusConflict, map[string]string{"error": "email already taken"})
	case errors.Is(err, auth.ErrEmailNotFound), errors.Is(err, auth.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	case errors.Is(err, auth.ErrInvalidPassword):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
	case errors.Is(err, auth.ErrInvalidResetToken):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid token"})
	case errors.Is(err, auth.ErrResetTokenExpired):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "token is expired"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func validateEmail(email string) error {
	_, err := mail.ParseAddress(email)
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
