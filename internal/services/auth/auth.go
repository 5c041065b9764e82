// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements the credential and token lifecycle: signup,
// signin, refresh-token rotation, logout, email verification and password
// reset.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/models"
	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken          = errors.New("email already taken")
	ErrEmailNotFound       = errors.New("email not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidResetToken   = errors.New("invalid reset token")
	ErrResetTokenExpired   = errors.New("reset token expired")

	// ErrVerificationFailed deliberately covers every verify-email failure
	// so callers cannot distinguish the reasons; the cause is only logged.
	ErrVerificationFailed = errors.New("verification failed")
)

// maxResetTokenAge is how long an emailed reset token stays valid. The
// check is a strict greater-than, so a token presented exactly at the
// boundary still succeeds.
const maxResetTokenAge = 5 * time.Minute

// dummyHash is compared on unknown-email signins to keep the timing of the
// failure path close to the password-mismatch path.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcryptCost)

// Mailer sends the transactional mails triggered by auth flows.
type Mailer interface {
	SendActivation(ctx context.Context, toEmail, hash string) error
	SendPasswordReset(ctx context.Context, toEmail, token string) error
}

// Service orchestrates the auth flows over the user store, token signer and
// mailer. It holds no per-request state and is safe for concurrent use,
// but concurrent flows for the same user are not serialized: two
// simultaneous refresh calls can both read the old hash and both succeed,
// with the last write winning.
type Service struct {
	repo   *repository.Repository
	signer *Signer
	mailer Mailer
}

// NewService creates a new auth service.
func NewService(repo *repository.Repository, signer *Signer, mailer Mailer) *Service {
	return &Service{
		repo:   repo,
		signer: signer,
		mailer: mailer,
	}
}

// Signup creates a new user and logs them in. The activation mail carries
// the stored refresh-token hash as the verification token; a mail failure
// is logged but does not fail the signup.
func (s *Service) Signup(ctx context.Context, email, password string) (models.TokenPair, error) {
	exists, err := s.repo.UserExists(ctx, email)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		slog.Debug("signup_email_taken", "email", email)
		return models.TokenPair{}, ErrEmailTaken
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.TokenPair{}, ErrEmailTaken
		}
		return models.TokenPair{}, fmt.Errorf("failed to create user: %w", err)
	}

	pair, refreshHash, err := s.rotate(ctx, user)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := s.mailer.SendActivation(ctx, user.Email, refreshHash); err != nil {
		slog.Warn("activation_mail_failed", "user_id", user.ID, "error", err)
	}

	slog.Info("signup_success", "user_id", user.ID, "email", email)
	return pair, nil
}

// Signin verifies email and password and issues a fresh token pair,
// superseding any previously issued refresh token.
func (s *Service) Signin(ctx context.Context, email, password string) (models.TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = CheckPassword(password, string(dummyHash))
			slog.Warn("signin_failed", "email", email, "reason", "email_not_found")
			return models.TokenPair{}, ErrEmailNotFound
		}
		return models.TokenPair{}, fmt.Errorf("failed to get user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		slog.Warn("signin_failed", "email", email, "reason", "invalid_password")
		return models.TokenPair{}, ErrInvalidPassword
	}

	pair, _, err := s.rotate(ctx, user)
	if err != nil {
		return models.TokenPair{}, err
	}

	slog.Info("signin_success", "user_id", user.ID, "email", email)
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented
// token is permanently invalidated by the rotation.
func (s *Service) Refresh(ctx context.Context, email, presented string) (models.TokenPair, error) {
	user, err := s.authenticateRefresh(ctx, email, presented)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, _, err := s.rotate(ctx, user)
	if err != nil {
		return models.TokenPair{}, err
	}

	slog.Info("refresh_success", "user_id", user.ID)
	return pair, nil
}

// Logout validates the presented refresh token and clears the stored hash,
// invalidating all refresh attempts until the next signin.
func (s *Service) Logout(ctx context.Context, email, presented string) error {
	user, err := s.authenticateRefresh(ctx, email, presented)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateRefreshTokenHash(ctx, user.ID, ""); err != nil {
		return fmt.Errorf("failed to clear refresh token hash: %w", err)
	}

	slog.Info("logout_success", "user_id", user.ID)
	return nil
}

// VerifyEmail marks the account as verified when the presented hash matches
// the stored refresh-token hash. Every failure collapses into a single
// error so callers present one generic message; the real cause is logged
// here for observability.
func (s *Service) VerifyEmail(ctx context.Context, email, hash string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		slog.Warn("verify_email_failed", "email", email, "reason", "user_lookup", "error", err)
		return ErrVerificationFailed
	}

	if hash == "" || user.RefreshTokenHash != hash {
		slog.Warn("verify_email_failed", "email", email, "reason", "hash_mismatch")
		return ErrVerificationFailed
	}

	if err := s.repo.SetEmailVerified(ctx, user.ID); err != nil {
		slog.Warn("verify_email_failed", "email", email, "reason", "persist", "error", err)
		return ErrVerificationFailed
	}

	slog.Info("verify_email_success", "user_id", user.ID)
	return nil
}

// ForgotPassword issues a reset token for the user, replacing any prior
// one, and mails it out.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := GenerateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	if _, err := s.repo.CreateResetToken(ctx, user.ID, token); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}

	slog.Info("forgot_password_requested", "user_id", user.ID)
	return nil
}

// ResetPassword validates the emailed token, stores the new password and
// logs the user in with a fresh token pair.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword, token string) (models.TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.TokenPair{}, ErrUserNotFound
		}
		return models.TokenPair{}, fmt.Errorf("failed to get user: %w", err)
	}

	record, err := s.repo.GetResetTokenByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("reset_password_failed", "user_id", user.ID, "reason", "no_token")
			return models.TokenPair{}, ErrInvalidResetToken
		}
		return models.TokenPair{}, fmt.Errorf("failed to get reset token: %w", err)
	}

	if record.Token != token {
		slog.Warn("reset_password_failed", "user_id", user.ID, "reason", "token_mismatch")
		return models.TokenPair{}, ErrInvalidResetToken
	}

	if time.Since(record.CreatedAt) > maxResetTokenAge {
		slog.Warn("reset_password_failed", "user_id", user.ID, "reason", "token_expired")
		return models.TokenPair{}, ErrResetTokenExpired
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	pair, err := s.signer.IssuePair(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	refreshHash, err := HashToken(pair.RefreshToken)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to hash refresh token: %w", err)
	}

	if err := s.repo.UpdateCredentials(ctx, user.ID, passwordHash, refreshHash); err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to update credentials: %w", err)
	}

	slog.Info("reset_password_success", "user_id", user.ID)
	return pair, nil
}

// authenticateRefresh loads the user and checks the presented refresh token
// against signature, expiry and the stored fingerprint.
func (s *Service) authenticateRefresh(ctx context.Context, email, presented string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if _, err := s.signer.Verify(presented, TokenKindRefresh); err != nil {
		slog.Warn("refresh_rejected", "user_id", user.ID, "reason", "verify", "error", err)
		return nil, ErrInvalidRefreshToken
	}

	if user.RefreshTokenHash == "" {
		slog.Warn("refresh_rejected", "user_id", user.ID, "reason", "no_session")
		return nil, ErrInvalidRefreshToken
	}

	if err := CheckToken(presented, user.RefreshTokenHash); err != nil {
		slog.Warn("refresh_rejected", "user_id", user.ID, "reason", "hash_mismatch")
		return nil, ErrInvalidRefreshToken
	}

	return user, nil
}

// rotate issues a new pair and overwrites the stored refresh-token hash,
// superseding any earlier refresh token. Returns the pair and the stored
// hash value.
func (s *Service) rotate(ctx context.Context, user *models.User) (models.TokenPair, string, error) {
	pair, err := s.signer.IssuePair(user)
	if err != nil {
		return models.TokenPair{}, "", err
	}

	refreshHash, err := HashToken(pair.RefreshToken)
	if err != nil {
		return models.TokenPair{}, "", fmt.Errorf("failed to hash refresh token: %w", err)
	}

	if err := s.repo.UpdateRefreshTokenHash(ctx, user.ID, refreshHash); err != nil {
		return models.TokenPair{}, "", fmt.Errorf("failed to store refresh token hash: %w", err)
	}

	user.RefreshTokenHash = refreshHash
	return pair, refreshHash, nil
}
