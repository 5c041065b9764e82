// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

// TokenPair is the result of a successful signup, signin, refresh or
// password reset. Neither token is persisted; the server keeps only a
// bcrypt hash of the refresh token on the user record.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
