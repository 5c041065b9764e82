// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRole is assigned to every user at signup.
const DefaultRole = "user"

// User is an account record. RefreshTokenHash holds a bcrypt hash of the
// most recently issued refresh token; an empty string means no active
// session. Presenting an older refresh token fails the hash comparison,
// which is how rotation revokes superseded tokens.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID               uuid.UUID `db:"id" json:"id"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	RefreshTokenHash string    `db:"refresh_token_hash" json:"-"`
	Roles            string    `db:"roles" json:"roles"`
	IsEmailVerified  bool      `db:"is_email_verified" json:"is_email_verified"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// RoleList splits the comma-joined roles column into individual role tags.
func (u *User) RoleList() []string {
	if u.Roles == "" {
		return nil
	}
	return strings.Split(u.Roles, ",")
}
