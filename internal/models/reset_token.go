// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"

	"github.com/google/uuid"
)

// ResetToken authorizes a password reset. At most one live row exists per
// user: creating a new one deletes all prior rows for that user. Expiry is
// not stored; the auth service treats tokens older than five minutes as
// expired regardless of whether they were ever deleted.
type ResetToken struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64     `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
