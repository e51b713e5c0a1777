package identity

import (
	"context"
	"time"

	"github.com/taskforge/taskforge/pkg/kernel"
)

// User is a stored account owned by the built-in authority.
type User struct {
	ID           kernel.UserID `db:"id" json:"id"`
	Email        string        `db:"email" json:"email"`
	PasswordHash string        `db:"password_hash" json:"-"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// UserRepository defines the contract for account persistence.
type UserRepository interface {
	// Save inserts a new account. A duplicate email comes back as an
	// AuthorityError with code auth/email-already-in-use.
	Save(ctx context.Context, user User) error

	// FindByEmail returns the account, or an AuthorityError with code
	// auth/user-not-found when no account exists for the email.
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// RevocationStore persists the per-subject "tokens valid since" watermark.
type RevocationStore interface {
	SetValidSince(ctx context.Context, uid kernel.UserID, t time.Time) error

	// ValidSince returns the zero time when the subject never revoked.
	ValidSince(ctx context.Context, uid kernel.UserID) (time.Time, error)
}

// LoginLimiter throttles sign-in attempts per account.
type LoginLimiter interface {
	// Allow records an attempt and reports whether it may proceed.
	Allow(ctx context.Context, email string) (bool, error)

	// Reset clears the attempt counter after a successful sign-in.
	Reset(ctx context.Context, email string) error
}

// ResetMailer delivers password-reset emails.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, email string) error
}
