package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/taskforge/taskforge/pkg/errx"
	"github.com/taskforge/taskforge/pkg/kernel"
)

// ============================================================================
// Types
// ============================================================================

// Claims is the decoded claim set of a verified access token.
type Claims struct {
	UserID    kernel.UserID `json:"uid"`
	Email     string        `json:"email"`
	IssuedAt  time.Time     `json:"iat"`
	ExpiresAt time.Time     `json:"exp"`
}

// Identity converts the claims into the per-request caller identity.
func (c *Claims) Identity() *kernel.CallerIdentity {
	return &kernel.CallerIdentity{
		UserID:   c.UserID,
		Email:    c.Email,
		IssuedAt: c.IssuedAt,
	}
}

// TokenPair is a freshly minted access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthorityError is a failure reported by the identity authority, carrying
// one of the stable authority error codes from codes.go. The lifecycle
// handlers translate the code to an HTTP status; the code itself is the only
// upstream detail ever exposed to clients.
type AuthorityError struct {
	Code string
	Err  error
}

func (e *AuthorityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *AuthorityError) Unwrap() error {
	return e.Err
}

// NewAuthorityError creates an AuthorityError with an optional cause.
func NewAuthorityError(code string, cause error) *AuthorityError {
	return &AuthorityError{Code: code, Err: cause}
}

// ============================================================================
// Ports
// ============================================================================

// Authority is the identity provider the core delegates all credential
// handling to: it mints, decodes and revokes tokens and owns the user
// accounts. The core never signs or verifies token signatures itself.
type Authority interface {
	// SignIn authenticates an email/password pair and mints a token pair.
	SignIn(ctx context.Context, email, password string) (*TokenPair, error)

	// CreateUser registers a new account and mints its first token pair.
	CreateUser(ctx context.Context, email, password string) (*TokenPair, error)

	// SendPasswordReset triggers a password-reset email for the account.
	SendPasswordReset(ctx context.Context, email string) error

	// VerifyAccessToken decodes a token and validates signature and expiry.
	// It does NOT check revocation; that is the guard's job.
	VerifyAccessToken(token string) (*Claims, error)

	// RevokeRefreshTokens invalidates every credential issued to the subject
	// before now. Tokens already in flight keep working until their issued-at
	// predates the recorded timestamp.
	RevokeRefreshTokens(ctx context.Context, uid kernel.UserID) error

	// TokensValidSince returns the subject's current revocation watermark.
	// The zero time means nothing has ever been revoked.
	TokensValidSince(ctx context.Context, uid kernel.UserID) (time.Time, error)
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IDENTITY")

var (
	CodeNoToken      = ErrRegistry.Register("NO_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "No token provided")
	CodeInvalidToken = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired token")
	CodeTokenRevoked = ErrRegistry.Register("TOKEN_REVOKED", errx.TypeAuthorization, http.StatusUnauthorized, "Token revoked or invalid")
)

func ErrNoToken() *errx.Error {
	return ErrRegistry.New(CodeNoToken)
}

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrTokenRevoked() *errx.Error {
	return ErrRegistry.New(CodeTokenRevoked)
}
