package identitysrv

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskforge/taskforge/pkg/config"
	"github.com/taskforge/taskforge/pkg/errx"
	"github.com/taskforge/taskforge/pkg/identity"
	"github.com/taskforge/taskforge/pkg/kernel"
)

// Service is the built-in identity authority: Postgres-backed accounts,
// HS256 token minting and a Redis revocation watermark. It implements
// identity.Authority; everything above it only ever sees the port.
type Service struct {
	users       identity.UserRepository
	revocations identity.RevocationStore
	limiter     identity.LoginLimiter
	mailer      identity.ResetMailer

	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
}

// NewService wires the authority from its stores and the auth config.
func NewService(
	users identity.UserRepository,
	revocations identity.RevocationStore,
	limiter identity.LoginLimiter,
	mailer identity.ResetMailer,
	cfg *config.AuthConfig,
) *Service {
	return &Service{
		users:       users,
		revocations: revocations,
		limiter:     limiter,
		mailer:      mailer,
		secret:      []byte(cfg.JWTSecret),
		issuer:      cfg.Issuer,
		accessTTL:   cfg.AccessTokenTTL,
		refreshTTL:  cfg.RefreshTokenTTL,
		bcryptCost:  cfg.BcryptCost,
	}
}

// SignIn authenticates an email/password pair. Unknown accounts and wrong
// passwords both come back as auth/invalid-credential so sign-in cannot be
// used to probe which emails are registered.
func (s *Service) SignIn(ctx context.Context, email, password string) (*identity.TokenPair, error) {
	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		return nil, errx.Wrap(err, "login limiter unavailable", errx.TypeInternal)
	}
	if !allowed {
		return nil, identity.NewAuthorityError(identity.CodeTooManyRequests, nil)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		var authErr *identity.AuthorityError
		if errors.As(err, &authErr) && authErr.Code == identity.CodeUserNotFound {
			return nil, identity.NewAuthorityError(identity.CodeInvalidCredential, nil)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, identity.NewAuthorityError(identity.CodeInvalidCredential, nil)
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		return nil, errx.Wrap(err, "login limiter unavailable", errx.TypeInternal)
	}

	return s.mintTokenPair(user)
}

// CreateUser registers a new account and mints its first token pair.
func (s *Service) CreateUser(ctx context.Context, email, password string) (*identity.TokenPair, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, identity.NewAuthorityError(identity.CodeInvalidEmail, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}

	user := identity.User{
		ID:           kernel.NewUserID(uuid.NewString()),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	return s.mintTokenPair(&user)
}

// SendPasswordReset triggers a reset email for the account. Unknown emails
// surface as auth/user-not-found, matching the authority's own vocabulary.
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	return s.mailer.SendPasswordReset(ctx, user.Email)
}

// RevokeRefreshTokens moves the subject's revocation watermark to now. The
// check in the guard is forward-looking only: credentials minted after this
// instant remain valid.
func (s *Service) RevokeRefreshTokens(ctx context.Context, uid kernel.UserID) error {
	return s.revocations.SetValidSince(ctx, uid, time.Now().UTC().Truncate(time.Second))
}

// TokensValidSince reads the subject's revocation watermark. This is an
// external clock read on every verification, never a cached value, so logout
// takes effect immediately.
func (s *Service) TokensValidSince(ctx context.Context, uid kernel.UserID) (time.Time, error) {
	return s.revocations.ValidSince(ctx, uid)
}
