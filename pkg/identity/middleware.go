package identity

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/taskforge/taskforge/pkg/errx"
	"github.com/taskforge/taskforge/pkg/kernel"
)

const bearerPrefix = "Bearer "

// BearerToken extracts the raw token from an Authorization header value.
// The scheme prefix is matched case-sensitively.
func BearerToken(header string) (string, *errx.Error) {
	if header == "" {
		return "", ErrNoToken()
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrInvalidToken()
	}
	token := header[len(bearerPrefix):]
	if token == "" {
		return "", ErrInvalidToken()
	}
	return token, nil
}

// Guard is the request-level authentication gate for protected routes.
type Guard struct {
	authority Authority
}

// NewGuard creates a new access guard backed by the given authority.
func NewGuard(authority Authority) *Guard {
	return &Guard{authority: authority}
}

// Verify runs the full credential pipeline: scheme check, authority decode,
// then the revocation compare. Every failure comes back as a 401-status
// errx.Error; authority outages are deliberately not surfaced as 5xx.
func (g *Guard) Verify(ctx context.Context, bearerHeader string) (*kernel.CallerIdentity, error) {
	token, verr := BearerToken(bearerHeader)
	if verr != nil {
		return nil, verr
	}

	claims, err := g.authority.VerifyAccessToken(token)
	if err != nil {
		return nil, ErrInvalidToken().WithDetail("reason", err.Error())
	}

	validSince, err := g.authority.TokensValidSince(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken().WithDetail("reason", err.Error())
	}

	// Issued-at earlier than the revocation watermark means the credential
	// was minted before the subject's last logout. Compare on whole seconds:
	// the watermark is stored at second precision.
	if claims.IssuedAt.Truncate(time.Second).Before(validSince.Truncate(time.Second)) {
		return nil, ErrTokenRevoked()
	}

	return claims.Identity(), nil
}

// Authenticate is the Fiber middleware wrapping every protected route. On
// success the caller identity lands in the request locals; on failure the
// request short-circuits with a 401 and never reaches the handler.
func (g *Guard) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := g.Verify(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		c.Locals(kernel.CallerLocalsKey, caller)
		return c.Next()
	}
}

// CallerFromLocals retrieves the identity the guard bound to the request.
func CallerFromLocals(c *fiber.Ctx) (*kernel.CallerIdentity, bool) {
	caller, ok := c.Locals(kernel.CallerLocalsKey).(*kernel.CallerIdentity)
	if !ok || !caller.IsValid() {
		return nil, false
	}
	return caller, true
}
