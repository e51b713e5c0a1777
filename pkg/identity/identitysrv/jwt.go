package identitysrv

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskforge/taskforge/pkg/identity"
	"github.com/taskforge/taskforge/pkg/kernel"
)

const (
	audienceAccess  = "taskforge-api"
	audienceRefresh = "taskforge-refresh"
)

// accessClaims are the claims carried by an access token.
type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (s *Service) mintTokenPair(user *identity.User) (*identity.TokenPair, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			Audience:  []string{audienceAccess},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	accessToken, err := access.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   user.ID.String(),
		Audience:  []string{audienceRefresh},
		ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	refreshToken, err := refresh.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &identity.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// VerifyAccessToken decodes and validates an access token. The audience claim
// is enforced, so a refresh token never passes as an access credential.
// Revocation is not checked here; callers that care run the claims through
// the guard.
func (s *Service) VerifyAccessToken(token string) (*identity.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithAudience(audienceAccess))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject claim")
	}
	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("missing issued-at claim")
	}

	out := &identity.Claims{
		UserID:   kernel.NewUserID(claims.Subject),
		Email:    claims.Email,
		IssuedAt: claims.IssuedAt.Time,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
