package identity_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/taskforge/taskforge/pkg/errx"
	"github.com/taskforge/taskforge/pkg/identity"
	"github.com/taskforge/taskforge/pkg/kernel"
)

// stubAuthority implements identity.Authority for guard tests. Only the
// verification side is used; lifecycle methods are never reached.
type stubAuthority struct {
	claims        *identity.Claims
	verifyErr     error
	validSince    time.Time
	validSinceErr error
}

func (s *stubAuthority) SignIn(context.Context, string, string) (*identity.TokenPair, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAuthority) CreateUser(context.Context, string, string) (*identity.TokenPair, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAuthority) SendPasswordReset(context.Context, string) error {
	return errors.New("not implemented")
}

func (s *stubAuthority) VerifyAccessToken(string) (*identity.Claims, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.claims, nil
}

func (s *stubAuthority) RevokeRefreshTokens(context.Context, kernel.UserID) error {
	return nil
}

func (s *stubAuthority) TokensValidSince(context.Context, kernel.UserID) (time.Time, error) {
	return s.validSince, s.validSinceErr
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var appErr *errx.Error
	if !errx.As(err, &appErr) {
		t.Fatalf("expected *errx.Error, got %T", err)
	}
	if appErr.HTTPStatus != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", appErr.HTTPStatus)
	}
}

func TestGuardVerify_MissingHeader(t *testing.T) {
	guard := identity.NewGuard(&stubAuthority{})
	_, err := guard.Verify(context.Background(), "")
	assertUnauthorized(t, err)
}

func TestGuardVerify_WrongScheme(t *testing.T) {
	guard := identity.NewGuard(&stubAuthority{})

	// The scheme prefix is case-sensitive.
	for _, header := range []string{"bearer abc", "Basic abc", "Bearer", "Bearer "} {
		_, err := guard.Verify(context.Background(), header)
		assertUnauthorized(t, err)
	}
}

func TestGuardVerify_AuthorityErrorIsGeneric401(t *testing.T) {
	guard := identity.NewGuard(&stubAuthority{verifyErr: errors.New("upstream exploded")})
	_, err := guard.Verify(context.Background(), "Bearer some.token.here")
	assertUnauthorized(t, err)
}

func TestGuardVerify_RevokedToken(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	guard := identity.NewGuard(&stubAuthority{
		claims:     &identity.Claims{UserID: "user-1", IssuedAt: issued},
		validSince: issued.Add(30 * time.Minute),
	})

	_, err := guard.Verify(context.Background(), "Bearer some.token.here")
	assertUnauthorized(t, err)
}

func TestGuardVerify_IssuedAfterRevocation(t *testing.T) {
	validSince := time.Now().Add(-time.Hour)
	guard := identity.NewGuard(&stubAuthority{
		claims:     &identity.Claims{UserID: "user-1", IssuedAt: validSince.Add(time.Minute)},
		validSince: validSince,
	})

	caller, err := guard.Verify(context.Background(), "Bearer some.token.here")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if caller.UserID != "user-1" {
		t.Fatalf("unexpected caller: %+v", caller)
	}
}

func TestGuardVerify_NeverRevokedZeroTime(t *testing.T) {
	guard := identity.NewGuard(&stubAuthority{
		claims: &identity.Claims{UserID: "user-1", IssuedAt: time.Now()},
	})

	if _, err := guard.Verify(context.Background(), "Bearer some.token.here"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthenticate_BindsCallerAndShortCircuits(t *testing.T) {
	guard := identity.NewGuard(&stubAuthority{
		claims: &identity.Claims{UserID: "user-9", Email: "u9@test.com", IssuedAt: time.Now()},
	})

	app := fiber.New()
	app.Get("/protected", guard.Authenticate(), func(c *fiber.Ctx) error {
		caller, ok := identity.CallerFromLocals(c)
		if !ok {
			t.Fatal("caller identity missing from locals")
		}
		return c.JSON(fiber.Map{"uid": caller.UserID.String()})
	})

	// Without a credential the handler must never run.
	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if _, ok := body["error"]; !ok {
		t.Fatalf("expected error field in body, got %v", body)
	}

	// With a credential the identity reaches the handler.
	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer some.token.here")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body = nil
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["uid"] != "user-9" {
		t.Fatalf("unexpected uid: %v", body["uid"])
	}
}
