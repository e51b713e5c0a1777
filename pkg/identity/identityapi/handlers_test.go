package identityapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/taskforge/taskforge/pkg/identity"
	"github.com/taskforge/taskforge/pkg/identity/identityapi"
	"github.com/taskforge/taskforge/pkg/kernel"
)

// fakeAuthority scripts every authority call so the handlers can be tested
// without a real token pipeline.
type fakeAuthority struct {
	signInPair *identity.TokenPair
	signInErr  error

	createPair *identity.TokenPair
	createErr  error

	resetErr    error
	resetEmails []string

	claims    *identity.Claims
	verifyErr error

	revoked   []kernel.UserID
	revokeErr error
}

func (f *fakeAuthority) SignIn(_ context.Context, _, _ string) (*identity.TokenPair, error) {
	return f.signInPair, f.signInErr
}

func (f *fakeAuthority) CreateUser(_ context.Context, _, _ string) (*identity.TokenPair, error) {
	return f.createPair, f.createErr
}

func (f *fakeAuthority) SendPasswordReset(_ context.Context, email string) error {
	if f.resetErr != nil {
		return f.resetErr
	}
	f.resetEmails = append(f.resetEmails, email)
	return nil
}

func (f *fakeAuthority) VerifyAccessToken(string) (*identity.Claims, error) {
	return f.claims, f.verifyErr
}

func (f *fakeAuthority) RevokeRefreshTokens(_ context.Context, uid kernel.UserID) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, uid)
	return nil
}

func (f *fakeAuthority) TokensValidSince(context.Context, kernel.UserID) (time.Time, error) {
	return time.Time{}, nil
}

func newAuthApp(authority identity.Authority) *fiber.App {
	app := fiber.New()
	identityapi.NewAuthHandlers(authority).RegisterRoutes(app)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any, header map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		buf = bytes.NewReader(raw)
	}

	req := httptest.NewRequest("POST", path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, decoded
}

func TestRegister_MintsTokens(t *testing.T) {
	app := newAuthApp(&fakeAuthority{
		createPair: &identity.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"},
	})

	resp, body := postJSON(t, app, "/api/users/register", map[string]any{
		"email": "a@example.com", "password": "secret",
	}, nil)

	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if body["message"] != "User created" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if body["accessToken"] != "access-1" || body["refreshToken"] != "refresh-1" {
		t.Fatalf("unexpected tokens: %v", body)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	app := newAuthApp(&fakeAuthority{})

	resp, body := postJSON(t, app, "/api/users/register", map[string]any{
		"email": "a@example.com", "password": "ab",
	}, nil)

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	violations, ok := body["message"].([]any)
	if !ok || len(violations) != 1 {
		t.Fatalf("expected one violation, got %v", body)
	}
	if violations[0] != "The password needs to be 6 characters at least" {
		t.Fatalf("unexpected violation: %v", violations[0])
	}
}

func TestRegister_NonStringPassword(t *testing.T) {
	app := newAuthApp(&fakeAuthority{})

	resp, body := postJSON(t, app, "/api/users/register", map[string]any{
		"email": "a@example.com", "password": 12345,
	}, nil)

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	violations, _ := body["message"].([]any)
	if len(violations) != 1 || violations[0] != "Invalid password value" {
		t.Fatalf("unexpected violations: %v", body)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	app := newAuthApp(&fakeAuthority{
		createErr: identity.NewAuthorityError(identity.CodeEmailAlreadyInUse, nil),
	})

	resp, body := postJSON(t, app, "/api/users/register", map[string]any{
		"email": "a@example.com", "password": "secret",
	}, nil)

	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if body["error"] != identity.CodeEmailAlreadyInUse {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestLogin_Success(t *testing.T) {
	app := newAuthApp(&fakeAuthority{
		signInPair: &identity.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"},
	})

	resp, body := postJSON(t, app, "/api/users/login", map[string]any{
		"email": "a@example.com", "password": "secret",
	}, nil)

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["message"] != "Login successful" || body["accessToken"] != "access-1" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	app := newAuthApp(&fakeAuthority{
		signInErr: identity.NewAuthorityError(identity.CodeInvalidCredential, nil),
	})

	resp, body := postJSON(t, app, "/api/users/login", map[string]any{
		"email": "a@example.com", "password": "wrong",
	}, nil)

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if body["error"] != identity.CodeInvalidCredential {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestLogin_Throttled(t *testing.T) {
	app := newAuthApp(&fakeAuthority{
		signInErr: identity.NewAuthorityError(identity.CodeTooManyRequests, nil),
	})

	resp, _ := postJSON(t, app, "/api/users/login", map[string]any{
		"email": "a@example.com", "password": "secret",
	}, nil)

	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
}

func TestLogin_UnknownCodeFallsBackTo500(t *testing.T) {
	app := newAuthApp(&fakeAuthority{
		signInErr: identity.NewAuthorityError("auth/some-new-failure", nil),
	})

	resp, body := postJSON(t, app, "/api/users/login", map[string]any{
		"email": "a@example.com", "password": "secret",
	}, nil)

	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if body["error"] != "auth/some-new-failure" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestRecover_SendsEmail(t *testing.T) {
	authority := &fakeAuthority{}
	app := newAuthApp(authority)

	resp, body := postJSON(t, app, "/api/users/recover", map[string]any{
		"email": "a@example.com",
	}, nil)

	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if body["message"] != "Email sent" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if len(authority.resetEmails) != 1 || authority.resetEmails[0] != "a@example.com" {
		t.Fatalf("unexpected reset calls: %v", authority.resetEmails)
	}
}

func TestRecover_UnknownUser(t *testing.T) {
	app := newAuthApp(&fakeAuthority{
		resetErr: identity.NewAuthorityError(identity.CodeUserNotFound, nil),
	})

	resp, body := postJSON(t, app, "/api/users/recover", map[string]any{
		"email": "nobody@example.com",
	}, nil)

	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if body["error"] != identity.CodeUserNotFound {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestLogout_MissingToken(t *testing.T) {
	authority := &fakeAuthority{}
	app := newAuthApp(authority)

	resp, body := postJSON(t, app, "/api/users/logout", nil, nil)

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if body["error"] != "Token not provided or invalid" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
	if len(authority.revoked) != 0 {
		t.Fatalf("nothing should be revoked: %v", authority.revoked)
	}
}

func TestLogout_BadToken(t *testing.T) {
	authority := &fakeAuthority{verifyErr: identity.ErrInvalidToken()}
	app := newAuthApp(authority)

	resp, _ := postJSON(t, app, "/api/users/logout", nil, map[string]string{
		"Authorization": "Bearer garbage",
	})

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if len(authority.revoked) != 0 {
		t.Fatalf("nothing should be revoked: %v", authority.revoked)
	}
}

func TestLogout_RevokesSubject(t *testing.T) {
	authority := &fakeAuthority{
		claims: &identity.Claims{UserID: "user-1", IssuedAt: time.Now().UTC()},
	}
	app := newAuthApp(authority)

	resp, body := postJSON(t, app, "/api/users/logout", nil, map[string]string{
		"Authorization": "Bearer valid-token",
	})

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["message"] != "Successful logout" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if len(authority.revoked) != 1 || authority.revoked[0] != "user-1" {
		t.Fatalf("unexpected revocations: %v", authority.revoked)
	}
}
