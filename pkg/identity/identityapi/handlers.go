package identityapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/taskforge/taskforge/pkg/errx"
	"github.com/taskforge/taskforge/pkg/identity"
)

// AuthHandlers exposes the credential lifecycle: login, registration,
// password recovery and logout (revocation).
type AuthHandlers struct {
	authority identity.Authority
}

// NewAuthHandlers creates the handler set.
func NewAuthHandlers(authority identity.Authority) *AuthHandlers {
	return &AuthHandlers{authority: authority}
}

// RegisterRoutes mounts the user routes. None of them sit behind the access
// guard: login/register/recover are anonymous and logout does its own header
// verification.
func (h *AuthHandlers) RegisterRoutes(app *fiber.App) {
	users := app.Group("/api/users")
	users.Post("/login", h.Login)
	users.Post("/register", h.Register)
	users.Post("/recover", h.Recover)
	users.Post("/logout", h.Logout)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password any    `json:"password"`
}

// Login authenticates an email/password pair against the authority.
func (h *AuthHandlers) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	password, _ := req.Password.(string)
	pair, err := h.authority.SignIn(c.UserContext(), req.Email, password)
	if err != nil {
		return respondAuthorityError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":      "Login successful",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Register validates the password locally, then delegates account creation
// to the authority. Duplicate emails translate to a 409.
func (h *AuthHandlers) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if violations := identity.ValidatePassword(req.Password); len(violations) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": violations})
	}

	pair, err := h.authority.CreateUser(c.UserContext(), req.Email, req.Password.(string))
	if err != nil {
		return respondAuthorityError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "User created",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

type recoverRequest struct {
	Email string `json:"email"`
}

// Recover triggers a password-reset email for the account.
func (h *AuthHandlers) Recover(c *fiber.Ctx) error {
	var req recoverRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.authority.SendPasswordReset(c.UserContext(), req.Email); err != nil {
		return respondAuthorityError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Email sent"})
}

// Logout verifies the presented credential to learn the subject, then
// revokes every refresh token the authority issued to it. The access guard's
// revocation check is what makes this effective for unexpired tokens.
func (h *AuthHandlers) Logout(c *fiber.Ctx) error {
	token, verr := identity.BearerToken(c.Get(fiber.HeaderAuthorization))
	if verr != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Token not provided or invalid",
		})
	}

	claims, err := h.authority.VerifyAccessToken(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": identity.ErrInvalidToken().WithDetail("reason", err.Error()).Error(),
		})
	}

	if err := h.authority.RevokeRefreshTokens(c.UserContext(), claims.UserID); err != nil {
		return respondAuthorityError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Successful logout"})
}

// respondAuthorityError maps authority failures onto HTTP. Typed authority
// errors go through the static code table (unregistered codes conservatively
// become 500, never an invalid status); anything else is an unexpected
// upstream failure and surfaces as 500.
func respondAuthorityError(c *fiber.Ctx, err error) error {
	var authErr *identity.AuthorityError
	if errx.As(err, &authErr) {
		return c.Status(identity.StatusOrInternal(authErr.Code)).JSON(fiber.Map{
			"error": authErr.Code,
		})
	}

	logrus.WithError(err).Error("identity authority failure")

	var appErr *errx.Error
	if errx.As(err, &appErr) {
		return c.Status(appErr.HTTPStatus).JSON(fiber.Map{"error": appErr.Message})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
