package controllers

import (
	"log"
	"time"

	"skillsync/backend/config"
	"skillsync/backend/identity"
	"skillsync/backend/models"
	"skillsync/backend/services"
	"skillsync/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const oauthStateCookie = "skillsync_oauth_state"

type AuthController struct {
	Passwords *identity.PasswordProvider
	Google    *identity.GoogleProvider
	Accounts  *services.Accounts
	Cfg       *config.Config
	Logger    *log.Logger
}

func NewAuthController(passwords *identity.PasswordProvider, google *identity.GoogleProvider, accounts *services.Accounts, cfg *config.Config, logger *log.Logger) *AuthController {
	return &AuthController{Passwords: passwords, Google: google, Accounts: accounts, Cfg: cfg, Logger: logger}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates a password account and its profile
// @Tags auth
// @Accept json
// @Produce json
// @Param input body RegisterRequest true "Registration data"
// @Success 201 {object} AuthResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	id, err := ac.Passwords.SignUp(c.UserContext(), input.Email, input.Password, input.Name)
	if err != nil {
		return respondError(c, ac.Logger, err, "", "Could not create user")
	}
	return ac.signIn(c, fiber.StatusCreated, id)
}

// Login godoc
// @Summary User login
// @Tags auth
// @Accept json
// @Produce json
// @Param input body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	id, err := ac.Passwords.SignIn(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return respondError(c, ac.Logger, err, "", "Could not sign in")
	}
	return ac.signIn(c, fiber.StatusOK, id)
}

// GoogleLogin redirects to the Google consent screen.
func (ac *AuthController) GoogleLogin(c *fiber.Ctx) error {
	if ac.Google == nil {
		return utils.NotFound(c, "Google sign-in is not configured")
	}

	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(ac.Google.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

// GoogleCallback completes federated sign-in.
func (ac *AuthController) GoogleCallback(c *fiber.Ctx) error {
	if ac.Google == nil {
		return utils.NotFound(c, "Google sign-in is not configured")
	}

	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return utils.BadRequest(c, "Invalid OAuth state")
	}
	c.ClearCookie(oauthStateCookie)

	code := c.Query("code")
	if code == "" {
		return utils.BadRequest(c, "Missing authorization code")
	}

	id, err := ac.Google.Exchange(c.UserContext(), code)
	if err != nil {
		return respondError(c, ac.Logger, err, "", "Could not sign in with Google")
	}
	return ac.signIn(c, fiber.StatusOK, id)
}

// Logout clears the token cookie; bearer clients drop their token.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	c.ClearCookie(utils.TokenCookie)
	return utils.Message(c, fiber.StatusOK, "Logged out")
}

func (ac *AuthController) signIn(c *fiber.Ctx, status int, id *identity.Identity) error {
	user, err := ac.Accounts.EnsureProfile(c.UserContext(), id)
	if err != nil {
		return respondError(c, ac.Logger, err, "", "Could not create profile")
	}

	token, err := utils.GenerateJWTToken(id.UID, id.Email, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     utils.TokenCookie,
		Value:    token,
		Expires:  time.Now().Add(time.Duration(ac.Cfg.JWTTTLHours) * time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return utils.Success(c, status, AuthResponse{Token: token, User: user})
}
