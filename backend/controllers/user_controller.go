package controllers

import (
	"log"

	"skillsync/backend/middleware"
	"skillsync/backend/services"
	"skillsync/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Accounts *services.Accounts
	Logger   *log.Logger
}

func NewUserController(accounts *services.Accounts, logger *log.Logger) *UserController {
	return &UserController{Accounts: accounts, Logger: logger}
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,max=100" example:"Ada Lovelace"`
}

type UpdateAvatarRequest struct {
	Avatar string `json:"avatar" validate:"required" example:"data:image/png;base64,..."`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns the caller's profile, creating it on first access
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	user, err := uc.Accounts.GetProfile(c.UserContext(), middleware.CurrentSession(c))
	if err != nil {
		return respondError(c, uc.Logger, err, "User not found", "Failed to fetch profile")
	}
	return utils.Success(c, fiber.StatusOK, user)
}

// UpdateProfile changes the display name only.
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	var input UpdateProfileRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	user, err := uc.Accounts.UpdateName(c.UserContext(), middleware.CurrentSession(c), input.Name)
	if err != nil {
		return respondError(c, uc.Logger, err, "User not found", "Failed to update profile")
	}
	return utils.Success(c, fiber.StatusOK, user)
}

func (uc *UserController) UpdateAvatar(c *fiber.Ctx) error {
	var input UpdateAvatarRequest
	if ok, err := bind(c, &input); !ok {
		return err
	}

	user, err := uc.Accounts.UpdateAvatar(c.UserContext(), middleware.CurrentSession(c), input.Avatar)
	if err != nil {
		return respondError(c, uc.Logger, err, "User not found", "Failed to update avatar")
	}
	return utils.Success(c, fiber.StatusOK, user)
}

// DeleteAccount godoc
// @Summary Delete account
// @Description Removes the caller's enrollments, progress, profile and sign-in methods, then signs out
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /user [delete]
func (uc *UserController) DeleteAccount(c *fiber.Ctx) error {
	if err := uc.Accounts.DeleteAccount(c.UserContext(), middleware.CurrentSession(c)); err != nil {
		return respondError(c, uc.Logger, err, "User not found", "Failed to delete account")
	}
	c.ClearCookie(utils.TokenCookie)
	return utils.Message(c, fiber.StatusOK, "Account deleted", fiber.Map{"signedOut": true})
}
