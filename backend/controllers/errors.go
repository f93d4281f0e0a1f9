package controllers

import (
	"errors"
	"log"

	"skillsync/backend/docstore"
	"skillsync/backend/identity"
	"skillsync/backend/services"
	"skillsync/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors onto the response envelopes. Anything
// unrecognised is logged and reported with the flat fallback message.
func respondError(c *fiber.Ctx, logger *log.Logger, err error, notFound, fallback string) error {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return utils.Unauthorized(c, "Unauthorized")
	case errors.Is(err, services.ErrForbidden):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, docstore.ErrNotFound):
		return utils.NotFound(c, notFound)
	case errors.Is(err, services.ErrAlreadyEnrolled),
		errors.Is(err, services.ErrStaleToggle),
		errors.Is(err, identity.ErrEmailTaken):
		return utils.Conflict(c, rootMessage(err))
	case errors.Is(err, docstore.ErrVersionConflict):
		return utils.Conflict(c, "The document was changed concurrently, please retry")
	case errors.Is(err, services.ErrInvalidAvatar),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, identity.ErrWeakPassword),
		errors.Is(err, docstore.ErrInvalidPath):
		return utils.BadRequest(c, rootMessage(err))
	case errors.Is(err, identity.ErrInvalidCredentials):
		return utils.Unauthorized(c, err.Error())
	case errors.Is(err, identity.ErrProvider):
		logger.Printf("Identity provider error: %v", err)
		return utils.Error(c, fiber.StatusBadGateway, "Sign-in provider failed")
	}
	logger.Printf("Error: %s: %v", fallback, err)
	return utils.InternalServerError(c, fallback)
}

// rootMessage returns the sentinel's own text rather than the wrapped chain.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		services.ErrAlreadyEnrolled, services.ErrStaleToggle, services.ErrInvalidAvatar,
		services.ErrInvalidRole, identity.ErrEmailTaken, identity.ErrWeakPassword,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// bind parses the body into dst and validates it, writing the error response
// itself. ok is false when a response has already been sent.
func bind(c *fiber.Ctx, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(dst); errs != nil {
		return false, utils.ValidationError(c, errs)
	}
	return true, nil
}
