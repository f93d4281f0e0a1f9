package controllers

import (
	"log"

	"skillsync/backend/middleware"
	"skillsync/backend/services"
	"skillsync/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ProgressController struct {
	Progress    *services.Reconciler
	Enrollments *services.Enrollments
	Logger      *log.Logger
}

func NewProgressController(progress *services.Reconciler, enrollments *services.Enrollments, logger *log.Logger) *ProgressController {
	return &ProgressController{Progress: progress, Enrollments: enrollments, Logger: logger}
}

// ToggleLesson godoc
// @Summary Toggle lesson completion
// @Description Flips the lesson and updates the enrollment counter and course completion
// @Tags progress
// @Produce json
// @Param id path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} services.ToggleResult
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/lessons/{lessonId}/toggle [post]
func (pc *ProgressController) ToggleLesson(c *fiber.Ctx) error {
	result, err := pc.Progress.Toggle(c.UserContext(), middleware.CurrentSession(c), c.Params("id"), c.Params("lessonId"))
	if err != nil {
		return respondError(c, pc.Logger, err, "Lesson not found", "Failed to update progress")
	}
	return utils.Success(c, fiber.StatusOK, result)
}

// GetEnrollments returns the dashboard list of the caller's courses.
func (pc *ProgressController) GetEnrollments(c *fiber.Ctx) error {
	enrollments, err := pc.Enrollments.List(c.UserContext(), middleware.CurrentSession(c))
	if err != nil {
		return respondError(c, pc.Logger, err, "", "Failed to fetch enrollments")
	}
	return utils.Success(c, fiber.StatusOK, enrollments)
}
