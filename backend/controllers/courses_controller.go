package controllers

import (
	"log"

	"skillsync/backend/middleware"
	"skillsync/backend/services"
	"skillsync/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CoursesController struct {
	Catalog     *services.Catalog
	Enrollments *services.Enrollments
	Logger      *log.Logger
}

func NewCoursesController(catalog *services.Catalog, enrollments *services.Enrollments, logger *log.Logger) *CoursesController {
	return &CoursesController{Catalog: catalog, Enrollments: enrollments, Logger: logger}
}

// ListCourses godoc
// @Summary List courses
// @Description Returns every course flagged with the caller's enrollment
// @Tags courses
// @Produce json
// @Success 200 {array} services.CourseSummary
// @Security ApiKeyAuth
// @Router /courses [get]
func (cc *CoursesController) ListCourses(c *fiber.Ctx) error {
	courses, err := cc.Catalog.ListCourses(c.UserContext(), middleware.CurrentSession(c))
	if err != nil {
		return respondError(c, cc.Logger, err, "", "Failed to fetch courses")
	}
	return utils.Success(c, fiber.StatusOK, courses)
}

// GetCourse godoc
// @Summary Course details
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.CourseDetail
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	detail, err := cc.Catalog.GetCourse(c.UserContext(), middleware.CurrentSession(c), c.Params("id"))
	if err != nil {
		return respondError(c, cc.Logger, err, "Course not found", "Failed to fetch course")
	}
	return utils.Success(c, fiber.StatusOK, detail)
}

func (cc *CoursesController) GetLesson(c *fiber.Ctx) error {
	detail, err := cc.Catalog.GetLesson(c.UserContext(), middleware.CurrentSession(c), c.Params("id"), c.Params("lessonId"))
	if err != nil {
		return respondError(c, cc.Logger, err, "Lesson not found", "Failed to fetch lesson")
	}
	return utils.Success(c, fiber.StatusOK, detail)
}

// Enroll godoc
// @Summary Enroll in a course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} models.Enrollment
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enrollment [post]
func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	enrollment, err := cc.Enrollments.Enroll(c.UserContext(), middleware.CurrentSession(c), c.Params("id"))
	if err != nil {
		return respondError(c, cc.Logger, err, "Course not found", "Failed to enroll")
	}
	return utils.Created(c, enrollment)
}

// Unenroll drops the enrollment together with its lesson progress.
func (cc *CoursesController) Unenroll(c *fiber.Ctx) error {
	if err := cc.Enrollments.Unenroll(c.UserContext(), middleware.CurrentSession(c), c.Params("id")); err != nil {
		return respondError(c, cc.Logger, err, "Course not found", "Failed to unenroll")
	}
	return utils.Message(c, fiber.StatusOK, "Unenrolled")
}

// CreateCourse godoc
// @Summary Create course
// @Tags admin
// @Accept json
// @Produce json
// @Param input body services.CourseInput true "Course data"
// @Success 201 {object} models.Course
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var input services.CourseInput
	if ok, err := bind(c, &input); !ok {
		return err
	}

	course, err := cc.Catalog.CreateCourse(c.UserContext(), input)
	if err != nil {
		return respondError(c, cc.Logger, err, "", "Failed to create course")
	}
	return utils.Created(c, course)
}

func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	var input services.CourseInput
	if ok, err := bind(c, &input); !ok {
		return err
	}

	course, err := cc.Catalog.UpdateCourse(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return respondError(c, cc.Logger, err, "Course not found", "Failed to update course")
	}
	return utils.Success(c, fiber.StatusOK, course)
}

func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	if err := cc.Catalog.DeleteCourse(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, cc.Logger, err, "Course not found", "Failed to delete course")
	}
	return utils.Message(c, fiber.StatusOK, "Course deleted")
}

func (cc *CoursesController) AddLesson(c *fiber.Ctx) error {
	var input services.LessonInput
	if ok, err := bind(c, &input); !ok {
		return err
	}

	lesson, err := cc.Catalog.CreateLesson(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return respondError(c, cc.Logger, err, "Course not found", "Failed to add lesson")
	}
	return utils.Created(c, lesson)
}

func (cc *CoursesController) UpdateLesson(c *fiber.Ctx) error {
	var input services.LessonInput
	if ok, err := bind(c, &input); !ok {
		return err
	}

	lesson, err := cc.Catalog.UpdateLesson(c.UserContext(), c.Params("id"), c.Params("lessonId"), input)
	if err != nil {
		return respondError(c, cc.Logger, err, "Lesson not found", "Failed to update lesson")
	}
	return utils.Success(c, fiber.StatusOK, lesson)
}

func (cc *CoursesController) DeleteLesson(c *fiber.Ctx) error {
	if err := cc.Catalog.DeleteLesson(c.UserContext(), c.Params("id"), c.Params("lessonId")); err != nil {
		return respondError(c, cc.Logger, err, "Lesson not found", "Failed to delete lesson")
	}
	return utils.Message(c, fiber.StatusOK, "Lesson deleted")
}
