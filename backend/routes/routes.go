package routes

import (
	"log"

	"skillsync/backend/config"
	"skillsync/backend/controllers"
	"skillsync/backend/docstore"
	"skillsync/backend/identity"
	"skillsync/backend/middleware"
	"skillsync/backend/notify"
	"skillsync/backend/services"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes wires the services over store and mounts every /api route.
// The services are returned so callers can share them with background jobs.
func SetupRoutes(app *fiber.App, store *docstore.Store, cfg *config.Config, logger *log.Logger) *services.Services {
	directory := identity.NewDirectory(store)
	svc := services.New(store, directory, notify.New(cfg, logger), cfg.BootstrapAdminEmail, logger)

	var google *identity.GoogleProvider
	if cfg.GoogleEnabled() {
		google = identity.NewGoogleProvider(cfg, store)
	}

	// Auth routes
	authController := controllers.NewAuthController(identity.NewPasswordProvider(store), google, svc.Accounts, cfg, logger)
	auth := app.Group("/api/auth")
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Get("/google/login", authController.GoogleLogin)
	auth.Get("/google/callback", authController.GoogleCallback)
	auth.Post("/logout", authController.Logout)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg, svc.Accounts)
	adminMiddleware := middleware.AdminMiddleware()

	// User routes
	userController := controllers.NewUserController(svc.Accounts, logger)
	user := app.Group("/api/user", authMiddleware)
	user.Get("/profile", userController.GetProfile)
	user.Put("/profile", userController.UpdateProfile)
	user.Put("/avatar", userController.UpdateAvatar)
	user.Delete("/", userController.DeleteAccount)

	// Courses routes
	coursesController := controllers.NewCoursesController(svc.Catalog, svc.Enrollments, logger)
	progressController := controllers.NewProgressController(svc.Progress, svc.Enrollments, logger)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/", coursesController.ListCourses)
	courses.Get("/:id", coursesController.GetCourse)
	courses.Post("/:id/enrollment", coursesController.Enroll)
	courses.Delete("/:id/enrollment", coursesController.Unenroll)
	courses.Get("/:id/lessons/:lessonId", coursesController.GetLesson)
	courses.Post("/:id/lessons/:lessonId/toggle", progressController.ToggleLesson)

	app.Get("/api/enrollments", authMiddleware, progressController.GetEnrollments)

	// Analytics routes
	analyticsController := controllers.NewAnalyticsController(svc.Analytics, logger)
	app.Get("/api/analytics", authMiddleware, analyticsController.GetAnalytics)

	// Admin routes for courses
	adminCourses := app.Group("/api/admin/courses", authMiddleware, adminMiddleware)
	adminCourses.Post("/", coursesController.CreateCourse)
	adminCourses.Put("/:id", coursesController.UpdateCourse)
	adminCourses.Delete("/:id", coursesController.DeleteCourse)
	adminCourses.Post("/:id/lessons", coursesController.AddLesson)
	adminCourses.Put("/:id/lessons/:lessonId", coursesController.UpdateLesson)
	adminCourses.Delete("/:id/lessons/:lessonId", coursesController.DeleteLesson)

	return svc
}
