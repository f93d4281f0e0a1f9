package controllers

import (
	"log"

	"skillsync/backend/middleware"
	"skillsync/backend/services"
	"skillsync/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type AnalyticsController struct {
	Analytics *services.Analytics
	Logger    *log.Logger
}

func NewAnalyticsController(analytics *services.Analytics, logger *log.Logger) *AnalyticsController {
	return &AnalyticsController{Analytics: analytics, Logger: logger}
}

// GetAnalytics godoc
// @Summary Learner analytics
// @Description Totals, weekly and monthly completions, and per course progress
// @Tags analytics
// @Produce json
// @Success 200 {object} models.Analytics
// @Security ApiKeyAuth
// @Router /analytics [get]
func (ac *AnalyticsController) GetAnalytics(c *fiber.Ctx) error {
	summary, err := ac.Analytics.Summary(c.UserContext(), middleware.CurrentSession(c))
	if err != nil {
		return respondError(c, ac.Logger, err, "", "Failed to fetch analytics")
	}
	return utils.Success(c, fiber.StatusOK, summary)
}
