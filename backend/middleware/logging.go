package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LoggingMiddleware logs one line per request, coloured when colors is set.
func LoggingMiddleware(logger *log.Logger, colors bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		method := c.Method()

		var statusColor, methodColor, reset string
		if colors {
			statusColor, methodColor, reset = statusColorCode(status), methodColorCode(method), "\033[0m"
		}

		if err != nil {
			logger.Printf("%s %s%s%s %s %s%d%s %v error=%v",
				c.IP(), methodColor, method, reset, c.Path(), statusColor, status, reset, time.Since(start), err)
			return err
		}
		logger.Printf("%s %s%s%s %s %s%d%s %v",
			c.IP(), methodColor, method, reset, c.Path(), statusColor, status, reset, time.Since(start))
		return nil
	}
}

func statusColorCode(status int) string {
	switch {
	case status >= 500:
		return "\033[31m"
	case status >= 400:
		return "\033[33m"
	case status >= 300:
		return "\033[36m"
	default:
		return "\033[32m"
	}
}

func methodColorCode(method string) string {
	switch method {
	case fiber.MethodGet:
		return "\033[34m"
	case fiber.MethodPost:
		return "\033[33m"
	case fiber.MethodPut:
		return "\033[36m"
	case fiber.MethodDelete:
		return "\033[31m"
	default:
		return "\033[37m"
	}
}
