package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"ragchat/metrics"
)

// RequestLogger logs one line per request and records its duration once
// the handler chain, error handler included, has produced a status. m may
// be nil.
func RequestLogger(logger *slog.Logger, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		latency := time.Since(start)
		// Label values outlive the request; fiber reuses the buffers behind
		// c.Method() and the route.
		m.ObserveRequest(utils.CopyString(c.Method()), utils.CopyString(c.Route().Path), strconv.Itoa(status), latency.Seconds())

		logger.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", latency)
		return nil
	}
}
