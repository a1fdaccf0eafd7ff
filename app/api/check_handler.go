package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"ragchat/types"
)

type StatsProvider interface {
	Stats(context.Context) (types.StoreStats, error)
}

type CheckHandler struct {
	stats StatsProvider
}

func NewCheckHandler(stats StatsProvider) *CheckHandler {
	return &CheckHandler{stats: stats}
}

func (h *CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"result": "ok"})
}

// HandleStats reports how many documents and chunks are indexed.
func (h *CheckHandler) HandleStats(c *fiber.Ctx) error {
	st, err := h.stats.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(st)
}
