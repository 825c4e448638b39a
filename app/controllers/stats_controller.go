package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finbloc/payblock/app/repository"
)

// HandleHealth is the liveness probe.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

// HandleStats returns aggregate block statistics computed from the current
// store state at call time.
func HandleStats(c *fiber.Ctx) error {
	stats, err := repository.GetGlobalRepositories().Block.Stats()
	if err != nil {
		return respondRepoError(c, err, "stats: aggregation failed")
	}

	byReason := make([]fiber.Map, 0, len(stats.ByReason))
	for _, rc := range stats.ByReason {
		byReason = append(byReason, fiber.Map{
			"reason":       serializeReason(&rc.Reason),
			"active_count": rc.ActiveCount,
		})
	}

	return c.JSON(fiber.Map{
		"total_clients": stats.TotalClients,
		"total_blocks":  stats.TotalBlocks,
		"active_blocks": stats.ActiveBlocks,
		"blocks_by_type": fiber.Map{
			"fraud":     stats.FraudActive,
			"non_fraud": stats.NonFraudActive,
		},
		"blocks_by_reason": byReason,
		"recent_blocks":    stats.RecentBlocks,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}
