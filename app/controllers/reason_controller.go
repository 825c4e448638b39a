package controllers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finbloc/payblock/app/models"
	"github.com/finbloc/payblock/app/repository"
	"github.com/finbloc/payblock/internal/pkg/cache"
)

const (
	reasonCacheKey = "catalog:block-reasons"
	reasonCacheTTL = 30 * time.Minute
)

type createReasonRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	IsFraud     bool   `json:"is_fraud"`
}

// HandleListReasons returns the reason catalog. The catalog changes rarely,
// so reads go through the cache; creation invalidates it.
func HandleListReasons(c *fiber.Ctx) error {
	if cached, err := cache.Get(reasonCacheKey); err == nil && cached != "" {
		var reasons []models.BlockReason
		if err := json.Unmarshal([]byte(cached), &reasons); err == nil {
			return c.JSON(fiber.Map{"reasons": reasons})
		}
	}

	reasons, err := repository.GetGlobalRepositories().Reason.List()
	if err != nil {
		return respondRepoError(c, err, "reasons: listing failed")
	}

	if payload, err := json.Marshal(reasons); err == nil {
		if err := cache.Set(reasonCacheKey, string(payload), reasonCacheTTL); err != nil {
			log.Printf("reasons: caching catalog failed: %v", err)
		}
	}

	return c.JSON(fiber.Map{"reasons": reasons})
}

// HandleCreateReason adds a catalog entry. Admin only.
func HandleCreateReason(c *fiber.Ctx) error {
	var req createReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", "Invalid JSON body")
	}

	reason := &models.BlockReason{
		Code:        req.Code,
		Description: req.Description,
		IsFraud:     req.IsFraud,
	}
	if err := reason.Validate(); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	if err := repository.GetGlobalRepositories().Reason.Create(reason); err != nil {
		return respondRepoError(c, err, "reasons: creating reason failed")
	}

	if err := cache.Delete(reasonCacheKey); err != nil {
		log.Printf("reasons: invalidating catalog cache failed: %v", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Block reason created successfully",
		"reason": fiber.Map{
			"id":          reason.ID,
			"code":        reason.Code,
			"description": reason.Description,
			"is_fraud":    reason.IsFraud,
			"created_at":  reason.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
}
