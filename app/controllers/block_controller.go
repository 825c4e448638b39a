package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finbloc/payblock/app/models"
	"github.com/finbloc/payblock/app/repository"
	"github.com/finbloc/payblock/internal/pkg/events"
	"github.com/finbloc/payblock/internal/pkg/usercontext"
)

type blockRequest struct {
	Reason        string `json:"reason"`
	ReasonID      uint   `json:"reason_id"`
	Notes         string `json:"notes"`
	ExpiresInDays *int   `json:"expires_in_days"`
	Force         bool   `json:"force"`
}

type unblockRequest struct {
	Reason string `json:"reason"`
}

type updateBlockRequest struct {
	Reason        *string `json:"reason"`
	ReasonID      *uint   `json:"reason_id"`
	Notes         *string `json:"notes"`
	ExpiresInDays *int    `json:"expires_in_days"`
}

// resolveReasonID turns either a reason code or a numeric reason id into the
// catalog id. The code takes precedence when both are given.
func resolveReasonID(code string, id uint) (uint, error) {
	repo := repository.GetGlobalFactory().GetBlockReasonRepository()
	if code != "" {
		reason, err := repo.GetByCode(code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return 0, repository.ErrInvalidReason
			}
			return 0, err
		}
		return reason.ID, nil
	}
	if id == 0 {
		return 0, repository.ErrInvalidReason
	}
	return id, nil
}

func validateNotes(notes string) error {
	if len(notes) > models.MAX_NOTES_LENGTH {
		return errors.New("notes are too long (max 1000 characters)")
	}
	return nil
}

// HandleBlockClient creates an active payment block for the client in the
// path. The client is auto-registered on first contact.
func HandleBlockClient(c *fiber.Ctx) error {
	var req blockRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", "Invalid JSON body")
	}
	if err := validateNotes(req.Notes); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	var expiresAt *time.Time
	if req.ExpiresInDays != nil {
		if *req.ExpiresInDays <= 0 {
			return errorResponse(c, fiber.StatusBadRequest, "validation_error", "expires_in_days must be positive")
		}
		expiresAt = expiryFromDays(*req.ExpiresInDays)
	}

	reasonID, err := resolveReasonID(req.Reason, req.ReasonID)
	if err != nil {
		return respondRepoError(c, err, "block: resolving reason failed")
	}

	actor := usercontext.GetUsername(c)
	block, err := repository.GetGlobalRepositories().Block.Block(repository.BlockRequest{
		ClientIdentifier: c.Params("identifier"),
		ReasonID:         reasonID,
		Notes:            req.Notes,
		CreatedBy:        actor,
		ExpiresAt:        expiresAt,
		Force:            req.Force,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyBlocked) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":     "already_blocked",
				"message":   "Client already has an active payment block",
				"can_force": true,
			})
		}
		return respondRepoError(c, err, "block: creating block failed")
	}

	events.PublishBlockEvent(events.EventBlockCreated, block, actor)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Client blocked successfully",
		"block":   serializeBlock(block),
	})
}

// HandleUnblockClient lifts the client's currently active block.
func HandleUnblockClient(c *fiber.Ctx) error {
	var req unblockRequest
	_ = c.BodyParser(&req)
	if err := validateNotes(req.Reason); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	repos := repository.GetGlobalRepositories()
	client, err := repos.Client.Resolve(c.Params("identifier"))
	if err != nil {
		return respondRepoError(c, err, "unblock: resolving client failed")
	}

	actor := usercontext.GetUsername(c)
	block, err := repos.Block.UnblockClient(client.ID, actor, req.Reason)
	if err != nil {
		return respondRepoError(c, err, "unblock: lifting block failed")
	}

	events.PublishBlockEvent(events.EventBlockUnblocked, block, actor)

	return c.JSON(fiber.Map{
		"message": "Block removed successfully",
		"block":   serializeBlock(block),
	})
}

// HandleUnblockBlock lifts a specific block by its id, regardless of whether
// it is the client's newest one.
func HandleUnblockBlock(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", "Invalid block id")
	}

	var req unblockRequest
	_ = c.BodyParser(&req)
	if err := validateNotes(req.Reason); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	actor := usercontext.GetUsername(c)
	block, err := repository.GetGlobalRepositories().Block.Unblock(uint(id), actor, req.Reason)
	if err != nil {
		return respondRepoError(c, err, "unblock: lifting block failed")
	}

	events.PublishBlockEvent(events.EventBlockUnblocked, block, actor)

	return c.JSON(fiber.Map{
		"message": "Block removed successfully",
		"block":   serializeBlock(block),
	})
}

// HandleClientStatus reports whether the client is currently blocked, with
// the active block's detail when it is.
func HandleClientStatus(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	client, err := repos.Client.Resolve(c.Params("identifier"))
	if err != nil {
		return respondRepoError(c, err, "status: resolving client failed")
	}

	response := fiber.Map{
		"client_id":         client.ID,
		"client_identifier": client.ClientIdentifier,
		"name":              client.Name,
		"is_blocked":        false,
		"active_block":      nil,
	}

	block, err := repos.Block.ActiveForClient(client.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNoActiveBlock) {
			return respondRepoError(c, err, "status: loading active block failed")
		}
		return c.JSON(response)
	}

	response["is_blocked"] = true
	response["active_block"] = serializeClientBlock(block)
	return c.JSON(response)
}

// HandleClientHistory returns every block ever created for the client,
// newest first, each with its audit trail in chronological order.
func HandleClientHistory(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	client, err := repos.Client.Resolve(c.Params("identifier"))
	if err != nil {
		return respondRepoError(c, err, "history: resolving client failed")
	}

	blocks, err := repos.Block.ListForClient(client.ID)
	if err != nil {
		return respondRepoError(c, err, "history: loading blocks failed")
	}

	items := make([]fiber.Map, 0, len(blocks))
	for i := range blocks {
		entry := serializeClientBlock(&blocks[i])
		entry["history"] = serializeHistory(blocks[i].History)
		items = append(items, entry)
	}

	return c.JSON(fiber.Map{
		"client_identifier": client.ClientIdentifier,
		"client_name":       client.Name,
		"block_history":     items,
	})
}

// parseBlockFilter builds the listing filter from query parameters. Invalid
// values are ignored rather than rejected.
func parseBlockFilter(c *fiber.Ctx) repository.BlockFilter {
	filter := repository.BlockFilter{}

	switch c.Query("status") {
	case models.BLOCK_STATUS_ACTIVE:
		filter.Status = models.BLOCK_STATUS_ACTIVE
	case models.BLOCK_STATUS_INACTIVE:
		filter.Status = models.BLOCK_STATUS_INACTIVE
	}
	if raw := c.Query("active"); raw != "" {
		if raw == "true" {
			filter.Status = models.BLOCK_STATUS_ACTIVE
		} else if raw == "false" {
			filter.Status = models.BLOCK_STATUS_INACTIVE
		}
	}
	if raw := c.Query("client_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			filter.ClientID = uint(id)
		}
	}
	if raw := c.Query("is_fraud"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.IsFraud = &v
		}
	}
	if raw := c.Query("date_from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.DateFrom = &t
		}
	}
	if raw := c.Query("date_to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.DateTo = &t
		}
	}

	filter.Limit, filter.Offset = parsePagination(c)
	return filter
}

// HandleListBlocks returns a filtered, paginated block listing.
func HandleListBlocks(c *fiber.Ctx) error {
	filter := parseBlockFilter(c)

	blocks, total, err := repository.GetGlobalRepositories().Block.List(filter)
	if err != nil {
		return respondRepoError(c, err, "blocks: listing failed")
	}

	items := make([]fiber.Map, 0, len(blocks))
	for i := range blocks {
		items = append(items, serializeBlock(&blocks[i]))
	}

	return c.JSON(fiber.Map{
		"blocks": items,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// HandleGetBlock returns one block with its full audit trail.
func HandleGetBlock(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", "Invalid block id")
	}

	block, err := repository.GetGlobalRepositories().Block.GetByID(uint(id))
	if err != nil {
		return respondRepoError(c, err, "blocks: loading block failed")
	}

	response := serializeBlock(block)
	response["history"] = serializeHistory(block.History)
	return c.JSON(response)
}

// HandleBlockHistory returns just the audit trail of one block.
func HandleBlockHistory(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", "Invalid block id")
	}

	block, err := repository.GetGlobalRepositories().Block.GetByID(uint(id))
	if err != nil {
		return respondRepoError(c, err, "blocks: loading block failed")
	}

	return c.JSON(fiber.Map{
		"block_id": block.ID,
		"history":  serializeHistory(block.History),
	})
}

// HandleUpdateBlock applies a partial update to an active block. A patch that
// changes nothing returns a no-change signal and writes no history.
func HandleUpdateBlock(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", "Invalid block id")
	}

	var req updateBlockRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", "Invalid JSON body")
	}

	patch := repository.BlockPatch{}
	if req.Reason != nil || req.ReasonID != nil {
		code := ""
		if req.Reason != nil {
			code = *req.Reason
		}
		var rawID uint
		if req.ReasonID != nil {
			rawID = *req.ReasonID
		}
		reasonID, err := resolveReasonID(code, rawID)
		if err != nil {
			return respondRepoError(c, err, "update: resolving reason failed")
		}
		patch.ReasonID = &reasonID
	}
	if req.Notes != nil {
		if err := validateNotes(*req.Notes); err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "validation_error", err.Error())
		}
		patch.Notes = req.Notes
	}
	if req.ExpiresInDays != nil {
		if *req.ExpiresInDays <= 0 {
			return errorResponse(c, fiber.StatusBadRequest, "validation_error", "expires_in_days must be positive")
		}
		patch.ExpiresAt = expiryFromDays(*req.ExpiresInDays)
	}

	actor := usercontext.GetUsername(c)
	block, changes, err := repository.GetGlobalRepositories().Block.Update(uint(id), patch, actor)
	if err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return c.JSON(fiber.Map{"message": "No changes made"})
		}
		return respondRepoError(c, err, "update: updating block failed")
	}

	events.PublishBlockEvent(events.EventBlockUpdated, block, actor)

	return c.JSON(fiber.Map{
		"message": "Block updated successfully",
		"changes": changes,
		"block":   serializeBlock(block),
	})
}
