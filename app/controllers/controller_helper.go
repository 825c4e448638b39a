package controllers

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finbloc/payblock/app/models"
	"github.com/finbloc/payblock/app/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

func errorResponse(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// respondRepoError maps repository sentinel errors to HTTP statuses. Unknown
// errors are logged with context and surfaced as a generic server error so
// store internals never leak to the caller.
func respondRepoError(c *fiber.Ctx, err error, logCtx string) error {
	switch {
	case errors.Is(err, repository.ErrValidation):
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", "Invalid request data")
	case errors.Is(err, repository.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, "not_found", "Record not found")
	case errors.Is(err, repository.ErrInvalidReason):
		return errorResponse(c, fiber.StatusBadRequest, "invalid_reason", "Invalid block reason")
	case errors.Is(err, repository.ErrBlockNotActive):
		return errorResponse(c, fiber.StatusBadRequest, "block_not_active", "Block is already inactive")
	case errors.Is(err, repository.ErrNoActiveBlock):
		return errorResponse(c, fiber.StatusNotFound, "no_active_block", "Client does not have an active payment block")
	case errors.Is(err, repository.ErrAlreadyBlocked):
		return errorResponse(c, fiber.StatusConflict, "already_blocked", "Client already has an active payment block")
	case errors.Is(err, repository.ErrDuplicate):
		return errorResponse(c, fiber.StatusConflict, "conflict", "Record already exists")
	default:
		log.Printf("%s: %v", logCtx, err)
		return errorResponse(c, fiber.StatusInternalServerError, "internal_server_error", "Server error")
	}
}

// parsePagination clamps limit/offset query parameters. Unparseable values
// fall back to defaults; the page size is capped to keep responses bounded.
func parsePagination(c *fiber.Ctx) (limit, offset int) {
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

// expiryFromDays converts an expires_in_days input into an absolute expiry.
func expiryFromDays(days int) *time.Time {
	t := time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour)
	return &t
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func serializeReason(r *models.BlockReason) fiber.Map {
	return fiber.Map{
		"id":          r.ID,
		"code":        r.Code,
		"description": r.Description,
		"is_fraud":    r.IsFraud,
	}
}

func serializeClient(cl *models.Client) fiber.Map {
	return fiber.Map{
		"id":                cl.ID,
		"client_identifier": cl.ClientIdentifier,
		"name":              cl.Name,
	}
}

// serializeBlock renders a block with its preloaded client and reason.
func serializeBlock(b *models.PaymentBlock) fiber.Map {
	return fiber.Map{
		"id":             b.ID,
		"client":         serializeClient(&b.Client),
		"reason":         serializeReason(&b.Reason),
		"status":         b.Status,
		"is_active":      b.IsActive(),
		"override":       b.Override,
		"notes":          b.Notes,
		"created_by":     b.CreatedBy,
		"created_at":     b.CreatedAt.UTC().Format(time.RFC3339),
		"expires_at":     formatTimePtr(b.ExpiresAt),
		"unblocked_by":   b.UnblockedBy,
		"unblocked_at":   formatTimePtr(b.UnblockedAt),
		"unblock_reason": b.UnblockReason,
	}
}

// serializeClientBlock renders a block in a client-scoped response where the
// client is already named by the envelope.
func serializeClientBlock(b *models.PaymentBlock) fiber.Map {
	m := serializeBlock(b)
	delete(m, "client")
	m["client_id"] = b.ClientID
	return m
}

func serializeHistoryEntry(h *models.BlockHistory) fiber.Map {
	return fiber.Map{
		"id":            h.ID,
		"action":        h.Action,
		"status_before": h.StatusBefore,
		"status_after":  h.StatusAfter,
		"performed_by":  h.PerformedBy,
		"notes":         h.Notes,
		"timestamp":     h.Timestamp.UTC().Format(time.RFC3339),
	}
}

func serializeHistory(entries []models.BlockHistory) []fiber.Map {
	result := make([]fiber.Map, 0, len(entries))
	for i := range entries {
		result = append(result, serializeHistoryEntry(&entries[i]))
	}
	return result
}
