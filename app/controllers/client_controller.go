package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finbloc/payblock/app/models"
	"github.com/finbloc/payblock/app/repository"
)

type createClientRequest struct {
	ClientIdentifier string `json:"client_identifier"`
	Name             string `json:"name"`
}

// HandleListClients returns a paginated client listing with optional
// substring filters on identifier and name.
func HandleListClients(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	filter := repository.ClientFilter{
		Identifier: c.Query("client_identifier"),
		Name:       c.Query("name"),
		Limit:      limit,
		Offset:     offset,
	}

	repos := repository.GetGlobalRepositories()
	clients, total, err := repos.Client.List(filter)
	if err != nil {
		return respondRepoError(c, err, "clients: listing failed")
	}

	items := make([]fiber.Map, 0, len(clients))
	for i := range clients {
		client := &clients[i]
		blocked := false
		if _, err := repos.Block.ActiveForClient(client.ID); err == nil {
			blocked = true
		}
		items = append(items, fiber.Map{
			"id":                client.ID,
			"client_identifier": client.ClientIdentifier,
			"name":              client.Name,
			"is_blocked":        blocked,
			"created_at":        client.CreatedAt.UTC().Format(time.RFC3339),
			"updated_at":        client.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{
		"clients": items,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// HandleCreateClient registers a client explicitly.
func HandleCreateClient(c *fiber.Ctx) error {
	var req createClientRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", "Invalid JSON body")
	}

	client := &models.Client{
		ClientIdentifier: req.ClientIdentifier,
		Name:             req.Name,
	}
	if client.Name == "" {
		client.Name = client.ClientIdentifier
	}
	if err := client.Validate(); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	repos := repository.GetGlobalRepositories()
	if err := repos.Client.Create(client); err != nil {
		return respondRepoError(c, err, "clients: creating client failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Client created successfully",
		"client": fiber.Map{
			"id":                client.ID,
			"client_identifier": client.ClientIdentifier,
			"name":              client.Name,
			"created_at":        client.CreatedAt.UTC().Format(time.RFC3339),
			"updated_at":        client.UpdatedAt.UTC().Format(time.RFC3339),
		},
	})
}

// HandleGetClient returns client details with all of its blocks.
func HandleGetClient(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	client, err := repos.Client.Resolve(c.Params("identifier"))
	if err != nil {
		return respondRepoError(c, err, "clients: resolving client failed")
	}

	blocks, err := repos.Block.ListForClient(client.ID)
	if err != nil {
		return respondRepoError(c, err, "clients: loading blocks failed")
	}

	now := time.Now()
	blocked := false
	items := make([]fiber.Map, 0, len(blocks))
	for i := range blocks {
		if blocks[i].IsActiveAt(now) {
			blocked = true
		}
		items = append(items, serializeClientBlock(&blocks[i]))
	}

	return c.JSON(fiber.Map{
		"id":                client.ID,
		"client_identifier": client.ClientIdentifier,
		"name":              client.Name,
		"is_blocked":        blocked,
		"blocks":            items,
		"created_at":        client.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":        client.UpdatedAt.UTC().Format(time.RFC3339),
	})
}
