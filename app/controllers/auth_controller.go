package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finbloc/payblock/app/models"
	"github.com/finbloc/payblock/app/repository"
	"github.com/finbloc/payblock/internal/pkg/env"
	"github.com/finbloc/payblock/internal/pkg/middleware"
	"github.com/finbloc/payblock/internal/pkg/security"
	"github.com/finbloc/payblock/internal/pkg/usercontext"
)

const tokenTTL = time.Hour

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// HandleLogin verifies credentials and issues a bearer token valid for one hour.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil || req.Username == "" || req.Password == "" {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", "Username and password are required")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "Invalid username or password")
		}
		return respondRepoError(c, err, "login: user lookup failed")
	}
	if !user.CheckPassword(req.Password) {
		return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "Invalid username or password")
	}

	// Best effort; a failed timestamp update must not block the login.
	if err := repo.TouchLastLogin(user.ID, time.Now()); err != nil {
		log.Printf("login: updating last login failed: %v", err)
	}

	token, expiry, err := security.GenerateAuthToken(user.ID, user.Username, user.IsAdmin, tokenTTL, env.GetEnv("TOKEN_SECRET", ""))
	if err != nil {
		return respondRepoError(c, err, "login: token generation failed")
	}

	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": expiry.UTC().Format(time.RFC3339),
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"is_admin": user.IsAdmin,
		},
	})
}

// HandleRegister creates a new operator account. Admin only.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", "Invalid JSON body")
	}

	user, err := models.CreateUser(req.Username, req.Email, req.Password, req.IsAdmin)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return errorResponse(c, fiber.StatusConflict, "conflict", "Username or email already registered")
		}
		return respondRepoError(c, err, "register: creating user failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"is_admin": user.IsAdmin,
		},
	})
}

// HandleMe returns the authenticated user's account.
func HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return respondRepoError(c, err, "me: user lookup failed")
	}

	return c.JSON(fiber.Map{
		"id":            user.ID,
		"username":      user.Username,
		"email":         user.Email,
		"is_admin":      user.IsAdmin,
		"last_login_at": formatTimePtr(user.LastLoginAt),
		"created_at":    user.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// HandleVerifyToken reports whether a token is valid without requiring auth.
// The token may come from the body or the Authorization header.
func HandleVerifyToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	_ = c.BodyParser(&req)
	token := req.Token
	if token == "" {
		token = middleware.ExtractBearerToken(c)
	}
	if token == "" {
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", "Token is required")
	}

	claims, err := security.VerifyAuthToken(token, env.GetEnv("TOKEN_SECRET", ""))
	if err != nil {
		message := "Invalid token"
		if errors.Is(err, security.ErrTokenExpired) {
			message = "Token has expired"
		}
		return c.JSON(fiber.Map{"valid": false, "message": message})
	}

	return c.JSON(fiber.Map{
		"valid":      true,
		"user_id":    claims.UserID,
		"username":   claims.Username,
		"is_admin":   claims.IsAdmin,
		"expires_at": time.Unix(claims.ExpiresAt, 0).UTC().Format(time.RFC3339),
	})
}
