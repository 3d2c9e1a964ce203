package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/sawtna-yabni/community-backend/internal/middleware"
	"github.com/sawtna-yabni/community-backend/internal/services"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

// UserHandler serves the leaderboard, user standings, and admin user management
type UserHandler struct {
	store  storage.Store
	points *services.PointsService
}

// NewUserHandler creates a new user handler
func NewUserHandler(store storage.Store, points *services.PointsService) *UserHandler {
	return &UserHandler{store: store, points: points}
}

// Leaderboard returns the top users by points, ?limit= capped by the service
func (h *UserHandler) Leaderboard(c *fiber.Ctx) error {
	entries, err := h.points.Leaderboard(c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "", entries)
}

// MyRank returns the caller's standing among all users
func (h *UserHandler) MyRank(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	rank, err := h.points.UserRank(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "", rank)
}

// MyPoints returns the caller's current balance
func (h *UserHandler) MyPoints(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return ok(c, "", fiber.Map{
		"points": user.Points,
	})
}

// List returns all users (admin)
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.store.GetAllUsers()
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "", users)
}

// Get returns a single user (admin)
func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.store.GetUser(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return respondError(c, err)
	}
	return ok(c, "", user)
}

type updateUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role" validate:"omitempty,oneof=user admin"`
}

// Update changes a user's name or role (admin)
func (h *UserHandler) Update(c *fiber.Ctx) error {
	user, err := h.store.GetUser(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return respondError(c, err)
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Role must be user or admin")
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Role != "" {
		user.Role = req.Role
	}

	if err := h.store.UpdateUser(user); err != nil {
		return respondError(c, err)
	}
	return ok(c, "User updated successfully", user)
}

// Delete removes a user (admin)
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == middleware.CurrentUser(c).ID {
		return fail(c, fiber.StatusBadRequest, "You cannot delete your own account")
	}
	if err := h.store.DeleteUser(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return respondError(c, err)
	}
	return ok(c, "User deleted successfully", nil)
}
