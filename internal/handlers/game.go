package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/sawtna-yabni/community-backend/internal/middleware"
	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/services"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

// GameHandler manages learning games and completion rewards
type GameHandler struct {
	store  storage.Store
	points *services.PointsService
}

// NewGameHandler creates a new game handler
func NewGameHandler(store storage.Store, points *services.PointsService) *GameHandler {
	return &GameHandler{store: store, points: points}
}

type gameRequest struct {
	Type               string `json:"type" validate:"required,oneof=crossword puzzle quiz"`
	Title              string `json:"title" validate:"required"`
	Content            string `json:"content"`
	EducationalMessage string `json:"educational_message"`
	PointsReward       int    `json:"points_reward" validate:"min=0"`
}

// Create adds a new game
func (h *GameHandler) Create(c *fiber.Ctx) error {
	var req gameRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "A title and a type of crossword, puzzle, or quiz are required")
	}

	game := &models.Game{
		Type:               req.Type,
		Title:              req.Title,
		Content:            req.Content,
		EducationalMessage: req.EducationalMessage,
		PointsReward:       req.PointsReward,
	}
	if _, err := h.store.CreateGame(game); err != nil {
		return respondError(c, err)
	}
	return created(c, "Game created successfully", game)
}

// List returns all games
func (h *GameHandler) List(c *fiber.Ctx) error {
	games, err := h.store.GetAllGames()
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "", games)
}

// Get returns a single game
func (h *GameHandler) Get(c *fiber.Ctx) error {
	game, err := h.store.GetGame(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Game not found")
		}
		return respondError(c, err)
	}
	return ok(c, "", game)
}

// Update modifies a game
func (h *GameHandler) Update(c *fiber.Ctx) error {
	game, err := h.store.GetGame(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Game not found")
		}
		return respondError(c, err)
	}

	var req gameRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Type != "" {
		game.Type = req.Type
	}
	if req.Title != "" {
		game.Title = req.Title
	}
	if req.Content != "" {
		game.Content = req.Content
	}
	if req.EducationalMessage != "" {
		game.EducationalMessage = req.EducationalMessage
	}
	if req.PointsReward > 0 {
		game.PointsReward = req.PointsReward
	}

	if err := h.store.UpdateGame(game); err != nil {
		return respondError(c, err)
	}
	return ok(c, "Game updated successfully", game)
}

// Delete removes a game
func (h *GameHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteGame(c.Params("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Game not found")
		}
		return respondError(c, err)
	}
	return ok(c, "Game deleted successfully", nil)
}

// Complete credits the caller for finishing a game, once per game. The
// educational message is returned alongside the reward.
func (h *GameHandler) Complete(c *fiber.Ctx) error {
	gameID := c.Params("id")
	user := middleware.CurrentUser(c)

	points, err := h.points.AwardGameCompletion(user.ID, gameID)
	if err != nil {
		return respondError(c, err)
	}

	game, err := h.store.GetGame(gameID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Game completed!", fiber.Map{
		"points_earned":       points,
		"educational_message": game.EducationalMessage,
	})
}

// History returns the caller's completed games
func (h *GameHandler) History(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	history, err := h.store.GetUserGames(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "", history)
}
