package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/sawtna-yabni/community-backend/internal/middleware"
	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/services"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

// PollHandler manages opinion polls, voting, and vote tallies
type PollHandler struct {
	store  storage.Store
	points *services.PointsService
}

// NewPollHandler creates a new poll handler
func NewPollHandler(store storage.Store, points *services.PointsService) *PollHandler {
	return &PollHandler{store: store, points: points}
}

type pollRequest struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description"`
	PointsReward int      `json:"points_reward" validate:"min=0"`
	Options      []string `json:"options" validate:"required,min=2,dive,required"`
}

// Create adds a new poll with its options
func (h *PollHandler) Create(c *fiber.Ctx) error {
	var req pollRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "A title and at least two options are required")
	}

	poll := &models.Poll{
		Title:        req.Title,
		Description:  req.Description,
		PointsReward: req.PointsReward,
	}
	for _, text := range req.Options {
		poll.Options = append(poll.Options, models.PollOption{Text: text})
	}

	if _, err := h.store.CreatePoll(poll); err != nil {
		return respondError(c, err)
	}
	return created(c, "Poll created successfully", poll)
}

// List returns all polls
func (h *PollHandler) List(c *fiber.Ctx) error {
	polls, err := h.store.GetAllPolls()
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "", polls)
}

// Get returns a single poll with its options
func (h *PollHandler) Get(c *fiber.Ctx) error {
	poll, err := h.store.GetPoll(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Poll not found")
		}
		return respondError(c, err)
	}
	return ok(c, "", poll)
}

// Update modifies a poll's title and description
func (h *PollHandler) Update(c *fiber.Ctx) error {
	poll, err := h.store.GetPoll(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Poll not found")
		}
		return respondError(c, err)
	}

	var req struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		PointsReward int    `json:"points_reward"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Title != "" {
		poll.Title = req.Title
	}
	if req.Description != "" {
		poll.Description = req.Description
	}
	if req.PointsReward > 0 {
		poll.PointsReward = req.PointsReward
	}

	if err := h.store.UpdatePoll(poll); err != nil {
		return respondError(c, err)
	}
	return ok(c, "Poll updated successfully", poll)
}

// Delete removes a poll and its votes
func (h *PollHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeletePoll(c.Params("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Poll not found")
		}
		return respondError(c, err)
	}
	return ok(c, "Poll deleted successfully", nil)
}

type voteRequest struct {
	OptionID string `json:"option_id" validate:"required"`
}

// Vote records the caller's vote and credits points, once per poll
func (h *PollHandler) Vote(c *fiber.Ctx) error {
	var req voteRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "An option is required")
	}

	user := middleware.CurrentUser(c)
	points, err := h.points.AwardPollVote(user.ID, c.Params("id"), req.OptionID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Vote recorded", fiber.Map{
		"points_earned": points,
	})
}

// optionTally is one option's share of a poll's votes
type optionTally struct {
	OptionID   string  `json:"option_id"`
	Text       string  `json:"text"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// Results aggregates the vote counts per option
func (h *PollHandler) Results(c *fiber.Ctx) error {
	pollID := c.Params("id")
	poll, err := h.store.GetPoll(pollID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Poll not found")
		}
		return respondError(c, err)
	}

	votes, err := h.store.GetPollVotes(pollID)
	if err != nil {
		return respondError(c, err)
	}

	counts := make(map[string]int, len(poll.Options))
	for _, vote := range votes {
		counts[vote.OptionID]++
	}

	total := len(votes)
	tallies := make([]optionTally, 0, len(poll.Options))
	for _, option := range poll.Options {
		tally := optionTally{
			OptionID: option.ID,
			Text:     option.Text,
			Votes:    counts[option.ID],
		}
		if total > 0 {
			tally.Percentage = float64(tally.Votes) / float64(total) * 100
		}
		tallies = append(tallies, tally)
	}

	return ok(c, "", fiber.Map{
		"poll_id":     poll.ID,
		"title":       poll.Title,
		"total_votes": total,
		"results":     tallies,
	})
}
