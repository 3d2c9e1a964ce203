package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sawtna-yabni/community-backend/internal/jobs"
	"github.com/sawtna-yabni/community-backend/internal/middleware"
	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/services"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

// DiscussionHandler manages live discussion sessions, attendance, and
// the quick polls run during a session
type DiscussionHandler struct {
	store         storage.Store
	points        *services.PointsService
	notifications *jobs.NotificationJob
}

// NewDiscussionHandler creates a new discussion handler
func NewDiscussionHandler(store storage.Store, points *services.PointsService, notifications *jobs.NotificationJob) *DiscussionHandler {
	return &DiscussionHandler{store: store, points: points, notifications: notifications}
}

type sessionRequest struct {
	Title        string    `json:"title" validate:"required"`
	Description  string    `json:"description"`
	MeetLink     string    `json:"meet_link"`
	DateTime     time.Time `json:"date_time" validate:"required"`
	PointsReward int       `json:"points_reward" validate:"min=0"`
}

// Create schedules a session and announces it to all users over WhatsApp
func (h *DiscussionHandler) Create(c *fiber.Ctx) error {
	var req sessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "A title and date are required")
	}

	session := &models.DiscussionSession{
		Title:        req.Title,
		Description:  req.Description,
		MeetLink:     req.MeetLink,
		DateTime:     req.DateTime,
		PointsReward: req.PointsReward,
	}
	if _, err := h.store.CreateSession(session); err != nil {
		return respondError(c, err)
	}

	h.notifications.AnnounceSession(session)

	return created(c, "Session scheduled, users are being notified", session)
}

// List returns all sessions
func (h *DiscussionHandler) List(c *fiber.Ctx) error {
	sessions, err := h.store.GetAllSessions()
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "", sessions)
}

// Get returns a single session with its polls
func (h *DiscussionHandler) Get(c *fiber.Ctx) error {
	session, err := h.store.GetSession(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Session not found")
		}
		return respondError(c, err)
	}
	return ok(c, "", session)
}

// Update modifies a session
func (h *DiscussionHandler) Update(c *fiber.Ctx) error {
	session, err := h.store.GetSession(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Session not found")
		}
		return respondError(c, err)
	}

	var req sessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Title != "" {
		session.Title = req.Title
	}
	if req.Description != "" {
		session.Description = req.Description
	}
	if req.MeetLink != "" {
		session.MeetLink = req.MeetLink
	}
	if !req.DateTime.IsZero() {
		session.DateTime = req.DateTime
	}
	if req.PointsReward > 0 {
		session.PointsReward = req.PointsReward
	}

	if err := h.store.UpdateSession(session); err != nil {
		return respondError(c, err)
	}
	return ok(c, "Session updated successfully", session)
}

// Delete removes a session
func (h *DiscussionHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteSession(c.Params("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Session not found")
		}
		return respondError(c, err)
	}
	return ok(c, "Session deleted successfully", nil)
}

// Register signs the caller up for a session. No points yet; those come
// when attendance is confirmed.
func (h *DiscussionHandler) Register(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if err := h.points.RegisterForSession(user.ID, c.Params("id")); err != nil {
		if errors.Is(err, services.ErrAlreadyCompleted) {
			return fail(c, fiber.StatusBadRequest, "You are already registered for this session")
		}
		return respondError(c, err)
	}
	return ok(c, "Registered for the session", nil)
}

// Attend confirms the caller's attendance and credits points, once
func (h *DiscussionHandler) Attend(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	points, err := h.points.MarkAttendance(user.ID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Attendance confirmed", fiber.Map{
		"points_earned": points,
	})
}

// Attendees lists everyone registered for or attending a session
func (h *DiscussionHandler) Attendees(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if _, err := h.store.GetSession(sessionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Session not found")
		}
		return respondError(c, err)
	}

	attendees, err := h.store.GetSessionAttendees(sessionID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "", attendees)
}

type sessionPollRequest struct {
	Question string   `json:"question" validate:"required"`
	Options  []string `json:"options" validate:"required,min=2,dive,required"`
}

// CreatePoll opens a quick poll inside a session
func (h *DiscussionHandler) CreatePoll(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if _, err := h.store.GetSession(sessionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Session not found")
		}
		return respondError(c, err)
	}

	var req sessionPollRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "A question and at least two options are required")
	}

	poll := &models.SessionPoll{
		SessionID: sessionID,
		Question:  req.Question,
		Active:    true,
	}
	for _, text := range req.Options {
		poll.Options = append(poll.Options, models.SessionPollOption{Text: text})
	}

	if _, err := h.store.CreateSessionPoll(poll); err != nil {
		return respondError(c, err)
	}
	return created(c, "Session poll opened", poll)
}

// ListPolls returns the polls of a session
func (h *DiscussionHandler) ListPolls(c *fiber.Ctx) error {
	polls, err := h.store.GetSessionPolls(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "", polls)
}

// ClosePoll deactivates a session poll
func (h *DiscussionHandler) ClosePoll(c *fiber.Ctx) error {
	poll, err := h.store.GetSessionPoll(c.Params("pollId"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Session poll not found")
		}
		return respondError(c, err)
	}

	poll.Active = false
	if err := h.store.UpdateSessionPoll(poll); err != nil {
		return respondError(c, err)
	}
	return ok(c, "Session poll closed", poll)
}

// VotePoll records the caller's vote in a session poll, once
func (h *DiscussionHandler) VotePoll(c *fiber.Ctx) error {
	var req voteRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "An option is required")
	}

	poll, err := h.store.GetSessionPoll(c.Params("pollId"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Session poll not found")
		}
		return respondError(c, err)
	}
	if !poll.Active {
		return fail(c, fiber.StatusBadRequest, "This poll is closed")
	}

	user := middleware.CurrentUser(c)
	points, err := h.points.AwardSessionPollVote(user.ID, poll.ID, req.OptionID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Vote recorded", fiber.Map{
		"points_earned": points,
	})
}

// PollResults tallies a session poll's votes per option
func (h *DiscussionHandler) PollResults(c *fiber.Ctx) error {
	poll, err := h.store.GetSessionPoll(c.Params("pollId"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Session poll not found")
		}
		return respondError(c, err)
	}

	votes, err := h.store.GetSessionPollVotes(poll.ID)
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
		"question":    poll.Question,
		"active":      poll.Active,
		"total_votes": total,
		"results":     tallies,
	})
}
