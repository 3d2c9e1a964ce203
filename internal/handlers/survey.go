package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/sawtna-yabni/community-backend/internal/middleware"
	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/services"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

// SurveyHandler manages article quizzes and scored submissions
type SurveyHandler struct {
	store  storage.Store
	points *services.PointsService
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(store storage.Store, points *services.PointsService) *SurveyHandler {
	return &SurveyHandler{store: store, points: points}
}

type surveyOptionRequest struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type surveyQuestionRequest struct {
	Text    string                `json:"text" validate:"required"`
	Options []surveyOptionRequest `json:"options" validate:"required,min=2,dive"`
}

type surveyRequest struct {
	ArticleID string                  `json:"article_id" validate:"required"`
	Title     string                  `json:"title"`
	Questions []surveyQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// Create attaches a quiz to an article. One quiz per article.
func (h *SurveyHandler) Create(c *fiber.Ctx) error {
	var req surveyRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "An article, at least one question, and two options per question are required")
	}

	if _, err := h.store.GetArticle(req.ArticleID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusBadRequest, "Article not found")
		}
		return respondError(c, err)
	}

	survey := &models.Survey{
		ArticleID: req.ArticleID,
		Title:     req.Title,
	}
	for _, q := range req.Questions {
		question := models.Question{Text: q.Text}
		for _, o := range q.Options {
			question.Options = append(question.Options, models.Option{
				Text:      o.Text,
				IsCorrect: o.IsCorrect,
			})
		}
		survey.Questions = append(survey.Questions, question)
	}

	if _, err := h.store.CreateSurvey(survey); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return fail(c, fiber.StatusBadRequest, "This article already has a quiz")
		}
		return respondError(c, err)
	}
	return created(c, "Quiz created successfully", survey)
}

// Get returns a quiz with questions and options. Correct answers stay hidden.
func (h *SurveyHandler) Get(c *fiber.Ctx) error {
	survey, err := h.store.GetSurvey(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Quiz not found")
		}
		return respondError(c, err)
	}
	return ok(c, "", survey)
}

// GetByArticle returns the quiz attached to an article
func (h *SurveyHandler) GetByArticle(c *fiber.Ctx) error {
	survey, err := h.store.GetSurveyByArticle(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "This article has no quiz")
		}
		return respondError(c, err)
	}
	return ok(c, "", survey)
}

type submitSurveyRequest struct {
	Answers []services.AnswerSubmission `json:"answers" validate:"required,min=1,dive"`
}

// Submit scores the caller's answers and credits points on a passing score
func (h *SurveyHandler) Submit(c *fiber.Ctx) error {
	var req submitSurveyRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "At least one answer is required")
	}

	user := middleware.CurrentUser(c)
	result, err := h.points.SubmitSurvey(user.ID, c.Params("id"), req.Answers)
	if err != nil {
		return respondError(c, err)
	}

	message := "Quiz submitted, better luck next time"
	if result.Passed {
		message = "Congratulations, you passed the quiz!"
	}
	return ok(c, message, result)
}

// Results returns the caller's past submission for a quiz
func (h *SurveyHandler) Results(c *fiber.Ctx) error {
	surveyID := c.Params("id")
	survey, err := h.store.GetSurvey(surveyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Quiz not found")
		}
		return respondError(c, err)
	}

	user := middleware.CurrentUser(c)
	answers, err := h.store.GetUserAnswers(user.ID, surveyID)
	if err != nil {
		return respondError(c, err)
	}
	if len(answers) == 0 {
		return fail(c, fiber.StatusNotFound, "You have not taken this quiz yet")
	}

	correct := 0
	for _, answer := range answers {
		if answer.IsCorrect {
			correct++
		}
	}
	score := services.SurveyScore(correct, len(survey.Questions))

	return ok(c, "", fiber.Map{
		"answers": answers,
		"score":   score,
	})
}

// Delete removes a quiz and its questions
func (h *SurveyHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteSurvey(c.Params("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Quiz not found")
		}
		return respondError(c, err)
	}
	return ok(c, "Quiz deleted successfully", nil)
}
