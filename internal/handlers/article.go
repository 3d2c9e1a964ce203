package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/sawtna-yabni/community-backend/internal/middleware"
	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/services"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

// ArticleHandler manages articles and the read-for-points action
type ArticleHandler struct {
	store  storage.Store
	points *services.PointsService
}

// NewArticleHandler creates a new article handler
func NewArticleHandler(store storage.Store, points *services.PointsService) *ArticleHandler {
	return &ArticleHandler{store: store, points: points}
}

type articleRequest struct {
	Title      string `json:"title" validate:"required"`
	Content    string `json:"content" validate:"required"`
	ImageURL   string `json:"image_url"`
	CategoryID string `json:"category_id" validate:"required"`
}

// Create publishes a new article
func (h *ArticleHandler) Create(c *fiber.Ctx) error {
	var req articleRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Title, content, and category are required")
	}

	if _, err := h.store.GetCategory(req.CategoryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusBadRequest, "Category not found")
		}
		return respondError(c, err)
	}

	article := &models.Article{
		Title:      req.Title,
		Content:    req.Content,
		ImageURL:   req.ImageURL,
		CategoryID: req.CategoryID,
		AdminID:    middleware.CurrentUser(c).ID,
	}
	if _, err := h.store.CreateArticle(article); err != nil {
		return respondError(c, err)
	}
	return created(c, "Article published successfully", article)
}

// List returns all articles, optionally filtered by ?category=
func (h *ArticleHandler) List(c *fiber.Ctx) error {
	articles, err := h.store.GetAllArticles(c.Query("category"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "", articles)
}

// Get returns a single article with its category and survey
func (h *ArticleHandler) Get(c *fiber.Ctx) error {
	article, err := h.store.GetArticle(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Article not found")
		}
		return respondError(c, err)
	}
	return ok(c, "", article)
}

// Update modifies an article
func (h *ArticleHandler) Update(c *fiber.Ctx) error {
	article, err := h.store.GetArticle(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Article not found")
		}
		return respondError(c, err)
	}

	var req articleRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Title != "" {
		article.Title = req.Title
	}
	if req.Content != "" {
		article.Content = req.Content
	}
	if req.ImageURL != "" {
		article.ImageURL = req.ImageURL
	}
	if req.CategoryID != "" {
		if _, err := h.store.GetCategory(req.CategoryID); err != nil {
			return fail(c, fiber.StatusBadRequest, "Category not found")
		}
		article.CategoryID = req.CategoryID
	}

	if err := h.store.UpdateArticle(article); err != nil {
		return respondError(c, err)
	}
	return ok(c, "Article updated successfully", article)
}

// Delete removes an article
func (h *ArticleHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteArticle(c.Params("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Article not found")
		}
		return respondError(c, err)
	}
	return ok(c, "Article deleted successfully", nil)
}

// MarkAsRead credits the reader with points, once per article
func (h *ArticleHandler) MarkAsRead(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	points, err := h.points.AwardArticleRead(user.ID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Article marked as read", fiber.Map{
		"points_earned": points,
	})
}
