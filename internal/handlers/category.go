package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

// CategoryHandler manages article categories (admin writes, public reads)
type CategoryHandler struct {
	store storage.Store
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(store storage.Store) *CategoryHandler {
	return &CategoryHandler{store: store}
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description"`
}

// Create adds a new category
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "A category name of 2-100 characters is required")
	}

	category := &models.Category{Name: req.Name, Description: req.Description}
	if _, err := h.store.CreateCategory(category); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return fail(c, fiber.StatusBadRequest, "A category with this name already exists")
		}
		return respondError(c, err)
	}
	return created(c, "Category created successfully", category)
}

// List returns all categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	categories, err := h.store.GetAllCategories()
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "", categories)
}

// Get returns a single category with its articles
func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	category, err := h.store.GetCategory(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Category not found")
		}
		return respondError(c, err)
	}
	return ok(c, "", category)
}

// Update modifies a category
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	category, err := h.store.GetCategory(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Category not found")
		}
		return respondError(c, err)
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Name != "" {
		category.Name = req.Name
	}
	if req.Description != "" {
		category.Description = req.Description
	}

	if err := h.store.UpdateCategory(category); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return fail(c, fiber.StatusBadRequest, "A category with this name already exists")
		}
		return respondError(c, err)
	}
	return ok(c, "Category updated successfully", category)
}

// Delete removes a category and its articles
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteCategory(c.Params("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Category not found")
		}
		return respondError(c, err)
	}
	return ok(c, "Category deleted successfully", nil)
}
