package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/sawtna-yabni/community-backend/internal/services"
)

var validate = validator.New()

// respondError maps a domain error to its HTTP status. Anything outside
// the taxonomy is an unexpected storage failure: logged, answered with a
// generic 500, never retried here.
func respondError(c *fiber.Ctx, err error) error {
	var tooSoon *services.TooSoonError

	switch {
	case errors.Is(err, services.ErrAlreadyCompleted):
		return fail(c, fiber.StatusBadRequest, "You have already completed this action")
	case errors.Is(err, services.ErrTargetNotFound):
		return fail(c, fiber.StatusNotFound, "The requested resource was not found")
	case errors.Is(err, services.ErrNoActiveChallenge):
		return fail(c, fiber.StatusBadRequest, "No verification code is pending for this number")
	case errors.Is(err, services.ErrChallengeInvalid):
		return fail(c, fiber.StatusBadRequest, "Verification code expired or too many attempts")
	case errors.As(err, &tooSoon):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success":     false,
			"message":     tooSoon.Error(),
			"retry_after": int(tooSoon.RetryAfter.Seconds()),
		})
	case errors.Is(err, services.ErrServiceUnavailable):
		return fail(c, fiber.StatusServiceUnavailable, "Verification service is temporarily unavailable, please try again later")
	case errors.Is(err, services.ErrDeliveryFailed):
		return fail(c, fiber.StatusInternalServerError, "Could not deliver the verification code, please check the phone number")
	default:
		log.Printf("❌ Unexpected error: %v", err)
		return fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func ok(c *fiber.Ctx, message string, data interface{}) error {
	body := fiber.Map{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(body)
}

func created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}
