package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sawtna-yabni/community-backend/internal/middleware"
	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/services"
	"github.com/sawtna-yabni/community-backend/internal/storage"
	"github.com/sawtna-yabni/community-backend/internal/utils"
)

// AuthHandler handles registration, login, and the OTP flow
type AuthHandler struct {
	store  storage.Store
	otp    *services.OTPService
	tokens *services.TokenService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(store storage.Store, otp *services.OTPService, tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{store: store, otp: otp, tokens: tokens}
}

type authPayload struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates an account with email and password
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.UserRegistration
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Name, a valid email, and a password of at least 6 characters are required")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return respondError(c, err)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    &req.Email,
		Password: hash,
		Role:     models.RoleUser,
	}
	if _, err := h.store.CreateUser(user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return fail(c, fiber.StatusBadRequest, "This email is already registered")
		}
		return respondError(c, err)
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return created(c, "Registration successful", authPayload{User: user, Token: token})
}

// Login authenticates with email and password
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.UserLogin
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Email and password are required")
	}

	user, err := h.store.GetUserByEmail(req.Email)
	if err != nil || !utils.CheckPassword(user.Password, req.Password) {
		return fail(c, fiber.StatusUnauthorized, "Incorrect email or password")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := h.store.UpdateUser(user); err != nil {
		log.Printf("⚠️  Failed to record login time for %s: %v", user.ID, err)
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Login successful", authPayload{User: user, Token: token})
}

type sendOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=8"`
	Name        string `json:"name"`
}

// SendOTP starts phone registration or login. An unknown number needs a
// name so the pending account can be created; if code delivery then
// fails, that account is rolled back.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "A phone number is required")
	}

	phone := models.NormalizePhone(req.PhoneNumber)

	var createdUser *models.User
	if _, err := h.store.GetUserByPhone(phone); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return respondError(c, err)
		}
		if req.Name == "" {
			return fail(c, fiber.StatusBadRequest, "A name is required to register")
		}
		hash, err := utils.HashPassword(utils.RandomPassword())
		if err != nil {
			return respondError(c, err)
		}
		createdUser = &models.User{
			Name:        req.Name,
			PhoneNumber: &phone,
			Password:    hash,
			Role:        models.RoleUser,
		}
		if _, err := h.store.CreateUser(createdUser); err != nil {
			return respondError(c, err)
		}
	}

	otp, err := h.otp.Issue(phone)
	if err != nil {
		// No orphaned pending account after a failed send
		if createdUser != nil {
			if delErr := h.store.DeleteUser(createdUser.ID); delErr != nil {
				log.Printf("⚠️  Failed to roll back pending account %s: %v", createdUser.ID, delErr)
			}
		}
		return respondError(c, err)
	}

	return ok(c, "Verification code sent to your WhatsApp", fiber.Map{
		"phone_number": phone,
		"expires_at":   otp.ExpiresAt,
	})
}

type resendOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=8"`
}

// ResendOTP issues a fresh code, subject to the two-minute cooldown
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req resendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "A phone number is required")
	}

	otp, err := h.otp.Resend(req.PhoneNumber)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "A new verification code was sent", fiber.Map{
		"phone_number": otp.PhoneNumber,
		"expires_at":   otp.ExpiresAt,
	})
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=8"`
	Code        string `json:"code" validate:"required,len=6"`
}

// VerifyOTP checks the submitted code; success marks the account's phone
// verified and issues a session token
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Phone number and 6-digit code are required")
	}

	result, err := h.otp.Verify(req.PhoneNumber, req.Code)
	if err != nil {
		return respondError(c, err)
	}
	if !result.Verified {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":            false,
			"message":            "Incorrect verification code",
			"remaining_attempts": result.RemainingAttempts,
		})
	}

	phone := models.NormalizePhone(req.PhoneNumber)
	user, err := h.store.GetUserByPhone(phone)
	if err != nil {
		return respondError(c, err)
	}

	user.PhoneVerified = true
	now := time.Now()
	user.LastLoginAt = &now
	if err := h.store.UpdateUser(user); err != nil {
		return respondError(c, err)
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, "Phone verified successfully", authPayload{User: user, Token: token})
}

// GetProfile returns the authenticated user
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	return ok(c, "", middleware.CurrentUser(c))
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UpdateProfile changes the caller's name and/or email
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid email address")
	}

	user := middleware.CurrentUser(c)
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		// Same normalization the create path applies, so the unique
		// index cannot be sidestepped by casing
		normalized := strings.ToLower(strings.TrimSpace(req.Email))
		user.Email = &normalized
	}
	if err := h.store.UpdateUser(user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return fail(c, fiber.StatusBadRequest, "This email is already registered")
		}
		return respondError(c, err)
	}
	return ok(c, "Profile updated successfully", user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// ChangePassword verifies the current password and stores a new hash
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Current and new password are required, minimum 6 characters")
	}

	user := middleware.CurrentUser(c)
	if !utils.CheckPassword(user.Password, req.CurrentPassword) {
		return fail(c, fiber.StatusUnauthorized, "Current password is incorrect")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return respondError(c, err)
	}
	user.Password = hash
	if err := h.store.UpdateUser(user); err != nil {
		return respondError(c, err)
	}
	return ok(c, "Password changed successfully", nil)
}
