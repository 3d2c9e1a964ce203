package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/sawtna-yabni/community-backend/internal/middleware"
	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/services"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

type fakeGateway struct {
	mu       sync.Mutex
	failSend bool
	lastCode string
}

func (g *fakeGateway) IsConnected() bool { return true }

func (g *fakeGateway) SendOTP(phone, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSend {
		return fmt.Errorf("provider rejected message")
	}
	g.lastCode = code
	return nil
}

func (g *fakeGateway) SendSessionInvite(phone, name string, session *models.DiscussionSession) error {
	return nil
}

type testEnv struct {
	app     *fiber.App
	store   *storage.MemoryStore
	gateway *fakeGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	store := storage.NewMemoryStore()
	gateway := &fakeGateway{}
	tokens, err := services.NewTokenService()
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	otp := services.NewOTPService(store, gateway)
	points := services.NewPointsService(store)

	authHandler := NewAuthHandler(store, otp, tokens)
	userHandler := NewUserHandler(store, points)
	protected := middleware.Protect(tokens, store)

	app := fiber.New()
	auth := app.Group("/api/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/otp/send", authHandler.SendOTP)
	auth.Post("/otp/verify", authHandler.VerifyOTP)
	auth.Get("/profile", protected, authHandler.GetProfile)
	auth.Put("/profile", protected, authHandler.UpdateProfile)
	app.Get("/api/leaderboard", userHandler.Leaderboard)

	return &testEnv{app: app, store: store, gateway: gateway}
}

func (e *testEnv) post(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/auth/register", fiber.Map{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	if data["token"] == "" {
		t.Error("no token issued on registration")
	}

	resp = env.post(t, "/api/auth/login", fiber.Map{
		"email":    "test@example.com",
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	resp = env.post(t, "/api/auth/login", fiber.Map{
		"email":    "test@example.com",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", resp.StatusCode)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	payload := fiber.Map{"name": "A", "email": "dup@example.com", "password": "secret123"}
	if resp := env.post(t, "/api/auth/register", payload); resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register status = %d", resp.StatusCode)
	}
	if resp := env.post(t, "/api/auth/register", payload); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate register status = %d, want 400", resp.StatusCode)
	}
}

func TestOTPRegistrationFlow(t *testing.T) {
	env := newTestEnv(t)

	// Unknown number without a name cannot start registration
	resp := env.post(t, "/api/auth/otp/send", fiber.Map{"phone_number": "+31612345678"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("nameless send status = %d, want 400", resp.StatusCode)
	}

	resp = env.post(t, "/api/auth/otp/send", fiber.Map{
		"phone_number": "+31612345678",
		"name":         "Phone User",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send status = %d, want 200", resp.StatusCode)
	}

	resp = env.post(t, "/api/auth/otp/verify", fiber.Map{
		"phone_number": "+31612345678",
		"code":         env.gateway.lastCode,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status = %d, want 200", resp.StatusCode)
	}

	user, err := env.store.GetUserByPhone("+31612345678")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if !user.PhoneVerified {
		t.Error("phone not marked verified")
	}
}

func TestOTPWrongCodeReportsRemainingAttempts(t *testing.T) {
	env := newTestEnv(t)

	env.post(t, "/api/auth/otp/send", fiber.Map{
		"phone_number": "+31612345678",
		"name":         "Phone User",
	})

	wrong := "000000"
	if wrong == env.gateway.lastCode {
		wrong = "000001"
	}
	resp := env.post(t, "/api/auth/otp/verify", fiber.Map{
		"phone_number": "+31612345678",
		"code":         wrong,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("wrong code status = %d, want 400", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["remaining_attempts"].(float64) != float64(models.MaxOTPAttempts-1) {
		t.Errorf("remaining_attempts = %v, want %d", body["remaining_attempts"], models.MaxOTPAttempts-1)
	}
}

func TestOTPDeliveryFailureRollsBackAccount(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.failSend = true

	resp := env.post(t, "/api/auth/otp/send", fiber.Map{
		"phone_number": "+31612345678",
		"name":         "Phone User",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("send status = %d, want 500", resp.StatusCode)
	}

	// The pending account must be gone
	if _, err := env.store.GetUserByPhone("+31612345678"); err == nil {
		t.Error("pending account survived failed delivery")
	}
}

func TestUpdateProfileNormalizesEmail(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/auth/register", fiber.Map{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	token := body["data"].(map[string]interface{})["token"].(string)

	payload, _ := json.Marshal(fiber.Map{"email": "New@Example.COM"})
	req := httptest.NewRequest(http.MethodPut, "/api/auth/profile", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, want 200", resp.StatusCode)
	}

	// Stored lowercased, so lookups and the unique index see one spelling
	user, err := env.store.GetUserByEmail("new@example.com")
	if err != nil {
		t.Fatalf("normalized email not found: %v", err)
	}
	if *user.Email != "new@example.com" {
		t.Errorf("stored email = %q, want lowercased", *user.Email)
	}
}

func TestProfileRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.store.CreateUser(&models.User{Name: "Alice", Password: "x", Points: 40})
	env.store.CreateUser(&models.User{Name: "Bob", Password: "x", Points: 60})

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	entries := body["data"].([]interface{})
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	first := entries[0].(map[string]interface{})
	if first["name"] != "Bob" {
		t.Errorf("first entry = %v, want Bob", first["name"])
	}
}
