package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

// fakeGateway records sent codes and can be told to fail deliveries
type fakeGateway struct {
	mu        sync.Mutex
	connected bool
	failSend  bool
	sent      []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{connected: true}
}

func (g *fakeGateway) IsConnected() bool {
	return g.connected
}

func (g *fakeGateway) SendOTP(phone, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSend {
		return fmt.Errorf("provider rejected message")
	}
	g.sent = append(g.sent, code)
	return nil
}

func (g *fakeGateway) SendSessionInvite(phone, name string, session *models.DiscussionSession) error {
	return nil
}

func (g *fakeGateway) lastCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sent) == 0 {
		return ""
	}
	return g.sent[len(g.sent)-1]
}

const testPhone = "+31612345678"

func TestOTPIssueAndVerify(t *testing.T) {
	store := storage.NewMemoryStore()
	gateway := newFakeGateway()
	svc := NewOTPService(store, gateway)

	otp, err := svc.Issue(testPhone)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(otp.Code) != 6 {
		t.Errorf("code length = %d, want 6", len(otp.Code))
	}
	if gateway.lastCode() != otp.Code {
		t.Error("delivered code does not match stored code")
	}

	result, err := svc.Verify(testPhone, otp.Code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Verified {
		t.Error("correct code not verified")
	}

	// A consumed challenge cannot be replayed
	if _, err := svc.Verify(testPhone, otp.Code); !errors.Is(err, ErrNoActiveChallenge) {
		t.Errorf("replay err = %v, want ErrNoActiveChallenge", err)
	}
}

func TestOTPVerifyWithoutChallenge(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, newFakeGateway())

	if _, err := svc.Verify(testPhone, "123456"); !errors.Is(err, ErrNoActiveChallenge) {
		t.Errorf("err = %v, want ErrNoActiveChallenge", err)
	}
}

func TestOTPWrongCodeBurnsAttempts(t *testing.T) {
	store := storage.NewMemoryStore()
	gateway := newFakeGateway()
	svc := NewOTPService(store, gateway)

	otp, err := svc.Issue(testPhone)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	wrong := "000000"
	if wrong == otp.Code {
		wrong = "000001"
	}

	for i := 0; i < models.MaxOTPAttempts; i++ {
		result, err := svc.Verify(testPhone, wrong)
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if result.Verified {
			t.Fatalf("attempt %d verified a wrong code", i+1)
		}
		want := models.MaxOTPAttempts - i - 1
		if result.RemainingAttempts != want {
			t.Errorf("attempt %d remaining = %d, want %d", i+1, result.RemainingAttempts, want)
		}
	}

	// Budget exhausted: even the correct code is dead now
	if _, err := svc.Verify(testPhone, otp.Code); !errors.Is(err, ErrChallengeInvalid) {
		t.Errorf("err after exhaustion = %v, want ErrChallengeInvalid", err)
	}
}

func TestOTPResendCooldown(t *testing.T) {
	store := storage.NewMemoryStore()
	gateway := newFakeGateway()
	svc := NewOTPService(store, gateway)

	first, err := svc.Issue(testPhone)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = svc.Resend(testPhone)
	var tooSoon *TooSoonError
	if !errors.As(err, &tooSoon) {
		t.Fatalf("err = %v, want TooSoonError", err)
	}
	if tooSoon.RetryAfter <= 0 || tooSoon.RetryAfter > models.OTPResendCooldown {
		t.Errorf("retry after = %v, want within (0, %v]", tooSoon.RetryAfter, models.OTPResendCooldown)
	}

	// Age the challenge past the cooldown and retry
	first.CreatedAt = time.Now().Add(-models.OTPResendCooldown - time.Second)
	if err := store.UpdateOTP(first); err != nil {
		t.Fatalf("age challenge: %v", err)
	}

	second, err := svc.Resend(testPhone)
	if err != nil {
		t.Fatalf("resend after cooldown: %v", err)
	}
	if second.ID == first.ID {
		t.Error("resend did not issue a fresh challenge")
	}
}

func TestOTPReissueSupersedesOldCode(t *testing.T) {
	store := storage.NewMemoryStore()
	gateway := newFakeGateway()
	svc := NewOTPService(store, gateway)

	first, err := svc.Issue(testPhone)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := svc.Issue(testPhone)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if first.Code != second.Code {
		result, err := svc.Verify(testPhone, first.Code)
		if err == nil && result.Verified {
			t.Error("superseded code still verified")
		}
	}

	result, err := svc.Verify(testPhone, second.Code)
	if err != nil {
		t.Fatalf("verify latest: %v", err)
	}
	if !result.Verified {
		t.Error("latest code not verified")
	}
}

func TestOTPDeliveryFailureRollsBack(t *testing.T) {
	store := storage.NewMemoryStore()
	gateway := newFakeGateway()
	gateway.failSend = true
	svc := NewOTPService(store, gateway)

	if _, err := svc.Issue(testPhone); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("err = %v, want ErrDeliveryFailed", err)
	}

	// The undelivered challenge must not linger
	if _, err := store.GetActiveOTP(testPhone); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("challenge survived failed delivery: %v", err)
	}
}

func TestOTPGatewayDisconnected(t *testing.T) {
	store := storage.NewMemoryStore()
	gateway := newFakeGateway()
	gateway.connected = false
	svc := NewOTPService(store, gateway)

	if _, err := svc.Issue(testPhone); !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestOTPExpiredChallenge(t *testing.T) {
	store := storage.NewMemoryStore()
	gateway := newFakeGateway()
	svc := NewOTPService(store, gateway)

	otp, err := svc.Issue(testPhone)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	otp.ExpiresAt = time.Now().Add(-time.Minute)
	if err := store.UpdateOTP(otp); err != nil {
		t.Fatalf("expire challenge: %v", err)
	}

	if _, err := svc.Verify(testPhone, otp.Code); !errors.Is(err, ErrChallengeInvalid) {
		t.Errorf("err = %v, want ErrChallengeInvalid for expired challenge", err)
	}
}

func TestOTPNormalizesPhone(t *testing.T) {
	store := storage.NewMemoryStore()
	gateway := newFakeGateway()
	svc := NewOTPService(store, gateway)

	otp, err := svc.Issue("31 612-345-678")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Verify with a differently formatted spelling of the same number
	result, err := svc.Verify("+31612345678", otp.Code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Verified {
		t.Error("normalized phone did not match")
	}
}

func TestPurgeExpired(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, newFakeGateway())

	expired := &models.OTP{
		PhoneNumber: testPhone,
		Code:        "111111",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	if _, err := store.CreateOTP(expired); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.PurgeExpired(); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := store.GetLatestOTP(testPhone); !errors.Is(err, storage.ErrNotFound) {
		t.Error("expired challenge survived purge")
	}
}
