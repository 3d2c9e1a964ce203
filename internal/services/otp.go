package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/storage"
	"github.com/sawtna-yabni/community-backend/internal/utils"
)

// OTPService issues and verifies one-time codes bound to phone numbers.
// At most one challenge per number is live at a time: every issuance
// discards the prior unverified challenge first. Writes for one number
// are serialized through a per-phone lock so a verify can never race an
// issuance and succeed against a superseded code.
type OTPService struct {
	store   storage.Store
	gateway Gateway

	mu         sync.Mutex
	phoneLocks map[string]*sync.Mutex
}

// NewOTPService creates a new OTP service
func NewOTPService(store storage.Store, gateway Gateway) *OTPService {
	return &OTPService{
		store:      store,
		gateway:    gateway,
		phoneLocks: make(map[string]*sync.Mutex),
	}
}

func (s *OTPService) lockPhone(phone string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, exists := s.phoneLocks[phone]
	if !exists {
		lock = &sync.Mutex{}
		s.phoneLocks[phone] = lock
	}
	return lock
}

// Issue generates a fresh 6-digit challenge for the number, supersedes any
// prior unverified one, and delivers the code. A delivery failure rolls
// the new challenge back so no orphaned code survives.
func (s *OTPService) Issue(phone string) (*models.OTP, error) {
	phone = models.NormalizePhone(phone)

	lock := s.lockPhone(phone)
	lock.Lock()
	defer lock.Unlock()

	return s.issueLocked(phone)
}

func (s *OTPService) issueLocked(phone string) (*models.OTP, error) {
	if !s.gateway.IsConnected() {
		return nil, ErrServiceUnavailable
	}

	// Stale codes must never verify after a new one goes out
	if err := s.store.DeleteUnverifiedOTPs(phone); err != nil {
		return nil, fmt.Errorf("failed to discard previous codes: %w", err)
	}

	code, err := utils.GenerateOTPCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	otp := &models.OTP{
		PhoneNumber: phone,
		Code:        code,
		ExpiresAt:   time.Now().Add(models.OTPValidity),
	}
	if _, err := s.store.CreateOTP(otp); err != nil {
		return nil, fmt.Errorf("failed to store code: %w", err)
	}

	if err := s.gateway.SendOTP(phone, code); err != nil {
		log.Printf("❌ OTP delivery to %s failed: %v", phone, err)
		if delErr := s.store.DeleteOTP(otp.ID); delErr != nil {
			log.Printf("⚠️  Failed to roll back undelivered OTP %s: %v", otp.ID, delErr)
		}
		return nil, ErrDeliveryFailed
	}

	return otp, nil
}

// Resend issues a new challenge after enforcing the cooldown: the most
// recent challenge for the number, whatever its state, must be at least
// two minutes old.
func (s *OTPService) Resend(phone string) (*models.OTP, error) {
	phone = models.NormalizePhone(phone)

	lock := s.lockPhone(phone)
	lock.Lock()
	defer lock.Unlock()

	last, err := s.store.GetLatestOTP(phone)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check previous code: %w", err)
	}
	if err == nil {
		elapsed := time.Since(last.CreatedAt)
		if elapsed < models.OTPResendCooldown {
			return nil, &TooSoonError{RetryAfter: models.OTPResendCooldown - elapsed}
		}
	}

	return s.issueLocked(phone)
}

// VerifyResult reports the outcome of a verification attempt
type VerifyResult struct {
	Verified          bool `json:"verified"`
	RemainingAttempts int  `json:"remaining_attempts"`
}

// Verify checks the submitted code against the live challenge for the
// number. Every call against a live challenge burns one attempt, right or
// wrong. A challenge that is expired or out of attempts is permanently
// dead and reports ErrChallengeInvalid even for the correct code.
func (s *OTPService) Verify(phone, code string) (*VerifyResult, error) {
	phone = models.NormalizePhone(phone)

	lock := s.lockPhone(phone)
	lock.Lock()
	defer lock.Unlock()

	otp, err := s.store.GetActiveOTP(phone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoActiveChallenge
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	if !otp.IsValid() {
		return nil, ErrChallengeInvalid
	}

	matched := otp.VerifyCode(code)
	if err := s.store.UpdateOTP(otp); err != nil {
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}

	if !matched {
		return &VerifyResult{Verified: false, RemainingAttempts: otp.RemainingAttempts()}, nil
	}
	return &VerifyResult{Verified: true, RemainingAttempts: otp.RemainingAttempts()}, nil
}

// PurgeExpired deletes challenges past their expiry. Called periodically
// from the maintenance job; verification never depends on it because
// expiry is checked lazily.
func (s *OTPService) PurgeExpired() error {
	return s.store.DeleteExpiredOTPs()
}
