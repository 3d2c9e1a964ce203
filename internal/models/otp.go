package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxOTPAttempts is the verification attempt budget per challenge.
// Once attempts reach this value the challenge is permanently dead.
const MaxOTPAttempts = 5

// OTPValidity is how long an issued code stays verifiable
const OTPValidity = 10 * time.Minute

// OTPResendCooldown is the minimum gap between issuances for one number
const OTPResendCooldown = 2 * time.Minute

// OTP is a single verification challenge bound to a phone number
type OTP struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	PhoneNumber string    `json:"phone_number" gorm:"not null;index"`
	Code        string    `json:"-" gorm:"not null"` // 6-digit code, never serialized
	ExpiresAt   time.Time `json:"expires_at" gorm:"not null"`
	Verified    bool      `json:"verified" gorm:"default:false"`
	Attempts    int       `json:"attempts" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (o *OTP) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// IsValid reports whether the challenge can still be verified:
// not yet verified, not expired, attempt budget not exhausted.
func (o *OTP) IsValid() bool {
	return !o.Verified && time.Now().Before(o.ExpiresAt) && o.Attempts < MaxOTPAttempts
}

// VerifyCode burns one attempt and checks the submitted code. The attempt
// counter increments even on a wrong guess. Returns true only when the code
// matches and the challenge was still valid at match time.
func (o *OTP) VerifyCode(input string) bool {
	stillValid := o.IsValid()
	o.Attempts++
	if stillValid && o.Code == input {
		o.Verified = true
		return true
	}
	return false
}

// RemainingAttempts reports how many tries are left on this challenge
func (o *OTP) RemainingAttempts() int {
	remaining := MaxOTPAttempts - o.Attempts
	if remaining < 0 {
		return 0
	}
	return remaining
}
