package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a member of the platform. A user signs up either with
// email+password or through the WhatsApp OTP flow (phone only).
type User struct {
	ID            string     `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string     `json:"name" gorm:"not null"`
	Email         *string    `json:"email,omitempty" gorm:"uniqueIndex"`
	PhoneNumber   *string    `json:"phone_number,omitempty" gorm:"uniqueIndex"`
	Password      string     `json:"-" gorm:"not null"` // bcrypt hash, never serialized
	Points        int        `json:"points" gorm:"not null;default:0;check:points >= 0"`
	Role          string     `json:"role" gorm:"not null;default:user"`
	PhoneVerified bool       `json:"phone_verified" gorm:"default:false"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// BeforeCreate hook to assign a UUID and normalize identifiers
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*u.Email))
		u.Email = &normalized
	}
	if u.PhoneNumber != nil {
		normalized := NormalizePhone(*u.PhoneNumber)
		u.PhoneNumber = &normalized
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizePhone strips spaces and dashes and ensures a leading +
func NormalizePhone(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
	if cleaned != "" && !strings.HasPrefix(cleaned, "+") {
		cleaned = "+" + cleaned
	}
	return cleaned
}

// UserRegistration is the payload for email+password signup
type UserRegistration struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// UserLogin is the payload for email+password login
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
