package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Poll is a standalone opinion poll users earn points for voting in
type Poll struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	Title        string    `json:"title" gorm:"not null"`
	Description  string    `json:"description"`
	PointsReward int       `json:"points_reward" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Options []PollOption `json:"options,omitempty" gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE"`
}

func (p *Poll) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PollOption is one choice in a poll
type PollOption struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	PollID    string    `json:"poll_id" gorm:"type:uuid;not null;index"`
	Text      string    `json:"text" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (o *PollOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// PollVote proves a user was already credited for voting in a poll.
// One vote per (poll, user), enforced by the composite unique index.
type PollVote struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	PollID       string    `json:"poll_id" gorm:"type:uuid;not null;uniqueIndex:idx_poll_user_vote"`
	UserID       string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_poll_user_vote"`
	OptionID     string    `json:"option_id" gorm:"type:uuid;not null"`
	PointsEarned int       `json:"points_earned" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
}

func (v *PollVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
