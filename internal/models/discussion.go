package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiscussionSession is a scheduled live session users earn points for attending
type DiscussionSession struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	Title        string    `json:"title" gorm:"not null"`
	Description  string    `json:"description"`
	MeetLink     string    `json:"meet_link"`
	DateTime     time.Time `json:"date_time" gorm:"not null"`
	PointsReward int       `json:"points_reward" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Polls []SessionPoll `json:"polls,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (s *DiscussionSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// SessionAttendance tracks registration and attendance for a session.
// Unlike the other completion records it may be updated in place: a
// "registered but not attended" row flips to attended when points are
// credited. One row per (session, user).
type SessionAttendance struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID    string    `json:"session_id" gorm:"type:uuid;not null;uniqueIndex:idx_session_user_attendance"`
	UserID       string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_session_user_attendance"`
	Attended     bool      `json:"attended" gorm:"not null;default:false"`
	PointsEarned int       `json:"points_earned" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *SessionAttendance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// SessionPoll is a quick poll run during a live session
type SessionPoll struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:uuid;not null;index"`
	Question  string    `json:"question" gorm:"not null"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`

	Options []SessionPollOption `json:"options,omitempty" gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE"`
}

func (p *SessionPoll) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// SessionPollOption is one choice in a session poll
type SessionPollOption struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	PollID    string    `json:"poll_id" gorm:"type:uuid;not null;index"`
	Text      string    `json:"text" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (o *SessionPollOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// SessionPollVote proves a user was already credited for voting in a
// session poll. One vote per (poll, user).
type SessionPollVote struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	PollID       string    `json:"poll_id" gorm:"type:uuid;not null;uniqueIndex:idx_session_poll_user_vote"`
	UserID       string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_session_poll_user_vote"`
	OptionID     string    `json:"option_id" gorm:"type:uuid;not null"`
	PointsEarned int       `json:"points_earned" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
}

func (v *SessionPollVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
