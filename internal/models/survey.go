package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Survey is a quiz attached 1:1 to an article. Passing it (70%+) earns points.
type Survey struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	ArticleID string    `json:"article_id" gorm:"type:uuid;not null;uniqueIndex"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE"`
}

func (s *Survey) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Question belongs to a survey
type Question struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	SurveyID  string    `json:"survey_id" gorm:"type:uuid;not null;index"`
	Text      string    `json:"text" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`

	Options []Option `json:"options,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// Option is one possible answer to a question
type Option struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	QuestionID string    `json:"question_id" gorm:"type:uuid;not null;index"`
	Text       string    `json:"text" gorm:"not null"`
	IsCorrect  bool      `json:"-" gorm:"default:false"` // hidden from quiz takers
	CreatedAt  time.Time `json:"created_at"`
}

func (o *Option) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// UserAnswer records one submitted answer. The unique index keeps a user
// from answering the same question twice across repeat submissions.
type UserAnswer struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_question_answer"`
	QuestionID string    `json:"question_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_question_answer"`
	OptionID   string    `json:"option_id" gorm:"type:uuid;not null"`
	IsCorrect  bool      `json:"is_correct" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (a *UserAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
