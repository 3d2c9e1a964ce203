package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Game types
const (
	GameTypeCrossword = "crossword"
	GameTypePuzzle    = "puzzle"
	GameTypeQuiz      = "quiz"
)

// Game is an admin-authored learning game. PointsReward of 0 means
// "use the default game reward".
type Game struct {
	ID                 string    `json:"id" gorm:"type:uuid;primaryKey"`
	Type               string    `json:"type" gorm:"not null"`
	Title              string    `json:"title" gorm:"not null"`
	Content            string    `json:"content" gorm:"type:text"` // game definition (grid, clues, ...) as JSON
	EducationalMessage string    `json:"educational_message"`
	PointsReward       int       `json:"points_reward" gorm:"default:0"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// UserGame proves a user was already credited for completing a game
type UserGame struct {
	ID           string     `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       string     `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_game"`
	GameID       string     `json:"game_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_game"`
	Completed    bool       `json:"completed" gorm:"not null;default:false"`
	PointsEarned int        `json:"points_earned" gorm:"not null;default:0"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (g *UserGame) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
