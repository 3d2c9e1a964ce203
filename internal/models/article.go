package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups articles by topic
type Category struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"not null;uniqueIndex"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Articles []Article `json:"articles,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Article is admin-authored content users earn points for reading
type Article struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	Title      string    `json:"title" gorm:"not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	ImageURL   string    `json:"image_url"`
	CategoryID string    `json:"category_id" gorm:"type:uuid;not null;index"`
	AdminID    string    `json:"admin_id" gorm:"type:uuid;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Survey   *Survey   `json:"survey,omitempty" gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// ArticleRead proves a user was already credited for reading an article.
// The composite unique index is the authoritative double-credit guard.
type ArticleRead struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_article_read"`
	ArticleID    string    `json:"article_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_article_read"`
	PointsEarned int       `json:"points_earned" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *ArticleRead) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
