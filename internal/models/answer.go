package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Answer struct {
	ID         string `gorm:"primaryKey" json:"id"`
	QuestionID string `gorm:"index;not null" json:"question_id"`
	AuthorID   string `gorm:"index;not null" json:"author_id"`
	Author     User   `gorm:"foreignKey:AuthorID" json:"author"`
	Content    string `gorm:"not null" json:"content"`

	Upvotes   int `gorm:"default:0" json:"upvotes"`
	Downvotes int `gorm:"default:0" json:"downvotes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type CreateAnswerRequest struct {
	Content string `json:"content"`
}
