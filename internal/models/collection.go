package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Collection is a saved-question entry; deleted when the referenced
// question is deleted.
type Collection struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	AuthorID   string    `gorm:"not null;uniqueIndex:idx_collections_author_question" json:"author_id"`
	QuestionID string    `gorm:"not null;uniqueIndex:idx_collections_author_question;index" json:"question_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *Collection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
