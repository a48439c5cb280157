package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag names are unique case-insensitively: NameKey holds the lowercased
// name and carries the unique index, Name keeps the first-seen casing.
type Tag struct {
	ID      string `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"not null" json:"name"`
	NameKey string `gorm:"uniqueIndex;not null" json:"-"`

	// Denormalized count of tag_questions rows referencing this tag.
	Questions int `gorm:"default:0" json:"questions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TagQuestion is the Tag↔Question relation row; it exists iff the tag is
// currently attached to the question.
type TagQuestion struct {
	TagID      string    `gorm:"primaryKey" json:"tag_id"`
	QuestionID string    `gorm:"primaryKey" json:"question_id"`
	CreatedAt  time.Time `json:"created_at"`
}
