package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InteractionAction string

const (
	ActionPost     InteractionAction = "post"
	ActionDelete   InteractionAction = "delete"
	ActionUpvote   InteractionAction = "upvote"
	ActionDownvote InteractionAction = "downvote"
	ActionView     InteractionAction = "view"
	ActionBookmark InteractionAction = "bookmark"
)

func (a InteractionAction) Valid() bool {
	switch a {
	case ActionPost, ActionDelete, ActionUpvote, ActionDownvote, ActionView, ActionBookmark:
		return true
	}
	return false
}

// Interaction is an append-only audit entry; the engine never mutates or
// deletes these rows, cascade deletes included.
type Interaction struct {
	ID         string            `gorm:"primaryKey" json:"id"`
	UserID     string            `gorm:"index;not null" json:"user_id"`
	Action     InteractionAction `gorm:"not null" json:"action"`
	TargetID   string            `gorm:"index;not null" json:"target_id"`
	TargetType TargetType        `gorm:"not null" json:"target_type"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (i *Interaction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
