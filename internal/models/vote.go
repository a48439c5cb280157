package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TargetType identifies which kind of content a vote or interaction refers to.
type TargetType string

const (
	TargetQuestion TargetType = "question"
	TargetAnswer   TargetType = "answer"
)

func (t TargetType) Valid() bool {
	return t == TargetQuestion || t == TargetAnswer
}

type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Vote tracks one user's vote on one target; at most one row per
// (author, target id, target type).
type Vote struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	AuthorID   string     `gorm:"not null;uniqueIndex:idx_votes_author_target" json:"author_id"`
	TargetID   string     `gorm:"not null;uniqueIndex:idx_votes_author_target;index" json:"target_id"`
	TargetType TargetType `gorm:"not null;uniqueIndex:idx_votes_author_target" json:"target_type"`
	VoteType   VoteType   `gorm:"not null" json:"vote_type"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

type CreateVoteRequest struct {
	TargetID   string     `json:"target_id"`
	TargetType TargetType `json:"target_type"`
	VoteType   VoteType   `json:"vote_type"`
}

type VoteStatus struct {
	HasUpvoted   bool `json:"has_upvoted"`
	HasDownvoted bool `json:"has_downvoted"`
}
