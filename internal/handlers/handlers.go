package handlers

import (
	"gorm.io/gorm"

	"github.com/devflowhq/backend/internal/cache"
	"github.com/devflowhq/backend/internal/engine"
)

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Question *QuestionHandler
	Answer   *AnswerHandler
	Vote     *VoteHandler
	Tag      *TagHandler
	User     *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, eng *engine.Engine, invalidator cache.Invalidator) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(db),
		Question: NewQuestionHandler(db, eng, invalidator),
		Answer:   NewAnswerHandler(db, eng, invalidator),
		Vote:     NewVoteHandler(eng, invalidator),
		Tag:      NewTagHandler(db),
		User:     NewUserHandler(db),
	}
}
