package engine

import (
	"errors"

	"gorm.io/gorm"

	"github.com/devflowhq/backend/internal/models"
)

// targetRef is the resolved form of a polymorphic (question vs. answer)
// reference. Operations resolve the incoming target type once, at the
// boundary, and work through the descriptor from then on.
type targetRef struct {
	Type models.TargetType
	ID   string
}

func resolveTarget(targetType models.TargetType, id string) (targetRef, error) {
	if id == "" {
		return targetRef{}, validationErr("target id is required")
	}
	if !targetType.Valid() {
		return targetRef{}, validationErr("unknown target type %q", targetType)
	}
	return targetRef{Type: targetType, ID: id}, nil
}

// model returns the gorm model the counters live on.
func (r targetRef) model() interface{} {
	if r.Type == models.TargetQuestion {
		return &models.Question{}
	}
	return &models.Answer{}
}

// fetchAuthor loads the author id of the referenced content row, or
// ErrNotFound when the target does not exist.
func (e *Engine) fetchAuthor(tx *gorm.DB, ref targetRef) (string, error) {
	switch ref.Type {
	case models.TargetQuestion:
		var q models.Question
		if err := tx.Select("id", "author_id").First(&q, "id = ?", ref.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", notFoundErr("question")
			}
			return "", internalErr("loading question", err)
		}
		return q.AuthorID, nil
	default:
		var a models.Answer
		if err := tx.Select("id", "author_id").First(&a, "id = ?", ref.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", notFoundErr("answer")
			}
			return "", internalErr("loading answer", err)
		}
		return a.AuthorID, nil
	}
}
