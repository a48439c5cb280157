package engine

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/devflowhq/backend/internal/models"
)

// ToggleSave adds the question to the requester's saved collection, or
// removes it if already saved. Returns whether the question is saved after
// the call.
func (e *Engine) ToggleSave(ctx context.Context, requesterID, questionID string) (bool, error) {
	if requesterID == "" {
		return false, unauthorizedErr("save a question")
	}
	if questionID == "" {
		return false, validationErr("question id is required")
	}

	var saved bool
	err := e.run(ctx, func(uow *UnitOfWork) error {
		var question models.Question
		err := uow.DB().Select("id", "author_id").First(&question, "id = ?", questionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("question")
		}
		if err != nil {
			return internalErr("loading question", err)
		}

		var existing models.Collection
		err = uow.DB().
			Where("author_id = ? AND question_id = ?", requesterID, questionID).
			First(&existing).Error

		switch {
		case err == nil:
			if err := uow.DB().Delete(&models.Collection{}, "id = ?", existing.ID).Error; err != nil {
				return internalErr("removing collection entry", err)
			}
			saved = false

		case errors.Is(err, gorm.ErrRecordNotFound):
			entry := models.Collection{AuthorID: requesterID, QuestionID: questionID}
			if err := uow.DB().Create(&entry).Error; err != nil {
				return internalErr("creating collection entry", err)
			}
			saved = true

			uow.AfterCommit(func(ctx context.Context) error {
				return e.RecordInteraction(ctx, RecordInteractionInput{
					Performer:     requesterID,
					Action:        models.ActionBookmark,
					TargetID:      questionID,
					TargetType:    models.TargetQuestion,
					ContentAuthor: question.AuthorID,
				})
			})

		default:
			return internalErr("looking up collection entry", err)
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return saved, nil
}

// HasSaved reports whether the requester saved the question. Pure read.
func (e *Engine) HasSaved(ctx context.Context, requesterID, questionID string) (bool, error) {
	if requesterID == "" {
		return false, unauthorizedErr("check saved status")
	}
	if questionID == "" {
		return false, validationErr("question id is required")
	}

	var count int64
	err := e.db.WithContext(ctx).
		Model(&models.Collection{}).
		Where("author_id = ? AND question_id = ?", requesterID, questionID).
		Count(&count).Error
	if err != nil {
		return false, internalErr("looking up collection entry", err)
	}

	return count > 0, nil
}
