package engine

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/devflowhq/backend/internal/models"
)

// CreateAnswer posts an answer and bumps the parent question's answer
// counter in the same unit of work.
func (e *Engine) CreateAnswer(ctx context.Context, requesterID, questionID, content string) (*models.Answer, error) {
	if requesterID == "" {
		return nil, unauthorizedErr("create an answer")
	}
	if questionID == "" {
		return nil, validationErr("question id is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, validationErr("content is required")
	}

	answer := models.Answer{
		QuestionID: questionID,
		AuthorID:   requesterID,
		Content:    content,
	}

	err := e.run(ctx, func(uow *UnitOfWork) error {
		var question models.Question
		err := uow.DB().Select("id").First(&question, "id = ?", questionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("question")
		}
		if err != nil {
			return internalErr("loading question", err)
		}

		if err := uow.DB().Create(&answer).Error; err != nil {
			return internalErr("creating answer", err)
		}

		err = uow.DB().Model(&models.Question{}).
			Where("id = ?", questionID).
			UpdateColumn("answers", gorm.Expr("answers + ?", 1)).Error
		if err != nil {
			return internalErr("incrementing answer count", err)
		}

		uow.AfterCommit(func(ctx context.Context) error {
			return e.RecordInteraction(ctx, RecordInteractionInput{
				Performer:     requesterID,
				Action:        models.ActionPost,
				TargetID:      answer.ID,
				TargetType:    models.TargetAnswer,
				ContentAuthor: requesterID,
			})
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &answer, nil
}

// DeleteAnswer removes an answer with its votes and reverses the parent
// question's answer counter. Only the author may delete.
func (e *Engine) DeleteAnswer(ctx context.Context, requesterID, answerID string) error {
	if requesterID == "" {
		return unauthorizedErr("delete an answer")
	}
	if answerID == "" {
		return validationErr("answer id is required")
	}

	return e.run(ctx, func(uow *UnitOfWork) error {
		var answer models.Answer
		err := uow.DB().First(&answer, "id = ?", answerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("answer")
		}
		if err != nil {
			return internalErr("loading answer", err)
		}

		if answer.AuthorID != requesterID {
			return unauthorizedErr("delete this answer")
		}

		res := uow.DB().Model(&models.Question{}).
			Where("id = ? AND answers > 0", answer.QuestionID).
			UpdateColumn("answers", gorm.Expr("answers - ?", 1))
		if res.Error != nil {
			return internalErr("decrementing answer count", res.Error)
		}
		if res.RowsAffected == 0 {
			return conflictErr("answer count for question %s would go negative", answer.QuestionID)
		}

		err = uow.DB().
			Where("target_id = ? AND target_type = ?", answerID, models.TargetAnswer).
			Delete(&models.Vote{}).Error
		if err != nil {
			return internalErr("deleting answer votes", err)
		}

		if err := uow.DB().Delete(&models.Answer{}, "id = ?", answerID).Error; err != nil {
			return internalErr("deleting answer", err)
		}

		uow.AfterCommit(func(ctx context.Context) error {
			return e.RecordInteraction(ctx, RecordInteractionInput{
				Performer:     requesterID,
				Action:        models.ActionDelete,
				TargetID:      answerID,
				TargetType:    models.TargetAnswer,
				ContentAuthor: answer.AuthorID,
			})
		})

		return nil
	})
}
