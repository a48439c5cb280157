package engine

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/devflowhq/backend/internal/models"
)

func validateQuestionInput(title, content string, tags []string) error {
	if strings.TrimSpace(title) == "" {
		return validationErr("title is required")
	}
	if strings.TrimSpace(content) == "" {
		return validationErr("content is required")
	}
	if len(tags) == 0 {
		return validationErr("at least one tag is required")
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return validationErr("tag names must not be empty")
		}
	}
	return nil
}

// CreateQuestion creates a question and attaches its tags in one unit of
// work, then records the post interaction after commit.
func (e *Engine) CreateQuestion(ctx context.Context, requesterID string, in models.CreateQuestionRequest) (*models.Question, error) {
	if requesterID == "" {
		return nil, unauthorizedErr("create a question")
	}
	if err := validateQuestionInput(in.Title, in.Content, in.Tags); err != nil {
		return nil, err
	}

	question := models.Question{
		Title:    in.Title,
		Content:  in.Content,
		AuthorID: requesterID,
	}

	err := e.run(ctx, func(uow *UnitOfWork) error {
		if err := uow.DB().Omit("Tags").Create(&question).Error; err != nil {
			return internalErr("creating question", err)
		}

		if err := e.syncTagsForCreate(uow, &question, in.Tags); err != nil {
			return err
		}

		uow.AfterCommit(func(ctx context.Context) error {
			return e.RecordInteraction(ctx, RecordInteractionInput{
				Performer:     requesterID,
				Action:        models.ActionPost,
				TargetID:      question.ID,
				TargetType:    models.TargetQuestion,
				ContentAuthor: requesterID,
			})
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &question, nil
}

// EditQuestion updates title and content and reconciles the tag set, all
// inside one unit of work. Only the author may edit.
func (e *Engine) EditQuestion(ctx context.Context, requesterID, questionID string, in models.EditQuestionRequest) (*models.Question, error) {
	if requesterID == "" {
		return nil, unauthorizedErr("edit a question")
	}
	if questionID == "" {
		return nil, validationErr("question id is required")
	}
	if err := validateQuestionInput(in.Title, in.Content, in.Tags); err != nil {
		return nil, err
	}

	var question models.Question
	err := e.run(ctx, func(uow *UnitOfWork) error {
		err := uow.DB().Preload("Tags").First(&question, "id = ?", questionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("question")
		}
		if err != nil {
			return internalErr("loading question", err)
		}

		if question.AuthorID != requesterID {
			return unauthorizedErr("edit this question")
		}

		if question.Title != in.Title || question.Content != in.Content {
			question.Title = in.Title
			question.Content = in.Content
			err := uow.DB().Model(&question).
				Updates(map[string]interface{}{"title": in.Title, "content": in.Content}).Error
			if err != nil {
				return internalErr("updating question", err)
			}
		}

		return e.syncTagsForEdit(uow, &question, in.Tags)
	})
	if err != nil {
		return nil, err
	}

	return &question, nil
}

// DeleteQuestion removes a question and every record that exists only
// because of it: collection entries, tag relation rows (with counter
// reversal), its votes, its answers and their votes, then the question row.
// Answer ids are enumerated before their votes are deleted.
func (e *Engine) DeleteQuestion(ctx context.Context, requesterID, questionID string) error {
	if requesterID == "" {
		return unauthorizedErr("delete a question")
	}
	if questionID == "" {
		return validationErr("question id is required")
	}

	return e.run(ctx, func(uow *UnitOfWork) error {
		var question models.Question
		err := uow.DB().Preload("Tags").First(&question, "id = ?", questionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("question")
		}
		if err != nil {
			return internalErr("loading question", err)
		}

		if question.AuthorID != requesterID {
			return unauthorizedErr("delete this question")
		}

		if err := uow.DB().Where("question_id = ?", questionID).Delete(&models.Collection{}).Error; err != nil {
			return internalErr("deleting collection entries", err)
		}

		if err := uow.DB().Where("question_id = ?", questionID).Delete(&models.TagQuestion{}).Error; err != nil {
			return internalErr("deleting tag relations", err)
		}

		if len(question.Tags) > 0 {
			tagIDs := make([]string, 0, len(question.Tags))
			for _, tag := range question.Tags {
				tagIDs = append(tagIDs, tag.ID)
			}
			if err := e.decrementTagCounts(uow, tagIDs); err != nil {
				return err
			}
		}

		err = uow.DB().
			Where("target_id = ? AND target_type = ?", questionID, models.TargetQuestion).
			Delete(&models.Vote{}).Error
		if err != nil {
			return internalErr("deleting question votes", err)
		}

		// Answer ids must be captured before their votes go.
		var answerIDs []string
		err = uow.DB().Model(&models.Answer{}).
			Where("question_id = ?", questionID).
			Pluck("id", &answerIDs).Error
		if err != nil {
			return internalErr("listing answers", err)
		}

		if len(answerIDs) > 0 {
			err = uow.DB().
				Where("target_id IN ? AND target_type = ?", answerIDs, models.TargetAnswer).
				Delete(&models.Vote{}).Error
			if err != nil {
				return internalErr("deleting answer votes", err)
			}

			if err := uow.DB().Where("question_id = ?", questionID).Delete(&models.Answer{}).Error; err != nil {
				return internalErr("deleting answers", err)
			}
		}

		if err := uow.DB().Delete(&models.Question{}, "id = ?", questionID).Error; err != nil {
			return internalErr("deleting question", err)
		}

		uow.AfterCommit(func(ctx context.Context) error {
			return e.RecordInteraction(ctx, RecordInteractionInput{
				Performer:     requesterID,
				Action:        models.ActionDelete,
				TargetID:      questionID,
				TargetType:    models.TargetQuestion,
				ContentAuthor: question.AuthorID,
			})
		})

		return nil
	})
}

// IncrementViews bumps a question's view counter atomically and returns
// the new count. When the viewer is authenticated (requesterID non-empty)
// a view interaction is recorded after commit; it carries no points but
// feeds the recommendation reads.
func (e *Engine) IncrementViews(ctx context.Context, requesterID, questionID string) (int, error) {
	if questionID == "" {
		return 0, validationErr("question id is required")
	}

	var views int
	err := e.run(ctx, func(uow *UnitOfWork) error {
		var question models.Question
		err := uow.DB().Select("id", "author_id").First(&question, "id = ?", questionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("question")
		}
		if err != nil {
			return internalErr("loading question", err)
		}

		res := uow.DB().
			Model(&models.Question{}).
			Where("id = ?", questionID).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return internalErr("incrementing views", res.Error)
		}

		var after models.Question
		if err := uow.DB().Select("id", "views").First(&after, "id = ?", questionID).Error; err != nil {
			return internalErr("reading views", err)
		}
		views = after.Views

		if requesterID != "" {
			uow.AfterCommit(func(ctx context.Context) error {
				return e.RecordInteraction(ctx, RecordInteractionInput{
					Performer:     requesterID,
					Action:        models.ActionView,
					TargetID:      questionID,
					TargetType:    models.TargetQuestion,
					ContentAuthor: question.AuthorID,
				})
			})
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return views, nil
}
