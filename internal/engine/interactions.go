package engine

import (
	"context"

	"gorm.io/gorm"

	"github.com/devflowhq/backend/internal/models"
)

type RecordInteractionInput struct {
	Performer     string
	Action        models.InteractionAction
	TargetID      string
	TargetType    models.TargetType
	ContentAuthor string
}

// RecordInteraction appends one audit entry and applies the point table to
// the performer and the content author in the same transaction. It runs as
// a deferred side effect of a primary mutation that already committed, so
// its failure is the caller's to log, never to surface.
func (e *Engine) RecordInteraction(ctx context.Context, in RecordInteractionInput) error {
	if in.Performer == "" || in.ContentAuthor == "" {
		return validationErr("performer and content author are required")
	}
	if !in.Action.Valid() {
		return validationErr("unknown interaction action %q", in.Action)
	}
	if _, err := resolveTarget(in.TargetType, in.TargetID); err != nil {
		return err
	}

	return e.run(ctx, func(uow *UnitOfWork) error {
		interaction := models.Interaction{
			UserID:     in.Performer,
			Action:     in.Action,
			TargetID:   in.TargetID,
			TargetType: in.TargetType,
		}
		if err := uow.DB().Create(&interaction).Error; err != nil {
			return internalErr("recording interaction", err)
		}

		return e.applyReputation(uow, in.Performer, in.ContentAuthor, reputationFor(in.Action, in.TargetType))
	})
}

// applyReputation adjusts both users' scores with atomic increments in the
// enclosing transaction. A performer acting on their own content earns the
// author delta once, never both.
func (e *Engine) applyReputation(uow *UnitOfWork, performerID, authorID string, delta reputationDelta) error {
	if delta == (reputationDelta{}) {
		return nil
	}

	if performerID == authorID {
		return e.incrementReputation(uow, authorID, delta.Author)
	}

	if err := e.incrementReputation(uow, performerID, delta.Performer); err != nil {
		return err
	}
	return e.incrementReputation(uow, authorID, delta.Author)
}

func (e *Engine) incrementReputation(uow *UnitOfWork, userID string, points int) error {
	if points == 0 {
		return nil
	}
	err := uow.DB().
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("reputation", gorm.Expr("reputation + ?", points)).Error
	if err != nil {
		return internalErr("updating reputation", err)
	}
	return nil
}
