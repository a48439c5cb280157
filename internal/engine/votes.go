package engine

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/devflowhq/backend/internal/models"
)

func voteColumn(voteType models.VoteType) string {
	if voteType == models.VoteUp {
		return "upvotes"
	}
	return "downvotes"
}

// applyVoteDelta shifts a target's denormalized vote counter. Always an
// atomic in-database increment, never read-modify-write, so concurrent
// votes on the same target cannot lose an update.
func (e *Engine) applyVoteDelta(uow *UnitOfWork, ref targetRef, voteType models.VoteType, change int) error {
	column := voteColumn(voteType)
	res := uow.DB().
		Model(ref.model()).
		Where("id = ?", ref.ID).
		UpdateColumn(column, gorm.Expr(column+" + ?", change))
	if res.Error != nil {
		return internalErr("updating vote count", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundErr(string(ref.Type))
	}
	return nil
}

// CreateVote applies one transition of the per-(voter, target) state
// machine: no vote yet inserts a row and bumps the counter, repeating the
// same vote toggles it off, and a different vote switches the row's type
// while moving one count between counters. Row mutation and counter update
// commit together or not at all.
func (e *Engine) CreateVote(ctx context.Context, requesterID, targetID string, targetType models.TargetType, voteType models.VoteType) error {
	if requesterID == "" {
		return unauthorizedErr("vote")
	}
	if !voteType.Valid() {
		return validationErr("unknown vote type %q", voteType)
	}
	ref, err := resolveTarget(targetType, targetID)
	if err != nil {
		return err
	}

	return e.run(ctx, func(uow *UnitOfWork) error {
		contentAuthorID, err := e.fetchAuthor(uow.DB(), ref)
		if err != nil {
			return err
		}

		var existing models.Vote
		err = uow.DB().
			Where("author_id = ? AND target_id = ? AND target_type = ?", requesterID, ref.ID, ref.Type).
			First(&existing).Error

		switch {
		case err == nil && existing.VoteType == voteType:
			// Toggle off.
			if err := uow.DB().Delete(&models.Vote{}, "id = ?", existing.ID).Error; err != nil {
				return internalErr("removing vote", err)
			}
			if err := e.applyVoteDelta(uow, ref, voteType, -1); err != nil {
				return err
			}

		case err == nil:
			// Switch type.
			if err := uow.DB().Model(&models.Vote{}).
				Where("id = ?", existing.ID).
				Update("vote_type", voteType).Error; err != nil {
				return internalErr("switching vote", err)
			}
			if err := e.applyVoteDelta(uow, ref, existing.VoteType, -1); err != nil {
				return err
			}
			if err := e.applyVoteDelta(uow, ref, voteType, 1); err != nil {
				return err
			}

		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{
				AuthorID:   requesterID,
				TargetID:   ref.ID,
				TargetType: ref.Type,
				VoteType:   voteType,
			}
			if err := uow.DB().Create(&vote).Error; err != nil {
				return internalErr("creating vote", err)
			}
			if err := e.applyVoteDelta(uow, ref, voteType, 1); err != nil {
				return err
			}

		default:
			return internalErr("looking up vote", err)
		}

		uow.AfterCommit(func(ctx context.Context) error {
			return e.RecordInteraction(ctx, RecordInteractionInput{
				Performer:     requesterID,
				Action:        models.InteractionAction(voteType),
				TargetID:      ref.ID,
				TargetType:    ref.Type,
				ContentAuthor: contentAuthorID,
			})
		})

		return nil
	})
}

// HasVoted reports the requester's current vote state for a target. A pure
// read: no vote row is "not voted", never an error.
func (e *Engine) HasVoted(ctx context.Context, requesterID, targetID string, targetType models.TargetType) (models.VoteStatus, error) {
	if requesterID == "" {
		return models.VoteStatus{}, unauthorizedErr("check vote status")
	}
	ref, err := resolveTarget(targetType, targetID)
	if err != nil {
		return models.VoteStatus{}, err
	}

	var vote models.Vote
	err = e.db.WithContext(ctx).
		Where("author_id = ? AND target_id = ? AND target_type = ?", requesterID, ref.ID, ref.Type).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.VoteStatus{}, nil
	}
	if err != nil {
		return models.VoteStatus{}, internalErr("looking up vote", err)
	}

	return models.VoteStatus{
		HasUpvoted:   vote.VoteType == models.VoteUp,
		HasDownvoted: vote.VoteType == models.VoteDown,
	}, nil
}
