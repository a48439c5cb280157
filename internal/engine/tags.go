package engine

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/devflowhq/backend/internal/models"
)

// upsertTag resolves a tag by case-insensitive name in a single
// conditional-upsert-and-increment statement: insert with questions = 1, or
// bump the existing row's count. One statement, so two concurrent identical
// names can never race into duplicate tags.
func (e *Engine) upsertTag(uow *UnitOfWork, name string) (models.Tag, error) {
	tag := models.Tag{
		Name:      name,
		NameKey:   strings.ToLower(name),
		Questions: 1,
	}

	err := uow.DB().
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "name_key"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"questions": gorm.Expr("tags.questions + ?", 1),
				}),
			},
			clause.Returning{},
		).
		Create(&tag).Error
	if err != nil {
		return models.Tag{}, internalErr("upserting tag", err)
	}

	return tag, nil
}

// dedupeTagNames collapses names differing only in case, keeping the
// first-seen casing, so one request cannot attach the same tag twice.
func dedupeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// syncTagsForCreate attaches names to a freshly created question: one
// upsert-and-increment plus one relation row per tag.
func (e *Engine) syncTagsForCreate(uow *UnitOfWork, question *models.Question, names []string) error {
	for _, name := range dedupeTagNames(names) {
		tag, err := e.upsertTag(uow, name)
		if err != nil {
			return err
		}

		rel := models.TagQuestion{TagID: tag.ID, QuestionID: question.ID}
		if err := uow.DB().Create(&rel).Error; err != nil {
			return internalErr("attaching tag", err)
		}

		question.Tags = append(question.Tags, tag)
	}
	return nil
}

// syncTagsForEdit diffs newNames against the question's currently attached
// tags (case-insensitive exact match), attaching the missing ones and
// detaching the dropped ones with matching counter updates. question.Tags
// must be loaded before calling.
func (e *Engine) syncTagsForEdit(uow *UnitOfWork, question *models.Question, newNames []string) error {
	newNames = dedupeTagNames(newNames)

	var toAdd []string
	for _, name := range newNames {
		attached := false
		for _, tag := range question.Tags {
			if strings.EqualFold(tag.Name, name) {
				attached = true
				break
			}
		}
		if !attached {
			toAdd = append(toAdd, name)
		}
	}

	var toRemove []string
	kept := question.Tags[:0]
	for _, tag := range question.Tags {
		wanted := false
		for _, name := range newNames {
			if strings.EqualFold(tag.Name, name) {
				wanted = true
				break
			}
		}
		if wanted {
			kept = append(kept, tag)
		} else {
			toRemove = append(toRemove, tag.ID)
		}
	}
	question.Tags = kept

	for _, name := range toAdd {
		tag, err := e.upsertTag(uow, name)
		if err != nil {
			return err
		}

		rel := models.TagQuestion{TagID: tag.ID, QuestionID: question.ID}
		if err := uow.DB().Create(&rel).Error; err != nil {
			return internalErr("attaching tag", err)
		}

		question.Tags = append(question.Tags, tag)
	}

	if len(toRemove) > 0 {
		if err := e.decrementTagCounts(uow, toRemove); err != nil {
			return err
		}

		err := uow.DB().
			Where("tag_id IN ? AND question_id = ?", toRemove, question.ID).
			Delete(&models.TagQuestion{}).Error
		if err != nil {
			return internalErr("detaching tags", err)
		}
	}

	return nil
}

// decrementTagCounts drops each tag's question count by one. A count that
// would go negative means the counter and the relation rows have already
// diverged, which fails the whole transaction.
func (e *Engine) decrementTagCounts(uow *UnitOfWork, tagIDs []string) error {
	res := uow.DB().
		Model(&models.Tag{}).
		Where("id IN ? AND questions > 0", tagIDs).
		UpdateColumn("questions", gorm.Expr("questions - ?", 1))
	if res.Error != nil {
		return internalErr("decrementing tag counts", res.Error)
	}
	if res.RowsAffected != int64(len(tagIDs)) {
		return conflictErr("tag question count would go negative (%d of %d tags updated)",
			res.RowsAffected, len(tagIDs))
	}
	return nil
}
