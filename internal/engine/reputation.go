package engine

import "github.com/devflowhq/backend/internal/models"

// reputationTableVersion tracks revisions of the point table so historical
// scores can be attributed to the table that produced them.
const reputationTableVersion = 1

// reputationDelta is the pair of point adjustments one interaction earns:
// one for the user performing the action, one for the content's author.
type reputationDelta struct {
	Performer int
	Author    int
}

// The fixed point table. Actions absent from the table (view, bookmark)
// carry no points.
var reputationTable = map[models.InteractionAction]map[models.TargetType]reputationDelta{
	models.ActionUpvote: {
		models.TargetQuestion: {Performer: 2, Author: 10},
		models.TargetAnswer:   {Performer: 2, Author: 10},
	},
	models.ActionDownvote: {
		models.TargetQuestion: {Performer: -1, Author: -2},
		models.TargetAnswer:   {Performer: -1, Author: -2},
	},
	models.ActionPost: {
		models.TargetQuestion: {Author: 5},
		models.TargetAnswer:   {Author: 10},
	},
	models.ActionDelete: {
		models.TargetQuestion: {Author: -5},
		models.TargetAnswer:   {Author: -10},
	},
}

func reputationFor(action models.InteractionAction, target models.TargetType) reputationDelta {
	return reputationTable[action][target]
}
