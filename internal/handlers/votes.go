package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devflowhq/backend/internal/cache"
	"github.com/devflowhq/backend/internal/engine"
	"github.com/devflowhq/backend/internal/models"
)

type VoteHandler struct {
	engine      *engine.Engine
	invalidator cache.Invalidator
}

func NewVoteHandler(eng *engine.Engine, invalidator cache.Invalidator) *VoteHandler {
	return &VoteHandler{engine: eng, invalidator: invalidator}
}

// CreateVote applies an upvote or downvote to a question or answer
// (PROTECTED). Repeating the same vote removes it; the opposite vote
// switches it.
func (h *VoteHandler) CreateVote(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateVoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": "validation"})
		return
	}

	err := h.engine.CreateVote(c.Request.Context(), userID, input.TargetID, input.TargetType, input.VoteType)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidator.Invalidate("/questions/" + input.TargetID)

	c.JSON(http.StatusOK, gin.H{"message": "Vote recorded"})
}

// VoteStatus reports the requester's vote on a target (PROTECTED)
func (h *VoteHandler) VoteStatus(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	targetID := c.Query("target_id")
	targetType := models.TargetType(c.Query("target_type"))

	status, err := h.engine.HasVoted(c.Request.Context(), userID, targetID, targetType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
