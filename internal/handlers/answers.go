package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devflowhq/backend/internal/cache"
	"github.com/devflowhq/backend/internal/engine"
	"github.com/devflowhq/backend/internal/models"
)

type AnswerHandler struct {
	db          *gorm.DB
	engine      *engine.Engine
	invalidator cache.Invalidator
}

func NewAnswerHandler(db *gorm.DB, eng *engine.Engine, invalidator cache.Invalidator) *AnswerHandler {
	return &AnswerHandler{db: db, engine: eng, invalidator: invalidator}
}

// GetAnswers returns a page of answers for a question
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	questionID := c.Param("id")
	offset, limit := pagination(c)

	order := "created_at desc"
	switch c.Query("filter") {
	case "oldest":
		order = "created_at asc"
	case "popular":
		order = "upvotes desc"
	}

	var total int64
	if err := h.db.Model(&models.Answer{}).Where("question_id = ?", questionID).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	var answers []models.Answer
	err := h.db.Where("question_id = ?", questionID).
		Preload("Author").
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&answers).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	if answers == nil {
		answers = []models.Answer{}
	}

	c.JSON(http.StatusOK, gin.H{
		"answers": answers,
		"total":   total,
		"is_next": total > int64(offset+len(answers)),
	})
}

// CreateAnswer posts an answer on a question (PROTECTED)
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": "validation"})
		return
	}

	questionID := c.Param("id")
	answer, err := h.engine.CreateAnswer(c.Request.Context(), userID, questionID, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidator.Invalidate("/questions/" + questionID)

	c.JSON(http.StatusCreated, answer)
}

// DeleteAnswer removes an answer and its votes (PROTECTED, author only)
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.engine.DeleteAnswer(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	h.invalidator.Invalidate("/questions")

	c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
}
