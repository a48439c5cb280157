package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devflowhq/backend/internal/models"
)

type TagHandler struct {
	db *gorm.DB
}

func NewTagHandler(db *gorm.DB) *TagHandler {
	return &TagHandler{db: db}
}

// GetTags returns a page of tags, filterable by popular, name or recent
func (h *TagHandler) GetTags(c *gin.Context) {
	offset, limit := pagination(c)

	order := "questions desc"
	switch c.Query("filter") {
	case "name":
		order = "name asc"
	case "recent":
		order = "created_at desc"
	}

	var tags []models.Tag
	if err := h.db.Order(order).Offset(offset).Limit(limit).Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}

	if tags == nil {
		tags = []models.Tag{}
	}

	c.JSON(http.StatusOK, tags)
}

// GetTag returns a tag with the questions attached to it
func (h *TagHandler) GetTag(c *gin.Context) {
	tagID := c.Param("id")

	var tag models.Tag
	if err := h.db.First(&tag, "id = ?", tagID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	offset, limit := pagination(c)

	var questions []models.Question
	err := h.db.
		Joins("JOIN tag_questions ON tag_questions.question_id = questions.id").
		Where("tag_questions.tag_id = ?", tagID).
		Preload("Tags").
		Preload("Author").
		Order("questions.created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&questions).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tag questions"})
		return
	}

	if questions == nil {
		questions = []models.Question{}
	}

	c.JSON(http.StatusOK, gin.H{
		"tag":       tag,
		"questions": questions,
	})
}
