package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devflowhq/backend/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetUsers returns a page of users ordered by reputation
func (h *UserHandler) GetUsers(c *gin.Context) {
	offset, limit := pagination(c)

	var users []models.User
	if err := h.db.Order("reputation desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, users)
}

// GetUserProfile returns a user with their contribution counts
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var questionCount, answerCount int64
	h.db.Model(&models.Question{}).Where("author_id = ?", userID).Count(&questionCount)
	h.db.Model(&models.Answer{}).Where("author_id = ?", userID).Count(&answerCount)

	c.JSON(http.StatusOK, gin.H{
		"user":      user,
		"questions": questionCount,
		"answers":   answerCount,
	})
}

// GetUserQuestions returns a page of the user's questions, highest voted
// first
func (h *UserHandler) GetUserQuestions(c *gin.Context) {
	offset, limit := pagination(c)
	userID := c.Param("id")

	var total int64
	if err := h.db.Model(&models.Question{}).Where("author_id = ?", userID).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	var questions []models.Question
	err := h.db.Preload("Tags").Preload("Author").
		Where("author_id = ?", userID).
		Order("upvotes desc, views desc").
		Offset(offset).Limit(limit).
		Find(&questions).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}

	c.JSON(http.StatusOK, gin.H{
		"questions": questions,
		"is_next":   total > int64(offset+len(questions)),
	})
}

// GetUserAnswers returns a page of the user's answers, highest voted first
func (h *UserHandler) GetUserAnswers(c *gin.Context) {
	offset, limit := pagination(c)
	userID := c.Param("id")

	var total int64
	if err := h.db.Model(&models.Answer{}).Where("author_id = ?", userID).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	var answers []models.Answer
	err := h.db.Preload("Author").
		Where("author_id = ?", userID).
		Order("upvotes desc").
		Offset(offset).Limit(limit).
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
		"is_next": total > int64(offset+len(answers)),
	})
}

type userTagCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// GetUserTopTags returns the tags the user asked about most
func (h *UserHandler) GetUserTopTags(c *gin.Context) {
	userID := c.Param("id")

	var tags []userTagCount
	err := h.db.Model(&models.Tag{}).
		Select("tags.id, tags.name, count(tag_questions.question_id) as count").
		Joins("JOIN tag_questions ON tag_questions.tag_id = tags.id").
		Joins("JOIN questions ON questions.id = tag_questions.question_id").
		Where("questions.author_id = ?", userID).
		Group("tags.id, tags.name").
		Order("count desc, tags.name asc").
		Limit(10).
		Scan(&tags).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}
	if tags == nil {
		tags = []userTagCount{}
	}

	c.JSON(http.StatusOK, tags)
}
