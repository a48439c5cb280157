package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devflowhq/backend/internal/cache"
	"github.com/devflowhq/backend/internal/engine"
	"github.com/devflowhq/backend/internal/models"
)

type QuestionHandler struct {
	db          *gorm.DB
	engine      *engine.Engine
	invalidator cache.Invalidator
}

func NewQuestionHandler(db *gorm.DB, eng *engine.Engine, invalidator cache.Invalidator) *QuestionHandler {
	return &QuestionHandler{db: db, engine: eng, invalidator: invalidator}
}

func pagination(c *gin.Context) (offset, limit int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return (page - 1) * pageSize, pageSize
}

// GetQuestions returns a page of questions, filterable by newest,
// unanswered, popular, hot or recommended.
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	offset, limit := pagination(c)

	unanswered := false
	order := "created_at desc"
	switch c.Query("filter") {
	case "unanswered":
		unanswered = true
	case "popular":
		order = "upvotes desc"
	case "hot":
		order = "views desc, upvotes desc"
	case "recommended":
		h.recommendedQuestions(c, offset, limit)
		return
	}

	countQuery := h.db.Model(&models.Question{})
	listQuery := h.db.Preload("Tags").Preload("Author").Order(order).Offset(offset).Limit(limit)
	if unanswered {
		countQuery = countQuery.Where("answers = 0")
		listQuery = listQuery.Where("answers = 0")
	}

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	var questions []models.Question
	if err := listQuery.Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	// If no questions, return empty array not null
	if questions == nil {
		questions = []models.Question{}
	}

	c.JSON(http.StatusOK, gin.H{
		"questions": questions,
		"is_next":   total > int64(offset+len(questions)),
	})
}

// recommendedQuestions builds a feed from the requester's recent
// interactions: questions sharing tags with what they viewed, voted on,
// saved or posted, excluding their own and already-seen questions.
// Anonymous requesters get an empty feed.
func (h *QuestionHandler) recommendedQuestions(c *gin.Context, offset, limit int) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"questions": []models.Question{}, "is_next": false})
		return
	}

	var recentIDs []string
	err := h.db.Model(&models.Interaction{}).
		Where("user_id = ? AND target_type = ? AND action IN ?",
			userID, models.TargetQuestion,
			[]models.InteractionAction{models.ActionView, models.ActionUpvote, models.ActionBookmark, models.ActionPost}).
		Order("created_at desc").
		Limit(50).
		Pluck("target_id", &recentIDs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	seen := make(map[string]struct{}, len(recentIDs))
	seenIDs := make([]string, 0, len(recentIDs))
	for _, id := range recentIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		seenIDs = append(seenIDs, id)
	}
	if len(seenIDs) == 0 {
		c.JSON(http.StatusOK, gin.H{"questions": []models.Question{}, "is_next": false})
		return
	}

	var tagIDs []string
	err = h.db.Model(&models.TagQuestion{}).
		Where("question_id IN ?", seenIDs).
		Distinct().
		Pluck("tag_id", &tagIDs).Error
	if err != nil || len(tagIDs) == 0 {
		c.JSON(http.StatusOK, gin.H{"questions": []models.Question{}, "is_next": false})
		return
	}

	base := func() *gorm.DB {
		return h.db.Model(&models.Question{}).
			Joins("JOIN tag_questions ON tag_questions.question_id = questions.id").
			Where("tag_questions.tag_id IN ?", tagIDs).
			Where("questions.id NOT IN ?", seenIDs).
			Where("questions.author_id <> ?", userID)
	}

	var total int64
	if err := base().Distinct("questions.id").Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	var questions []models.Question
	err = base().Distinct("questions.*").Preload("Tags").Preload("Author").
		Order("questions.upvotes desc, questions.views desc").
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

// GetQuestion returns a single question by ID
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	var question models.Question
	if err := h.db.Preload("Tags").Preload("Author").First(&question, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	c.JSON(http.StatusOK, question)
}

// CreateQuestion creates a question with its tags (PROTECTED)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": "validation"})
		return
	}

	question, err := h.engine.CreateQuestion(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidator.Invalidate("/questions")

	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion edits a question's title, content and tags (PROTECTED,
// author only)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.EditQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": "validation"})
		return
	}

	questionID := c.Param("id")
	question, err := h.engine.EditQuestion(c.Request.Context(), userID, questionID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.invalidator.Invalidate("/questions/" + questionID)

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion removes a question and everything depending on it
// (PROTECTED, author only)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	questionID := c.Param("id")
	if err := h.engine.DeleteQuestion(c.Request.Context(), userID, questionID); err != nil {
		respondError(c, err)
		return
	}

	h.invalidator.Invalidate("/questions")

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

// IncrementViews bumps the view counter. Authenticated viewers also get
// a view interaction recorded for the recommendation feed.
func (h *QuestionHandler) IncrementViews(c *gin.Context) {
	userID, _ := extractUserID(c)
	views, err := h.engine.IncrementViews(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"views": views})
}

// SaveQuestion toggles the question in the requester's saved collection
// (PROTECTED)
func (h *QuestionHandler) SaveQuestion(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	saved, err := h.engine.ToggleSave(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

// SavedStatus reports whether the requester saved the question (PROTECTED)
func (h *QuestionHandler) SavedStatus(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	saved, err := h.engine.HasSaved(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": saved})
}
