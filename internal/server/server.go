package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/devflowhq/backend/internal/cache"
	"github.com/devflowhq/backend/internal/config"
	"github.com/devflowhq/backend/internal/database"
	"github.com/devflowhq/backend/internal/engine"
	"github.com/devflowhq/backend/internal/handlers"
	"github.com/devflowhq/backend/internal/middleware"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
}

// NewServer creates and configures a new server
func NewServer(cfg *config.Config) *http.Server {
	db := database.New()
	gormDB := db.GetDB()

	eng := engine.New(gormDB, log.Default())
	invalidator := cache.NewLogInvalidator(log.Default())

	newServer := &Server{
		db:      db,
		handler: handlers.NewHandler(gormDB, eng, invalidator),
	}

	router := newServer.RegisterRoutes()

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", cfg.Port)

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Question routes (public reads; optional auth feeds the
		// recommendation filter and view interactions)
		api.GET("/questions", middleware.OptionalAuth(), s.handler.Question.GetQuestions)
		api.GET("/questions/:id", s.handler.Question.GetQuestion)
		api.POST("/questions/:id/views", middleware.OptionalAuth(), s.handler.Question.IncrementViews)

		// Answer routes (public reads)
		api.GET("/questions/:id/answers", s.handler.Answer.GetAnswers)

		// Tag routes (public reads)
		api.GET("/tags", s.handler.Tag.GetTags)
		api.GET("/tags/:id", s.handler.Tag.GetTag)

		// User routes (public reads)
		api.GET("/users", s.handler.User.GetUsers)
		api.GET("/users/:id", s.handler.User.GetUserProfile)
		api.GET("/users/:id/questions", s.handler.User.GetUserQuestions)
		api.GET("/users/:id/answers", s.handler.User.GetUserAnswers)
		api.GET("/users/:id/tags", s.handler.User.GetUserTopTags)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			// Question protected routes
			protected.POST("/questions", s.handler.Question.CreateQuestion)
			protected.PUT("/questions/:id", s.handler.Question.UpdateQuestion)
			protected.DELETE("/questions/:id", s.handler.Question.DeleteQuestion)
			protected.POST("/questions/:id/save", s.handler.Question.SaveQuestion)
			protected.GET("/questions/:id/saved", s.handler.Question.SavedStatus)

			// Answer protected routes
			protected.POST("/questions/:id/answers", s.handler.Answer.CreateAnswer)
			protected.DELETE("/answers/:id", s.handler.Answer.DeleteAnswer)

			// Vote protected routes
			protected.POST("/votes", s.handler.Vote.CreateVote)
			protected.GET("/votes/status", s.handler.Vote.VoteStatus)
		}
	}

	return r
}
