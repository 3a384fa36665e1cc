package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/dcplaces/backend/internal/config"
	"github.com/emilythestrangee/dcplaces/backend/internal/database"
	"github.com/emilythestrangee/dcplaces/backend/internal/handlers"
	"github.com/emilythestrangee/dcplaces/backend/internal/logs"
	"github.com/emilythestrangee/dcplaces/backend/internal/middleware"
)

type Server struct {
	db        database.Service
	handler   *handlers.Handler
	jwtSecret string
}

func New(db database.Service, handler *handlers.Handler, jwtSecret string) *Server {
	return &Server{db: db, handler: handler, jwtSecret: jwtSecret}
}

// NewServer creates and configures a new server
func NewServer(cfg *config.Config, db database.Service, handler *handlers.Handler) *http.Server {
	gin.SetMode(cfg.GinMode)
	s := New(db, handler, cfg.Supabase.JWTSecret)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logs.LogJSON("INFO", "Server configured", map[string]interface{}{"port": cfg.Port})
	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/auth/signup", s.handler.Auth.SignUp)
		api.POST("/auth/signin", s.handler.Auth.SignIn)
		api.POST("/auth/refresh", s.handler.Auth.Refresh)

		// Post routes (public reads)
		api.GET("/posts", s.handler.Post.GetPosts)
		api.GET("/posts/featured", s.handler.Post.GetFeatured)
		api.GET("/posts/:id", s.handler.Post.GetPost)
		api.GET("/posts/:id/comments", s.handler.Comment.GetComments)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.jwtSecret))
		{
			protected.POST("/auth/signout", s.handler.Auth.SignOut)
			protected.GET("/auth/user", s.handler.Auth.GetUser)

			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.PUT("/posts/:id", s.handler.Post.UpdatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)
			protected.POST("/posts/:id/upvote", s.handler.Post.UpvotePost)

			protected.POST("/posts/:id/comments", s.handler.Comment.CreateComment)
			protected.PUT("/posts/:id/comments/:commentId", s.handler.Comment.UpdateComment)
			protected.DELETE("/posts/:id/comments/:commentId", s.handler.Comment.DeleteComment)

			protected.POST("/uploads", s.handler.Upload.UploadImage)
		}
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	stats := s.db.Health(c.Request.Context())
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	c.JSON(http.StatusOK, stats)
}
