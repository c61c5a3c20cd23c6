package server

import (
	"github.com/gin-gonic/gin"

	"tasktracker/internal/service"
)

const version = "1.0.0"

// Server wires the HTTP transport to the services. It holds no state of its
// own; each request is handled independently.
type Server struct {
	auth       *service.AuthService
	tasks      *service.TaskService
	categories *service.CategoryService
	stats      *service.StatsService
}

func New(auth *service.AuthService, tasks *service.TaskService, categories *service.CategoryService, stats *service.StatsService) *Server {
	return &Server{
		auth:       auth,
		tasks:      tasks,
		categories: categories,
		stats:      stats,
	}
}

// Router builds the gin engine. Rate limiting, when enabled, applies to every
// route; everything in the authed group requires a valid session.
func (s *Server) Router(limit RateLimit) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	if limit.Enabled() {
		router.Use(rateLimit(limit))
	}

	api := router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)

	authed := api.Group("")
	authed.Use(s.requireUser())
	authed.POST("/logout", s.handleLogout)

	authed.GET("/tasks", s.handleListTasks)
	authed.POST("/tasks", s.handleCreateTask)
	authed.GET("/tasks/:id", s.handleGetTask)
	authed.PUT("/tasks/:id", s.handleUpdateTask)
	authed.DELETE("/tasks/:id", s.handleDeleteTask)

	authed.GET("/categories", s.handleListCategories)
	authed.POST("/categories", s.handleCreateCategory)
	authed.DELETE("/categories/:id", s.handleDeleteCategory)

	authed.GET("/stats", s.handleStats)
	return router
}
