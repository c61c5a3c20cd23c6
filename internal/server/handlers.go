package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tasktracker/internal/model"
	"tasktracker/internal/service"
)

// abortError maps the service error taxonomy onto HTTP status codes. Anything
// unrecognized is logged and reported as a 500 without detail.
func abortError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr),
		errors.Is(err, service.ErrDuplicateUsername),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrCategoryNotFound):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// parseID reads the :id route param. A non-numeric id gets the same answer as
// a missing record.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		abortError(c, service.ErrNotFound)
		return 0, false
	}
	return uint(id), true
}

type taskResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     *string   `json:"due_date"`
	CategoryID  *uint     `json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTaskResponse(task model.Task) taskResponse {
	resp := taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		CategoryID:  task.CategoryID,
		CreatedAt:   task.CreatedAt.UTC(),
		UpdatedAt:   task.UpdatedAt.UTC(),
	}
	if task.DueDate != nil {
		d := task.DueDate.Format("2006-01-02")
		resp.DueDate = &d
	}
	return resp
}

type categoryResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func toCategoryResponse(category model.Category) categoryResponse {
	return categoryResponse{ID: category.ID, Name: category.Name, Color: category.Color}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "available", "version": version})
}

func (s *Server) handleRegister(c *gin.Context) {
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	user, token, err := s.auth.Register(c.Request.Context(), service.RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Registration successful",
		"username": user.Username,
		"token":    token,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	user, token, err := s.auth.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful",
		"username": user.Username,
		"token":    token,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.auth.Logout(c.Request.Context(), currentToken(c)); err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (s *Server) handleListTasks(c *gin.Context) {
	filter := service.TaskFilter{
		Status:   model.Status(c.Query("status")),
		Priority: model.Priority(c.Query("priority")),
		Search:   c.Query("search"),
		Overdue:  c.Query("overdue") == "true",
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			abortError(c, &service.ValidationError{Fields: map[string]string{"category_id": "must be an integer"}})
			return
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}

	tasks, err := s.tasks.List(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		abortError(c, err)
		return
	}
	out := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskResponse(task))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
		Priority    string `json:"priority"`
		DueDate     string `json:"due_date"`
		CategoryID  *uint  `json:"category_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	task, err := s.tasks.Create(c.Request.Context(), currentUser(c), service.TaskInput{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		CategoryID:  input.CategoryID,
	})
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTaskResponse(*task))
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	task, err := s.tasks.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*task))
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		Priority    *string `json:"priority"`
		DueDate     *string `json:"due_date"`
		CategoryID  *uint   `json:"category_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	task, err := s.tasks.Update(c.Request.Context(), currentUser(c), id, service.TaskUpdate{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		CategoryID:  input.CategoryID,
	})
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*task))
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.tasks.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := s.categories.List(c.Request.Context(), currentUser(c))
	if err != nil {
		abortError(c, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, toCategoryResponse(category))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var input struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	category, err := s.categories.Create(c.Request.Context(), currentUser(c), input.Name, input.Color)
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategoryResponse(*category))
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.categories.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func (s *Server) handleStats(c *gin.Context) {
	summary, err := s.stats.Dashboard(c.Request.Context(), currentUser(c))
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
