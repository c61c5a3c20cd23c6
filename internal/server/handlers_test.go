package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
	"tasktracker/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.User{}, &model.Category{}, &model.Task{}, &model.Session{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	auth := service.NewAuthService(userRepo, sessionRepo, service.NewMailService("", 0, "", "", ""), []byte("test-secret"), time.Hour)
	tasks := service.NewTaskService(taskRepo, categoryRepo)
	categories := service.NewCategoryService(categoryRepo)
	stats := service.NewStatsService(taskRepo, categoryRepo)

	return New(auth, tasks, categories, stats).Router(RateLimit{})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeObject(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func registerUser(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", username, w.Code, w.Body.String())
	}
	token, _ := decodeObject(t, w)["token"].(string)
	if token == "" {
		t.Fatalf("register %s: no token in response", username)
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := decodeObject(t, w)["status"]; got != "available" {
		t.Errorf("status field = %v, want available", got)
	}
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice")

	t.Run("duplicate username", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/register", "", map[string]string{
			"username": "alice", "email": "alice2@example.com", "password": "correct horse",
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("login", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{
			"username": "alice", "password": "correct horse",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if token, _ := decodeObject(t, w)["token"].(string); token == "" {
			t.Error("no token in login response")
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{
			"username": "alice", "password": "wrong",
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("logout kills the session", func(t *testing.T) {
		token := registerUser(t, router, "bob")
		if w := doJSON(t, router, http.MethodPost, "/api/logout", token, nil); w.Code != http.StatusOK {
			t.Fatalf("logout status = %d", w.Code)
		}
		if w := doJSON(t, router, http.MethodGet, "/api/tasks", token, nil); w.Code != http.StatusUnauthorized {
			t.Errorf("status after logout = %d, want 401", w.Code)
		}
	})
}

func TestEndpointsRequireAuth(t *testing.T) {
	router := newTestRouter(t)
	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks/1"},
		{http.MethodGet, "/api/categories"},
		{http.MethodGet, "/api/stats"},
		{http.MethodPost, "/api/logout"},
	}
	for _, p := range paths {
		w := doJSON(t, router, p.method, p.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", p.method, p.path, w.Code)
		}
	}
}

func TestTaskLifecycle(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/tasks", token, map[string]any{
		"title":       "Write report",
		"description": "quarterly numbers",
		"priority":    "high",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", w.Code, w.Body.String())
	}
	created := decodeObject(t, w)
	if created["status"] != "pending" {
		t.Errorf("status defaulted to %v, want pending", created["status"])
	}
	taskID := int(created["id"].(float64))

	t.Run("get", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/tasks/%d", taskID), token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if got := decodeObject(t, w)["title"]; got != "Write report" {
			t.Errorf("title = %v", got)
		}
	})

	t.Run("update and filter", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/tasks/%d", taskID), token, map[string]any{
			"status": "completed",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("update: status = %d, body %s", w.Code, w.Body.String())
		}

		completed := decodeList(t, doJSON(t, router, http.MethodGet, "/api/tasks?status=completed", token, nil))
		if len(completed) != 1 {
			t.Fatalf("completed list has %d tasks, want 1", len(completed))
		}
		pending := decodeList(t, doJSON(t, router, http.MethodGet, "/api/tasks?status=pending", token, nil))
		if len(pending) != 0 {
			t.Errorf("pending list has %d tasks, want 0", len(pending))
		}
	})

	t.Run("validation error", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/tasks", token, map[string]any{
			"title": "bad date", "due_date": "next tuesday",
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("delete twice", func(t *testing.T) {
		if w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", taskID), token, nil); w.Code != http.StatusOK {
			t.Fatalf("first delete: status = %d", w.Code)
		}
		if w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", taskID), token, nil); w.Code != http.StatusNotFound {
			t.Errorf("second delete: status = %d, want 404", w.Code)
		}
	})

	t.Run("non-numeric id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/tasks/abc", token, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestTaskIsolationOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	aliceToken := registerUser(t, router, "alice")
	bobToken := registerUser(t, router, "bob")

	w := doJSON(t, router, http.MethodPost, "/api/tasks", aliceToken, map[string]any{"title": "secret"})
	if w.Code != http.StatusCreated {
		t.Fatal(w.Body.String())
	}
	taskID := int(decodeObject(t, w)["id"].(float64))

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, fmt.Sprintf("/api/tasks/%d", taskID)},
		{http.MethodPut, fmt.Sprintf("/api/tasks/%d", taskID)},
		{http.MethodDelete, fmt.Sprintf("/api/tasks/%d", taskID)},
	} {
		var body any
		if req.method == http.MethodPut {
			body = map[string]any{"title": "stolen"}
		}
		w := doJSON(t, router, req.method, req.path, bobToken, body)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s as bob: status = %d, want 404", req.method, w.Code)
		}
	}
}

func TestCategoryDetachOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "alice")

	categories := decodeList(t, doJSON(t, router, http.MethodGet, "/api/categories", token, nil))
	if len(categories) != 4 {
		t.Fatalf("fresh account has %d categories, want 4", len(categories))
	}
	var workID int
	for _, category := range categories {
		if category["name"] == "Work" {
			workID = int(category["id"].(float64))
		}
	}
	if workID == 0 {
		t.Fatalf("no Work category in %v", categories)
	}

	w := doJSON(t, router, http.MethodPost, "/api/tasks", token, map[string]any{
		"title": "filed under work", "category_id": workID,
	})
	if w.Code != http.StatusCreated {
		t.Fatal(w.Body.String())
	}
	taskID := int(decodeObject(t, w)["id"].(float64))

	if w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/categories/%d", workID), token, nil); w.Code != http.StatusOK {
		t.Fatalf("delete category: status = %d", w.Code)
	}

	task := decodeObject(t, doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/tasks/%d", taskID), token, nil))
	if task["category_id"] != nil {
		t.Errorf("task category_id = %v, want null", task["category_id"])
	}
	remaining := decodeList(t, doJSON(t, router, http.MethodGet, "/api/categories", token, nil))
	if len(remaining) != 3 {
		t.Errorf("%d categories remain, want 3", len(remaining))
	}
}

func TestStatsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "alice")

	pastDue := time.Now().UTC().AddDate(0, 0, -3).Format("2006-01-02")
	for _, body := range []map[string]any{
		{"title": "done one", "status": "completed"},
		{"title": "done two", "status": "completed"},
		{"title": "waiting", "status": "pending"},
		{"title": "working", "status": "in-progress"},
		{"title": "late and urgent", "status": "pending", "priority": "high", "due_date": pastDue},
	} {
		if w := doJSON(t, router, http.MethodPost, "/api/tasks", token, body); w.Code != http.StatusCreated {
			t.Fatalf("seed task: %s", w.Body.String())
		}
	}

	stats := decodeObject(t, doJSON(t, router, http.MethodGet, "/api/stats", token, nil))
	want := map[string]float64{
		"total_tasks":     5,
		"completed":       2,
		"pending":         2,
		"in_progress":     1,
		"overdue":         1,
		"high_priority":   1,
		"completion_rate": 40.0,
	}
	for field, value := range want {
		if got, _ := stats[field].(float64); got != value {
			t.Errorf("%s = %v, want %v", field, stats[field], value)
		}
	}
}
