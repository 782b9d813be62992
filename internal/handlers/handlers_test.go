package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskmate/backend/internal/handlers"
	"taskmate/backend/internal/middleware"
	"taskmate/backend/internal/models"
	"taskmate/backend/internal/ordering"
	"taskmate/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupAPI wires the real handlers, services and auth gate over an in-memory
// database, with rate limiters and the job queue left out.
func setupAPI(t *testing.T, policy ordering.Policy) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}))

	authSvc := services.NewAuthService(bcrypt.MinCost)
	tokenSvc := services.NewTokenService("test-secret", time.Hour)
	taskSvc := services.NewTaskService(policy)

	router := gin.New()
	handlers.RegisterRoutes(router, handlers.RouterConfig{
		Auth:     handlers.NewAuthHandler(db, authSvc, tokenSvc),
		Tasks:    handlers.NewTaskHandler(db, taskSvc, nil),
		AuthGate: middleware.AuthMiddleware(db, tokenSvc),
	})

	return router, db
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()

	w := doJSON(router, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"password": "hunter2secret",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp handlers.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func createTask(t *testing.T, router *gin.Engine, token, title string) models.Task {
	t.Helper()

	w := doJSON(router, http.MethodPost, "/api/tasks", token, gin.H{"title": title})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var task models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	return task
}
