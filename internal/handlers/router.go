package handlers

import (
	"github.com/gin-gonic/gin"
)

// RouterConfig collects everything the HTTP surface needs. The limiter
// middlewares are optional so tests can mount routes without them.
type RouterConfig struct {
	Auth        *AuthHandler
	Tasks       *TaskHandler
	AuthGate    gin.HandlerFunc
	APILimiter  gin.HandlerFunc
	AuthLimiter gin.HandlerFunc
}

func RegisterRoutes(r *gin.Engine, cfg RouterConfig) {
	api := r.Group("/api")
	if cfg.APILimiter != nil {
		api.Use(cfg.APILimiter)
	}

	auth := api.Group("/auth")
	if cfg.AuthLimiter != nil {
		auth.Use(cfg.AuthLimiter)
	}
	auth.POST("/register", cfg.Auth.Register)
	auth.POST("/login", cfg.Auth.Login)

	tasks := api.Group("/tasks")
	tasks.Use(cfg.AuthGate)
	tasks.GET("", cfg.Tasks.GetTasks)
	tasks.POST("", cfg.Tasks.CreateTask)
	tasks.GET("/stats", cfg.Tasks.GetTaskStats)
	tasks.POST("/reorder", cfg.Tasks.ReorderTasks)
	tasks.GET("/:id", cfg.Tasks.GetTaskByID)
	tasks.PUT("/:id", cfg.Tasks.UpdateTask)
	tasks.DELETE("/:id", cfg.Tasks.DeleteTask)
}
