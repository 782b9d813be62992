package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics aggregates request counters for the /metrics endpoint.
type Metrics struct {
	mu              sync.RWMutex
	RequestCount    int64            `json:"request_count"`
	RequestDuration time.Duration    `json:"avg_request_duration_ms"`
	ActiveRequests  int64            `json:"active_requests"`
	ErrorCount      int64            `json:"error_count"`
	StatusCodes     map[string]int64 `json:"status_codes"`
	Endpoints       map[string]int64 `json:"endpoint_calls"`
	StartTime       time.Time        `json:"start_time"`
	LastRequest     time.Time        `json:"last_request"`
	totalDuration   time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{
		StatusCodes: make(map[string]int64),
		Endpoints:   make(map[string]int64),
		StartTime:   time.Now(),
	}
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mu.Lock()
		m.ActiveRequests++
		m.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		endpoint := c.Request.Method + " " + c.FullPath()

		m.mu.Lock()
		m.RequestCount++
		m.ActiveRequests--
		m.totalDuration += duration
		m.RequestDuration = m.totalDuration / time.Duration(m.RequestCount)
		m.LastRequest = time.Now()

		if statusCode >= 400 {
			m.ErrorCount++
		}
		m.StatusCodes[http.StatusText(statusCode)]++
		m.Endpoints[endpoint]++
		m.mu.Unlock()
	}
}

func (m *Metrics) Snapshot() *Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := &Metrics{
		RequestCount:    m.RequestCount,
		RequestDuration: m.RequestDuration,
		ActiveRequests:  m.ActiveRequests,
		ErrorCount:      m.ErrorCount,
		StatusCodes:     make(map[string]int64, len(m.StatusCodes)),
		Endpoints:       make(map[string]int64, len(m.Endpoints)),
		StartTime:       m.StartTime,
		LastRequest:     m.LastRequest,
	}
	for k, v := range m.StatusCodes {
		snap.StatusCodes[k] = v
	}
	for k, v := range m.Endpoints {
		snap.Endpoints[k] = v
	}
	return snap
}

type SystemMetrics struct {
	Uptime         time.Duration `json:"uptime"`
	AllocMB        uint64        `json:"alloc_mb"`
	SysMB          uint64        `json:"sys_mb"`
	NumGC          uint32        `json:"num_gc"`
	GoroutineCount int           `json:"goroutine_count"`
	GoVersion      string        `json:"go_version"`
}

func (m *Metrics) SystemSnapshot() SystemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return SystemMetrics{
		Uptime:         time.Since(m.StartTime),
		AllocMB:        ms.Alloc / 1024 / 1024,
		SysMB:          ms.Sys / 1024 / 1024,
		NumGC:          ms.NumGC,
		GoroutineCount: runtime.NumGoroutine(),
		GoVersion:      runtime.Version(),
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"application": m.Snapshot(),
			"system":      m.SystemSnapshot(),
			"timestamp":   time.Now(),
		})
	}
}

type HealthCheckFunc func(ctx context.Context) error

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

// HealthChecker runs registered dependency probes (database, Redis) on each
// health request.
type HealthChecker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheckFunc
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make(map[string]HealthCheckFunc)}
}

func (h *HealthChecker) Register(name string, check HealthCheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

func (h *HealthChecker) Run() map[string]HealthCheck {
	h.mu.RLock()
	defer h.mu.RUnlock()

	results := make(map[string]HealthCheck, len(h.checks))
	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		status, message := "healthy", ""
		if err := check(ctx); err != nil {
			status = "unhealthy"
			message = err.Error()
		}
		cancel()

		results[name] = HealthCheck{
			Name:    name,
			Status:  status,
			Message: message,
			LastRun: time.Now(),
		}
	}
	return results
}

func (h *HealthChecker) healthy() (map[string]HealthCheck, bool) {
	checks := h.Run()
	for _, check := range checks {
		if check.Status != "healthy" {
			return checks, false
		}
	}
	return checks, true
}

func (h *HealthChecker) HealthHandler(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks, ok := h.healthy()

		status := http.StatusOK
		overall := "healthy"
		if !ok {
			status = http.StatusServiceUnavailable
			overall = "unhealthy"
		}

		c.JSON(status, gin.H{
			"status":    overall,
			"checks":    checks,
			"uptime":    time.Since(metrics.StartTime).String(),
			"timestamp": time.Now(),
		})
	}
}

func (h *HealthChecker) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := h.healthy(); !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "timestamp": time.Now()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": time.Now()})
	}
}

func (h *HealthChecker) LivenessHandler(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"uptime":    time.Since(metrics.StartTime).String(),
			"timestamp": time.Now(),
		})
	}
}
