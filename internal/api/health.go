package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
)

// HealthCheckResponse is the /health payload.
type HealthCheckResponse struct {
	Status        HealthStatus      `json:"status"`
	Timestamp     string            `json:"timestamp"`
	EngineVersion string            `json:"engine_version"`
	GitCommit     string            `json:"git_commit,omitempty"`
	BuildTime     string            `json:"build_time,omitempty"`
	Uptime        string            `json:"uptime"`
	Checks        map[string]string `json:"checks"`
	System        SystemInfo        `json:"system"`
	RequestID     string            `json:"request_id,omitempty"`
}

// SystemInfo contains system information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	MemoryAlloc   uint64 `json:"memory_alloc_bytes"`
}

func systemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		MemoryAlloc:   m.Alloc,
	}
}

// handleHealthCheck reports which optional backends are wired. A missing
// session store degrades the service since session routes return 503.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"database":    "disabled",
		"kafka":       "disabled",
		"leaderboard": "enabled",
	}
	status := HealthStatusHealthy
	if s.db != nil {
		checks["database"] = "enabled"
	} else {
		status = HealthStatusDegraded
	}
	if s.kafka != nil {
		checks["kafka"] = "enabled"
	}

	info := GetVersionInfo()
	s.writeJSON(w, http.StatusOK, HealthCheckResponse{
		Status:        status,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EngineVersion: info.EngineVersion,
		GitCommit:     info.GitCommit,
		BuildTime:     info.BuildTime,
		Uptime:        time.Since(s.startTime).Round(time.Second).String(),
		Checks:        checks,
		System:        systemInfo(),
		RequestID:     middleware.GetReqID(r.Context()),
	})
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
