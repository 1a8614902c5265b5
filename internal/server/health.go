package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// HealthStatus represents the overall health of the system
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentStatus represents the health of an individual component
type ComponentStatus string

const (
	ComponentStatusUp   ComponentStatus = "up"
	ComponentStatusDown ComponentStatus = "down"
)

// Health represents the complete health check response
type Health struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth is the state of one catalog file.
type ComponentHealth struct {
	Status  ComponentStatus `json:"status"`
	Message string          `json:"message,omitempty"`
	Details *FileDetails    `json:"details,omitempty"`
}

// FileDetails describes a catalog file found on disk.
type FileDetails struct {
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
}

// HandleHealth reports the state of every catalog file.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.checkHealth()

	statusCode := http.StatusOK
	if health.Status == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, health)
}

// HandleReady answers 200 once every catalog file can be served.
func (s *Server) HandleReady(w http.ResponseWriter, r *http.Request) {
	for _, e := range s.catalog.Entries() {
		if c := checkFile(e.Path); c.Status != ComponentStatusUp {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "not_ready",
				"message": e.Key + ": " + c.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// HandleLive provides a liveness probe (is the process running?)
func (s *Server) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) checkHealth() Health {
	health := Health{
		Status:     HealthStatusHealthy,
		Timestamp:  time.Now(),
		Version:    s.build.Version,
		Components: make(map[string]ComponentHealth, s.catalog.Len()),
	}

	for _, e := range s.catalog.Entries() {
		c := checkFile(e.Path)
		if c.Status == ComponentStatusDown {
			health.Status = HealthStatusUnhealthy
		}
		health.Components[e.Key] = c
	}

	return health
}

func checkFile(path string) ComponentHealth {
	f, err := os.Open(path)
	if err != nil {
		return ComponentHealth{Status: ComponentStatusDown, Message: err.Error()}
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return ComponentHealth{Status: ComponentStatusDown, Message: err.Error()}
	}
	if !info.Mode().IsRegular() {
		return ComponentHealth{
			Status:  ComponentStatusDown,
			Message: fmt.Sprintf("%s is not a regular file", path),
		}
	}

	return ComponentHealth{
		Status:  ComponentStatusUp,
		Message: "readable",
		Details: &FileDetails{
			SizeBytes:    info.Size(),
			LastModified: info.ModTime().UTC(),
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
