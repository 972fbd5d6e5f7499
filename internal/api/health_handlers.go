package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// Component statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"watcher": s.checkWatcher(),
		"tracker": s.checkTracker(),
		"sse":     s.checkSSEManager(),
	}

	overall := statusHealthy
	for _, c := range components {
		switch {
		case c.Status == statusUnhealthy:
			overall = statusUnhealthy
		case c.Status == statusDegraded && overall == statusHealthy:
			overall = statusDegraded
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkWatcher reports degraded when the watch could not be established;
// the rest of the process keeps serving.
func (s *Server) checkWatcher() ComponentHealth {
	if s.watch == nil || !s.watch.Active() {
		msg := "not watching"
		if s.watch != nil && s.watch.Err() != nil {
			msg = s.watch.Err().Error()
		}
		return ComponentHealth{Status: statusDegraded, Message: msg}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Message: fmt.Sprintf("watching %s (%s)", s.watch.Root(), s.watch.Backend()),
	}
}

func (s *Server) checkTracker() ComponentHealth {
	if s.monitor == nil {
		return ComponentHealth{Status: statusUnhealthy, Message: "tracker not configured"}
	}
	snap := s.monitor.Snapshot()
	if snap.Pending > 0 {
		return ComponentHealth{
			Status:  statusHealthy,
			Message: fmt.Sprintf("%d notifications pending", snap.Pending),
		}
	}
	return ComponentHealth{Status: statusHealthy}
}

func (s *Server) checkSSEManager() ComponentHealth {
	if s.sseManager == nil {
		return ComponentHealth{
			Status:  statusDegraded,
			Message: "SSE manager not configured",
		}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Message: formatSSEStatus(s.sseManager.ClientCount()),
	}
}

func formatSSEStatus(count int) string {
	switch count {
	case 0:
		return "no connected clients"
	case 1:
		return "1 connected client"
	default:
		return fmt.Sprintf("%d connected clients", count)
	}
}
