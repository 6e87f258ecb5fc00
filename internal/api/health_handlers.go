package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Component statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
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

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
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

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database":  s.checkDatabase(ctx),
		"workspace": s.checkWorkspace(ctx),
		"sse":       s.checkSSEManager(),
	}

	overall := statusHealthy
	for _, c := range components {
		switch c.Status {
		case statusUnhealthy:
			overall = statusUnhealthy
		case statusDegraded:
			if overall == statusHealthy {
				overall = statusDegraded
			}
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkDatabase verifies the handle database is readable.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	// Session-only servers have no database.
	if s.store == nil {
		return ComponentHealth{
			Status:  statusDegraded,
			Message: "database not configured",
		}
	}

	start := time.Now()
	_, err := s.store.HasWorkspaceRoot(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "database read failed",
		}
	}

	return ComponentHealth{
		Status:  statusHealthy,
		Latency: latency.String(),
	}
}

// checkWorkspace reports whether a workspace is selected and watched.
// Having no workspace is a normal state, not a failure.
func (s *Server) checkWorkspace(ctx context.Context) ComponentHealth {
	if s.services == nil || s.services.Workspace == nil {
		return ComponentHealth{
			Status:  statusDegraded,
			Message: "workspace service not configured",
		}
	}

	info, err := s.services.Workspace.CurrentWorkspace(ctx)
	if err != nil {
		return ComponentHealth{
			Status:  statusHealthy,
			Message: "no workspace selected",
		}
	}
	if !info.Watching {
		return ComponentHealth{
			Status:  statusDegraded,
			Message: "workspace selected but not watched",
		}
	}

	return ComponentHealth{
		Status:  statusHealthy,
		Message: "watching " + info.ID,
	}
}

// checkSSEManager verifies the SSE event system is running.
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
		return strconv.Itoa(count) + " connected clients"
	}
}
