package api

import "github.com/inkwellapp/inkwell-server/internal/service"

// Services groups the business services the API handlers call.
type Services struct {
	Workspace *service.WorkspaceService
}
