package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/service"
	"github.com/inkwellapp/inkwell-server/internal/sse"
)

func (s *Server) registerWorkspaceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getWorkspace",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/workspace",
		Summary:     "Get workspace",
		Description: "Returns the selected workspace and whether it is being watched",
		Tags:        []string{"Workspace"},
	}, s.handleGetWorkspace)

	huma.Register(s.api, huma.Operation{
		OperationID: "selectWorkspace",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/workspace",
		Summary:     "Select workspace",
		Description: "Selects a directory as the workspace, replacing any previous one, and starts watching it",
		Tags:        []string{"Workspace"},
	}, s.handleSelectWorkspace)

	huma.Register(s.api, huma.Operation{
		OperationID:   "clearWorkspace",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/workspace",
		Summary:       "Clear workspace",
		Description:   "Stops watching and forgets the stored workspace",
		Tags:          []string{"Workspace"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleClearWorkspace)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWorkspaceTree",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/workspace/tree",
		Summary:     "Get folder structure",
		Description: "Returns the workspace tree with folders before files",
		Tags:        []string{"Workspace"},
	}, s.handleGetTree)

	huma.Register(s.api, huma.Operation{
		OperationID: "readFile",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/workspace/files",
		Summary:     "Read file",
		Description: "Reads a workspace file as a document. Word files are converted to Markdown.",
		Tags:        []string{"Files"},
	}, s.handleReadFile)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveFile",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/workspace/files",
		Summary:     "Save file",
		Description: "Writes a document to its path, creating missing folders",
		Tags:        []string{"Files"},
	}, s.handleSaveFile)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createFile",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/workspace/files",
		Summary:       "Create file",
		Description:   "Creates a new file. Existing files are never overwritten.",
		Tags:          []string{"Files"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateFile)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createFolder",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/workspace/folders",
		Summary:       "Create folder",
		Description:   "Creates a folder. Creating an existing folder succeeds.",
		Tags:          []string{"Files"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateFolder)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteItem",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/workspace/items",
		Summary:       "Delete file or folder",
		Description:   "Deletes a file, or a folder with everything in it",
		Tags:          []string{"Files"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "forceCheck",
		Method:      http.MethodPost,
		Path:        forceCheckPath,
		Summary:     "Check for changes now",
		Description: "Runs a change check immediately and returns what it found. Rate limited per client.",
		Tags:        []string{"Watch"},
		Middlewares: huma.Middlewares{s.limitForceChecks},
	}, s.handleForceCheck)
}

// === DTOs ===

// WorkspaceOutput wraps the workspace descriptor.
type WorkspaceOutput struct {
	Body *service.WorkspaceInfo
}

// SelectWorkspaceInput contains the directory to select.
type SelectWorkspaceInput struct {
	Body struct {
		Path string `json:"path" minLength:"1" doc:"Absolute path of the workspace directory"`
	}
}

// TreeOutput contains the workspace tree.
type TreeOutput struct {
	Body []*domain.TreeNode
}

// PathInput identifies a workspace item by its relative path.
type PathInput struct {
	Path string `query:"path" required:"true" doc:"Path relative to the workspace root"`
}

// DocumentOutput contains a single document.
type DocumentOutput struct {
	Body *domain.Document
}

// SaveFileInput contains the document to save.
type SaveFileInput struct {
	Body struct {
		FilePath string `json:"file_path" doc:"Path relative to the workspace root"`
		Content  string `json:"content" doc:"Document content as Markdown"`
		Title    string `json:"title,omitempty" required:"false" doc:"Document title, defaults to the file name"`
	}
}

// CreateFileInput contains the file to create.
type CreateFileInput struct {
	Body struct {
		FolderPath string  `json:"folder_path,omitempty" required:"false" doc:"Folder to create the file in, empty for the root"`
		FileName   string  `json:"file_name" doc:"Name of the new file"`
		Content    *string `json:"content,omitempty" required:"false" doc:"Initial content, defaults to a title heading"`
	}
}

// CreateFolderInput contains the folder to create.
type CreateFolderInput struct {
	Body struct {
		ParentPath string `json:"parent_path,omitempty" required:"false" doc:"Parent folder, empty for the root"`
		FolderName string `json:"folder_name" doc:"Name of the new folder"`
	}
}

// CreateFolderResponse contains the created folder path.
type CreateFolderResponse struct {
	Path string `json:"path" doc:"Path of the folder relative to the workspace root"`
}

// CreateFolderOutput wraps the created folder path.
type CreateFolderOutput struct {
	Body CreateFolderResponse
}

// ForceCheckResponse lists the changes a forced check found.
type ForceCheckResponse struct {
	Changes []domain.FileChange `json:"changes" doc:"Changes found since the previous check"`
}

// ForceCheckOutput wraps the force check result.
type ForceCheckOutput struct {
	Body ForceCheckResponse
}

// === Handlers ===

func (s *Server) handleGetWorkspace(ctx context.Context, _ *struct{}) (*WorkspaceOutput, error) {
	info, err := s.services.Workspace.CurrentWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	return &WorkspaceOutput{Body: info}, nil
}

func (s *Server) handleSelectWorkspace(ctx context.Context, input *SelectWorkspaceInput) (*WorkspaceOutput, error) {
	info, err := s.services.Workspace.SelectWorkspace(ctx, input.Body.Path)
	if err != nil {
		return nil, err
	}
	s.emit(sse.NewWorkspaceSelectedEvent(info.ID, info.Name))
	return &WorkspaceOutput{Body: info}, nil
}

func (s *Server) handleClearWorkspace(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.services.Workspace.ClearWorkspace(ctx); err != nil {
		return nil, err
	}
	s.emit(sse.NewWorkspaceClearedEvent())
	return nil, nil
}

func (s *Server) handleGetTree(ctx context.Context, _ *struct{}) (*TreeOutput, error) {
	nodes, err := s.services.Workspace.GetFolderStructure(ctx)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []*domain.TreeNode{}
	}
	return &TreeOutput{Body: nodes}, nil
}

func (s *Server) handleReadFile(ctx context.Context, input *PathInput) (*DocumentOutput, error) {
	doc, err := s.services.Workspace.ReadFile(ctx, input.Path)
	if err != nil {
		return nil, err
	}
	return &DocumentOutput{Body: doc}, nil
}

func (s *Server) handleSaveFile(ctx context.Context, input *SaveFileInput) (*DocumentOutput, error) {
	doc := domain.NewDocument(input.Body.FilePath, input.Body.Content)
	doc.Title = input.Body.Title

	if err := s.services.Workspace.SaveFile(ctx, doc); err != nil {
		return nil, err
	}
	return &DocumentOutput{Body: doc}, nil
}

func (s *Server) handleCreateFile(ctx context.Context, input *CreateFileInput) (*DocumentOutput, error) {
	doc, err := s.services.Workspace.CreateFile(ctx, service.CreateFileRequest{
		FolderPath: input.Body.FolderPath,
		FileName:   input.Body.FileName,
		Content:    input.Body.Content,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentOutput{Body: doc}, nil
}

func (s *Server) handleCreateFolder(ctx context.Context, input *CreateFolderInput) (*CreateFolderOutput, error) {
	p, err := s.services.Workspace.CreateFolder(ctx, service.CreateFolderRequest{
		ParentPath: input.Body.ParentPath,
		FolderName: input.Body.FolderName,
	})
	if err != nil {
		return nil, err
	}
	return &CreateFolderOutput{Body: CreateFolderResponse{Path: p}}, nil
}

func (s *Server) handleDeleteItem(ctx context.Context, input *PathInput) (*struct{}, error) {
	if err := s.services.Workspace.DeleteItem(ctx, input.Path); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleForceCheck(ctx context.Context, _ *struct{}) (*ForceCheckOutput, error) {
	changes, err := s.services.Workspace.ForceCheck(ctx)
	if err != nil {
		return nil, err
	}
	return &ForceCheckOutput{Body: ForceCheckResponse{Changes: changes}}, nil
}

// emit publishes a workspace event when an event stream is configured.
func (s *Server) emit(evt sse.Event) {
	if s.sseManager != nil {
		s.sseManager.Emit(evt)
	}
}
