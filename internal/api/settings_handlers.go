package api

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "setNotify",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/notify",
		Summary:     "Toggle notifications",
		Description: "Enables or disables the notification side effect for subsequent events",
		Tags:        []string{"Settings"},
	}, s.handleSetNotify)

	huma.Register(s.api, huma.Operation{
		OperationID: "setFolder",
		Method:      http.MethodPut,
		Path:        "/api/v1/folder",
		Summary:     "Change listing folder",
		Description: "Points the folder listing at another directory. The watched tree does not change.",
		Tags:        []string{"Settings"},
	}, s.handleSetFolder)
}

// SetNotifyRequest is the request body for toggling notifications.
type SetNotifyRequest struct {
	Enabled bool `json:"enabled" doc:"Whether notifications are sent"`
}

// SetNotifyInput wraps the notify request for Huma.
type SetNotifyInput struct {
	Body SetNotifyRequest
}

// NotifyResponse reports the notify flag.
type NotifyResponse struct {
	Enabled bool `json:"enabled" doc:"Whether notifications are sent"`
}

// NotifyOutput wraps the notify response for Huma.
type NotifyOutput struct {
	Body NotifyResponse
}

func (s *Server) handleSetNotify(_ context.Context, input *SetNotifyInput) (*NotifyOutput, error) {
	s.monitor.SetNotifyEnabled(input.Body.Enabled)
	return &NotifyOutput{Body: NotifyResponse{Enabled: input.Body.Enabled}}, nil
}

// SetFolderRequest is the request body for retargeting the listing.
type SetFolderRequest struct {
	Path string `json:"path" minLength:"1" doc:"Directory to list"`
}

// SetFolderInput wraps the folder request for Huma.
type SetFolderInput struct {
	Body SetFolderRequest
}

// FolderResponse reports the requested folder.
type FolderResponse struct {
	Folder string `json:"folder" doc:"Folder that will be listed from the next tick"`
}

// FolderOutput wraps the folder response for Huma.
type FolderOutput struct {
	Status int
	Body   FolderResponse
}

func (s *Server) handleSetFolder(_ context.Context, input *SetFolderInput) (*FolderOutput, error) {
	if err := s.monitor.Retarget(input.Body.Path); err != nil {
		return nil, huma.Error400BadRequest("invalid folder", err)
	}

	folder := input.Body.Path
	if abs, err := filepath.Abs(folder); err == nil {
		folder = abs
	}
	return &FolderOutput{
		Status: http.StatusAccepted,
		Body:   FolderResponse{Folder: folder},
	}, nil
}
