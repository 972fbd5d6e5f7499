package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/foldermon/foldermon/internal/domain"
	"github.com/foldermon/foldermon/internal/tracker"
)

func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Get monitor status",
		Description: "Returns the watched root, listing folder, notify flag and counters",
		Tags:        []string{"Status"},
	}, s.handleGetStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFiles",
		Method:      http.MethodGet,
		Path:        "/api/v1/files",
		Summary:     "List folder files",
		Description: "Returns the current folder listing with the last observed event per file",
		Tags:        []string{"Status"},
	}, s.handleListFiles)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLog",
		Method:      http.MethodGet,
		Path:        "/api/v1/log",
		Summary:     "Get event log",
		Description: "Returns log entries with a sequence number greater than since",
		Tags:        []string{"Status"},
	}, s.handleGetLog)
}

// StatusResponse contains monitor state in API responses.
type StatusResponse struct {
	Watching      bool           `json:"watching" doc:"Whether the watch subscription is active"`
	WatchRoot     string         `json:"watch_root,omitempty" doc:"Root of the watched tree"`
	Backend       string         `json:"backend,omitempty" doc:"Watch backend in use"`
	Session       string         `json:"session,omitempty" doc:"Watch session ID"`
	WatchError    string         `json:"watch_error,omitempty" doc:"Why watching is not active"`
	Folder        string         `json:"folder" doc:"Folder whose listing is shown"`
	NotifyEnabled bool           `json:"notify_enabled" doc:"Whether notifications are sent"`
	Tracked       int            `json:"tracked" doc:"Number of paths in the status map"`
	Listed        int            `json:"listed" doc:"Number of files in the listing"`
	Counts        map[string]int `json:"counts" doc:"Listed files per last event kind"`
	LogEntries    int            `json:"log_entries" doc:"Number of log entries"`
	Applied       uint64         `json:"applied" doc:"Events applied since start"`
	Pending       int            `json:"pending_notifications" doc:"Notifications awaiting an outcome"`
	UpdatedAt     time.Time      `json:"updated_at" doc:"When the state last changed"`
}

// StatusOutput wraps the status response for Huma.
type StatusOutput struct {
	Body StatusResponse
}

func (s *Server) handleGetStatus(_ context.Context, _ *struct{}) (*StatusOutput, error) {
	snap := s.monitor.Snapshot()

	counts := make(map[string]int, 3)
	for kind, n := range snap.Counts() {
		counts[kind.String()] = n
	}

	resp := StatusResponse{
		Folder:        snap.Folder,
		NotifyEnabled: snap.NotifyEnabled,
		Tracked:       len(snap.Statuses),
		Listed:        len(snap.Files),
		Counts:        counts,
		LogEntries:    len(snap.Log),
		Applied:       snap.Applied,
		Pending:       snap.Pending,
		UpdatedAt:     snap.UpdatedAt,
	}
	if s.watch != nil {
		resp.Watching = s.watch.Active()
		resp.WatchRoot = s.watch.Root()
		resp.Backend = s.watch.Backend()
		resp.Session = s.watch.Session()
		if err := s.watch.Err(); err != nil {
			resp.WatchError = err.Error()
		}
	}

	return &StatusOutput{Body: resp}, nil
}

// FileResponse is one listed file.
type FileResponse struct {
	Name   string `json:"name" doc:"File name"`
	Path   string `json:"path" doc:"Absolute path"`
	Status string `json:"status,omitempty" doc:"Last observed event: created or modified" enum:"created,modified"`
}

// FilesResponse contains the folder listing.
type FilesResponse struct {
	Folder string         `json:"folder" doc:"Listed folder"`
	Files  []FileResponse `json:"files" doc:"Files in name order"`
}

// FilesOutput wraps the files response for Huma.
type FilesOutput struct {
	Body FilesResponse
}

func (s *Server) handleListFiles(_ context.Context, _ *struct{}) (*FilesOutput, error) {
	snap := s.monitor.Snapshot()

	files := make([]FileResponse, len(snap.Files))
	for i, f := range snap.Files {
		files[i] = fileResponse(f)
	}

	return &FilesOutput{Body: FilesResponse{Folder: snap.Folder, Files: files}}, nil
}

func fileResponse(f tracker.FileStatus) FileResponse {
	resp := FileResponse{Name: f.Name, Path: f.Path}
	if f.Tracked() {
		resp.Status = f.Kind.String()
	}
	return resp
}

// GetLogInput holds the log cursor.
type GetLogInput struct {
	Since uint64 `query:"since" doc:"Return entries after this sequence number" default:"0"`
	Limit int    `query:"limit" doc:"Maximum entries to return, 0 for all" default:"0" minimum:"0" maximum:"10000"`
}

// LogEntryResponse is one log entry.
type LogEntryResponse struct {
	Seq      uint64    `json:"seq" doc:"Sequence number, starting at 1"`
	Time     time.Time `json:"time" doc:"When the entry was appended"`
	Message  string    `json:"message" doc:"Display message"`
	Severity string    `json:"severity" doc:"info, warning or error" enum:"info,warning,error"`
}

// LogResponse contains a page of log entries.
type LogResponse struct {
	Entries []LogEntryResponse `json:"entries" doc:"Entries in append order"`
	Next    uint64             `json:"next" doc:"Cursor for the next request"`
}

// LogOutput wraps the log response for Huma.
type LogOutput struct {
	Body LogResponse
}

func (s *Server) handleGetLog(_ context.Context, input *GetLogInput) (*LogOutput, error) {
	entries := s.monitor.Snapshot().LogSince(input.Since)
	if input.Limit > 0 && len(entries) > input.Limit {
		entries = entries[:input.Limit]
	}

	resp := LogResponse{
		Entries: make([]LogEntryResponse, len(entries)),
		Next:    input.Since,
	}
	for i, e := range entries {
		resp.Entries[i] = logEntryResponse(e)
	}
	if n := len(entries); n > 0 {
		resp.Next = entries[n-1].Seq
	}

	return &LogOutput{Body: resp}, nil
}

func logEntryResponse(e domain.LogEntry) LogEntryResponse {
	return LogEntryResponse{
		Seq:      e.Seq,
		Time:     e.Time,
		Message:  e.Message,
		Severity: e.Severity.String(),
	}
}
