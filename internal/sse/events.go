// Package sse streams file events and log entries to HTTP clients as Server-Sent Events.
package sse

import (
	"time"

	"github.com/foldermon/foldermon/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventFileCreated is sent when a watched file is created.
	EventFileCreated EventType = "file.created"
	// EventFileModified is sent when a watched file is modified.
	EventFileModified EventType = "file.modified"
	// EventFileDeleted is sent when a watched file is deleted.
	EventFileDeleted EventType = "file.deleted"

	// EventLogAppended is sent for every new log entry.
	EventLogAppended EventType = "log.appended"

	// EventSettingsUpdated is sent when the notify flag changes.
	EventSettingsUpdated EventType = "settings.updated"
	// EventFolderChanged is sent when the listing folder is retargeted.
	EventFolderChanged EventType = "folder.changed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// FileEventData is the payload for file events.
type FileEventData struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// LogEventData is the payload for log events.
type LogEventData struct {
	Seq      uint64 `json:"seq"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// SettingsEventData is the payload for settings events.
type SettingsEventData struct {
	NotifyEnabled bool `json:"notify_enabled"`
}

// FolderEventData is the payload for folder events.
type FolderEventData struct {
	Folder string `json:"folder"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func fileEventType(kind domain.FileEventKind) EventType {
	switch kind {
	case domain.FileCreated:
		return EventFileCreated
	case domain.FileModified:
		return EventFileModified
	default:
		return EventFileDeleted
	}
}

// NewFileEvent creates an event for a classified file event.
func NewFileEvent(ev domain.ClassifiedEvent, name string) Event {
	return Event{
		Type:      fileEventType(ev.Kind),
		Timestamp: time.Now(),
		Data: FileEventData{
			Path:    ev.Path,
			Name:    name,
			Kind:    ev.Kind.String(),
			Message: ev.Message,
		},
	}
}

// NewLogEvent creates an event for an appended log entry.
func NewLogEvent(entry domain.LogEntry) Event {
	return Event{
		Type:      EventLogAppended,
		Timestamp: entry.Time,
		Data: LogEventData{
			Seq:      entry.Seq,
			Message:  entry.Message,
			Severity: entry.Severity.String(),
		},
	}
}

// NewSettingsEvent creates a settings update event.
func NewSettingsEvent(notifyEnabled bool) Event {
	return Event{
		Type:      EventSettingsUpdated,
		Timestamp: time.Now(),
		Data:      SettingsEventData{NotifyEnabled: notifyEnabled},
	}
}

// NewFolderEvent creates a folder change event.
func NewFolderEvent(folder string) Event {
	return Event{
		Type:      EventFolderChanged,
		Timestamp: time.Now(),
		Data:      FolderEventData{Folder: folder},
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}
