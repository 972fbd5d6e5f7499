package domain

import "time"

// Severity is the display severity of a log entry.
type Severity int

const (
	// SeverityInfo is used for creations and successful notifications.
	SeverityInfo Severity = iota
	// SeverityWarning is used for modifications.
	SeverityWarning
	// SeverityError is used for deletions and failed notifications.
	SeverityError
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// LogEntry is a single line of the presentation log.
// Entries are append-only; Seq is strictly increasing in insertion order.
type LogEntry struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"time"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}
