package domain

// FileEventKind is the lifecycle category of a change to a watched file.
type FileEventKind int

const (
	// FileCreated is recorded when a watched file appears.
	FileCreated FileEventKind = iota + 1

	// FileModified is recorded when the contents of a watched file change.
	FileModified

	// FileDeleted is recorded when a watched file is removed.
	// A deleted path is never kept in the status map.
	FileDeleted
)

// String returns the lowercase name of the kind.
func (k FileEventKind) String() string {
	switch k {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Severity returns the log severity used when an event of this kind is recorded.
func (k FileEventKind) Severity() Severity {
	switch k {
	case FileCreated:
		return SeverityInfo
	case FileModified:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// FileEvent is a change to a single file, identified by its absolute path.
type FileEvent struct {
	Kind FileEventKind `json:"kind"`
	Path string        `json:"path"`
}

// ClassifiedEvent pairs a FileEvent with its display message.
// The message depends only on the kind and the file's base name.
type ClassifiedEvent struct {
	FileEvent
	Message string `json:"message"`
}
