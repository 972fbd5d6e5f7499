package watcher

// Op is the coarse change category reported by the OS.
type Op int

const (
	// OpOther is any change the backend could not categorize.
	OpOther Op = iota
	// OpCreate is reported when a path appears.
	OpCreate
	// OpModify is reported when file contents change.
	OpModify
	// OpRemove is reported when a path is removed.
	OpRemove
	// OpRename is reported for either side of a move.
	OpRename
	// OpChmod is reported for metadata-only changes.
	OpChmod
	// OpAccess is reported for opens, reads and closes.
	OpAccess
)

// String returns the string representation of an Op.
func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	case OpChmod:
		return "chmod"
	case OpAccess:
		return "access"
	default:
		return "other"
	}
}

// Event is an unclassified filesystem change.
// Most backends report exactly one path; Paths may be empty for
// notifications that are not tied to a path.
type Event struct {
	Op    Op
	Paths []string
}

// Path returns the first affected path, if any.
func (e Event) Path() (string, bool) {
	if len(e.Paths) == 0 || e.Paths[0] == "" {
		return "", false
	}
	return e.Paths[0], true
}
