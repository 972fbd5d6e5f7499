package tracker

import (
	"time"

	"github.com/foldermon/foldermon/internal/domain"
)

// FileStatus is one row of the file listing.
type FileStatus struct {
	Name string
	Path string
	// Kind is the last observed event for the file; zero when the file is not tracked.
	Kind domain.FileEventKind
}

// Tracked reports whether the file has a status.
func (f FileStatus) Tracked() bool {
	return f.Kind != 0
}

// Snapshot is an immutable view of the tracker state published after each tick.
// Readers must not modify its slices or map.
type Snapshot struct {
	UpdatedAt time.Time
	Statuses  map[string]domain.FileEventKind
	Folder    string
	Files     []FileStatus
	Log       []domain.LogEntry

	// Applied is the number of events applied since start.
	Applied uint64
	// Pending is the number of notifications whose outcome is not yet logged.
	Pending       int
	NotifyEnabled bool
}

// Status returns the last observed kind for path.
func (s Snapshot) Status(path string) (domain.FileEventKind, bool) {
	kind, ok := s.Statuses[path]
	return kind, ok
}

// LogSince returns the entries with a sequence number greater than seq.
func (s Snapshot) LogSince(seq uint64) []domain.LogEntry {
	// Sequence numbers start at 1 and have no gaps.
	if seq >= uint64(len(s.Log)) {
		return nil
	}
	return s.Log[seq:]
}

// Counts returns how many listed files carry each kind.
func (s Snapshot) Counts() map[domain.FileEventKind]int {
	counts := make(map[domain.FileEventKind]int, 3)
	for _, f := range s.Files {
		if f.Tracked() {
			counts[f.Kind]++
		}
	}
	return counts
}
