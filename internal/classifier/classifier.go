// Package classifier maps raw watcher events to typed file events for a
// single file extension.
package classifier

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/foldermon/foldermon/internal/domain"
	"github.com/foldermon/foldermon/internal/watcher"
)

// DefaultExtension is the extension watched when none is configured.
const DefaultExtension = ".pdf"

// Classifier filters raw events down to one extension and renders their messages.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	ext   string
	label string
}

// New creates a classifier for ext. A missing leading dot is added;
// an empty ext selects DefaultExtension. Matching stays case-sensitive.
func New(ext string) *Classifier {
	ext = NormalizeExtension(ext)
	return &Classifier{
		ext:   ext,
		label: Label(ext),
	}
}

// NormalizeExtension returns ext with exactly one leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return DefaultExtension
	}
	return "." + strings.TrimLeft(ext, ".")
}

// Label returns the display label for an extension: ".pdf" becomes "PDF".
func Label(ext string) string {
	return strings.ToUpper(strings.TrimPrefix(ext, "."))
}

// Extension returns the extension this classifier matches.
func (c *Classifier) Extension() string {
	return c.ext
}

// Label returns the display label used in messages.
func (c *Classifier) Label() string {
	return c.label
}

// Matches reports whether path carries the target extension.
// A bare ".pdf" has no stem and does not match.
func (c *Classifier) Matches(path string) bool {
	base := filepath.Base(path)
	return len(base) > len(c.ext) && filepath.Ext(base) == c.ext
}

// Classify maps a raw event to a classified event.
// Only the first path of the event is considered. Events without a path,
// with another extension, or with a category other than create, modify or
// remove yield false.
func (c *Classifier) Classify(ev watcher.Event) (domain.ClassifiedEvent, bool) {
	path, ok := ev.Path()
	if !ok || !c.Matches(path) {
		return domain.ClassifiedEvent{}, false
	}

	kind, ok := kindOf(ev.Op)
	if !ok {
		return domain.ClassifiedEvent{}, false
	}

	return domain.ClassifiedEvent{
		FileEvent: domain.FileEvent{Kind: kind, Path: path},
		Message:   c.Message(kind, filepath.Base(path)),
	}, true
}

// Message renders the display message for kind and a file base name.
func (c *Classifier) Message(kind domain.FileEventKind, name string) string {
	name = norm.NFC.String(name)

	switch kind {
	case domain.FileCreated:
		return fmt.Sprintf("New %s file created: %s", c.label, name)
	case domain.FileModified:
		return fmt.Sprintf("%s file modified: %s", c.label, name)
	case domain.FileDeleted:
		return fmt.Sprintf("%s file deleted: %s", c.label, name)
	default:
		return fmt.Sprintf("%s file changed: %s", c.label, name)
	}
}

func kindOf(op watcher.Op) (domain.FileEventKind, bool) {
	switch op {
	case watcher.OpCreate:
		return domain.FileCreated, true
	case watcher.OpModify:
		return domain.FileModified, true
	case watcher.OpRemove:
		return domain.FileDeleted, true
	default:
		return 0, false
	}
}
