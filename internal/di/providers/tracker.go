package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/foldermon/foldermon/internal/config"
	"github.com/foldermon/foldermon/internal/metrics"
	"github.com/foldermon/foldermon/internal/tracker"
)

// TrackerHandle wraps the tracker with Shutdownable.
type TrackerHandle struct {
	*tracker.Tracker
	log *LoggerHandle
}

// Shutdown implements do.Shutdownable. The consumer must have stopped before
// the container shuts down, since flushing ticks the tracker.
func (h *TrackerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.Tracker.Shutdown(ctx); err != nil {
		return err
	}
	h.log.Info("Tracker stopped", "applied", h.Snapshot().Applied)
	return nil
}

// ProvideTracker provides the status tracker consuming the event queue.
func ProvideTracker(i do.Injector) (*TrackerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)
	queue := do.MustInvoke[*EventQueue](i)
	n := do.MustInvoke[*NotifierHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	t := tracker.New(queue.Queue, n, tracker.DirLister{}, sseHandle.Manager, m, log.Logger.Logger, tracker.Options{
		Folder:        cfg.FolderPath,
		NotifyEnabled: cfg.Notify.Enabled,
	})

	snap := t.Snapshot()
	log.Info("Tracker ready", "folder", snap.Folder, "files", len(snap.Files))

	return &TrackerHandle{Tracker: t, log: log}, nil
}
