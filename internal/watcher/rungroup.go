package watcher

import "sync"

// runGroup tracks a backend's reader goroutine. Go and Stop are serialized,
// so Add never races Wait and nothing is started after Stop.
type runGroup struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
}

// Go runs f on a new goroutine unless the group is stopped.
func (g *runGroup) Go(f func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		return false
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f()
	}()
	return true
}

// Stop prevents further starts and waits for running goroutines.
func (g *runGroup) Stop() {
	g.mu.Lock()
	g.stopped = true
	g.mu.Unlock()

	g.wg.Wait()
}
