package watcher

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunGroup_StopWaitsForRunning(t *testing.T) {
	var g runGroup
	release := make(chan struct{})
	finished := make(chan struct{})

	require.True(t, g.Go(func() {
		<-release
		close(finished)
	}))

	stopped := make(chan struct{})
	go func() {
		g.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a goroutine was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-finished
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestRunGroup_NoStartAfterStop(t *testing.T) {
	var g runGroup
	g.Stop()

	assert.False(t, g.Go(func() { t.Error("started after Stop") }))
}

func TestRunGroup_ConcurrentStartAndStop(t *testing.T) {
	for range 100 {
		var g runGroup
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.Go(func() {})
		}()
		go func() {
			defer wg.Done()
			g.Stop()
		}()
		wg.Wait()
		g.Stop()
	}
}
