package mdns

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvertisement_TXTRecords(t *testing.T) {
	ad := Advertisement{Session: "abc", Name: "desk", Version: "1.2.0", Extension: ".pdf", Port: 8080}
	assert.Equal(t, []string{"session=abc", "name=desk", "api=v1", "version=1.2.0", "ext=.pdf"}, ad.txtRecords())

	bare := Advertisement{Session: "abc", Name: "desk", Port: 8080}
	assert.Equal(t, []string{"session=abc", "name=desk", "api=v1"}, bare.txtRecords())
}

func TestServiceStop(t *testing.T) {
	t.Run("stop when not started is safe", func(t *testing.T) {
		service := NewService(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

		service.Stop()
		service.Stop()
		assert.False(t, service.Running())
	})
}

func TestServiceStart_InvalidPort(t *testing.T) {
	service := NewService(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	err := service.Start(Advertisement{Session: "s", Name: "n", Port: 0})
	require.Error(t, err)
	assert.False(t, service.Running())
}

func TestServiceLifecycle(t *testing.T) {
	// Multicast is unavailable in many containers and CI runners.
	var buf bytes.Buffer
	service := NewService(slog.New(slog.NewTextHandler(&buf, nil)))

	err := service.Start(Advertisement{Session: "lifecycle", Name: "Lifecycle", Port: 8080})
	if err != nil {
		t.Skipf("mDNS not available: %v", err)
	}
	assert.True(t, service.Running())
	assert.Contains(t, buf.String(), "mDNS advertisement started")

	require.NoError(t, service.Start(Advertisement{Session: "lifecycle", Name: "Lifecycle", Port: 8081}))
	assert.True(t, service.Running())

	service.Stop()
	assert.False(t, service.Running())
	assert.Contains(t, buf.String(), "mDNS advertisement stopped")
}
