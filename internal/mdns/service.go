// Package mdns advertises the HTTP API on the local network.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/mdns"
)

const (
	// ServiceType is the mDNS service type for foldermon instances.
	ServiceType = "_foldermon._tcp"

	// APIVersion is the API version advertised in TXT records.
	APIVersion = "v1"
)

// Advertisement is what an instance tells the network about itself.
type Advertisement struct {
	Session   string
	Name      string
	Version   string
	Extension string
	Port      int
}

// txtRecords renders the advertisement as TXT records.
func (a Advertisement) txtRecords() []string {
	records := []string{
		"session=" + a.Session,
		"name=" + a.Name,
		"api=" + APIVersion,
	}
	if a.Version != "" {
		records = append(records, "version="+a.Version)
	}
	if a.Extension != "" {
		records = append(records, "ext="+a.Extension)
	}
	return records
}

// Service manages mDNS advertisement. Advertising failures are usually
// environmental (no multicast in containers) and callers treat them as non-fatal.
type Service struct {
	server *mdns.Server
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// Start begins advertising ad. A running advertisement is replaced.
func (s *Service) Start(ad Advertisement) error {
	if ad.Port <= 0 || ad.Port > 65535 {
		return fmt.Errorf("invalid mDNS port %d", ad.Port)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
	}

	host, err := os.Hostname()
	if err != nil {
		host = "foldermon"
	}

	service, err := mdns.NewMDNSService(
		host,        // Instance name
		ServiceType, // Service type
		"",          // Domain (empty = .local)
		"",          // Host (empty = system hostname)
		ad.Port,
		nil, // IPs (nil = all interfaces)
		ad.txtRecords(),
	)
	if err != nil {
		return fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("start mDNS server: %w", err)
	}
	s.server = server

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", ad.Port,
		"name", ad.Name,
		"session", ad.Session,
	)
	return nil
}

// Running reports whether an advertisement is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}

// Stop stops advertising. Safe to call multiple times or if not started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
		s.logger.Info("mDNS advertisement stopped")
	}
}
