package providers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/samber/do/v2"

	"github.com/foldermon/foldermon/internal/api"
	"github.com/foldermon/foldermon/internal/classifier"
	"github.com/foldermon/foldermon/internal/config"
	"github.com/foldermon/foldermon/internal/mdns"
	"github.com/foldermon/foldermon/internal/metrics"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
// Server is nil when the API is disabled.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	if h.Server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	if !cfg.Server.Enabled {
		log.Info("HTTP API disabled by configuration")
		return &HTTPServerHandle{}, nil
	}

	trackerHandle := do.MustInvoke[*TrackerHandle](i)
	subHandle := do.MustInvoke[*SubscriptionHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	handler := api.NewServer(trackerHandle.Tracker, subHandle, sseHandle.Manager, m.Handler(), log.Logger.Logger, api.Options{
		Name:           cfg.Server.Name,
		Version:        Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
	})

	// No WriteTimeout: the event stream is long-lived and manages its own deadlines.
	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     handler,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}

// MDNSServiceHandle wraps mdns.Service with Shutdownable.
type MDNSServiceHandle struct {
	*mdns.Service
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.started && h.Service != nil {
		h.Stop()
	}
	return nil
}

// ProvideMDNSService provides the mDNS advertisement service.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	if !cfg.Server.Enabled || !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertisement disabled by configuration")
		return &MDNSServiceHandle{}, nil
	}

	session := do.MustInvoke[Session](i)
	c := do.MustInvoke[*classifier.Classifier](i)

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Warn("Failed to parse server port for mDNS, using default", "port", cfg.Server.Port)
		port = 8080
	}

	svc := mdns.NewService(log.Logger.Logger)
	if err := svc.Start(mdns.Advertisement{
		Session:   string(session),
		Name:      cfg.Server.Name,
		Version:   Version,
		Extension: c.Extension(),
		Port:      port,
	}); err != nil {
		// Non-fatal: the API works without mDNS (e.g., Docker, cloud).
		log.Warn("mDNS advertisement unavailable", "error", err)
		return &MDNSServiceHandle{Service: svc}, nil
	}

	return &MDNSServiceHandle{Service: svc, started: true}, nil
}
