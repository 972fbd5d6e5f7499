// Package di provides dependency injection configuration for foldermon.
package di

import (
	"github.com/samber/do/v2"

	"github.com/foldermon/foldermon/internal/classifier"
	"github.com/foldermon/foldermon/internal/config"
	"github.com/foldermon/foldermon/internal/di/providers"
	"github.com/foldermon/foldermon/internal/metrics"
)

// NewContainer creates and configures the DI container with all providers.
// ov carries the command-line overrides applied on top of file and env config.
func NewContainer(ov config.Overrides) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, ov)
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideSession)

	// Event pipeline
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideClassifier)
	do.Provide(injector, providers.ProvideEventQueue)
	do.Provide(injector, providers.ProvideNotifier)
	do.Provide(injector, providers.ProvideTracker)
	do.Provide(injector, providers.ProvideSubscription)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services in dependency order.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.LoggerHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*metrics.Metrics](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*classifier.Classifier](injector)

	if _, err := do.Invoke[*providers.EventQueue](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.NotifierHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.TrackerHandle](injector)
	if _, err := do.Invoke[*providers.SubscriptionHandle](injector); err != nil {
		return err
	}

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	return nil
}
