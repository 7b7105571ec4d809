// Package container wires core mcpgate services using go.uber.org/dig.
package container

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"github.com/mcpgate/mcpgate/internal/admin"
	"github.com/mcpgate/mcpgate/internal/config"
	"github.com/mcpgate/mcpgate/internal/coordinator"
	"github.com/mcpgate/mcpgate/internal/telemetry"
	"github.com/mcpgate/mcpgate/internal/transport"
)

// ClientName and ClientVersion identify this client in the MCP handshake.
const (
	ClientName    = "mcpgate"
	ClientVersion = "0.1.0"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	coord   *coordinator.Coordinator
	metrics *telemetry.Metrics
	admin   http.Handler
}

func (c *Container) Coordinator() *coordinator.Coordinator { return c.coord }
func (c *Container) Metrics() *telemetry.Metrics           { return c.metrics }
func (c *Container) AdminHandler() http.Handler            { return c.admin }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(prometheus.NewRegistry); err != nil {
		return nil, err
	}
	if err := d.Provide(newMetrics); err != nil {
		return nil, err
	}
	if err := d.Provide(newTransport); err != nil {
		return nil, err
	}
	if err := d.Provide(newCoordinator); err != nil {
		return nil, err
	}
	if err := d.Provide(admin.NewRouter); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		coord *coordinator.Coordinator,
		metrics *telemetry.Metrics,
		adminHandler http.Handler,
	) {
		result = &Container{
			coord:   coord,
			metrics: metrics,
			admin:   adminHandler,
		}
	})
	return result, err
}

func newMetrics(reg *prometheus.Registry) *telemetry.Metrics {
	return telemetry.New(reg)
}

func newTransport(cfg *config.Config) *transport.Client {
	return transport.NewClient(transport.Config{
		URL:               cfg.Gateway.URL,
		AuthToken:         cfg.Gateway.AuthToken,
		ClientName:        ClientName,
		ClientVersion:     ClientVersion,
		TimeoutConnection: cfg.Gateway.ConnectionTimeout(),
		TimeoutExecution:  cfg.Gateway.ExecutionTimeout(),
	})
}

func newCoordinator(cfg *config.Config, tr *transport.Client, metrics *telemetry.Metrics) (*coordinator.Coordinator, error) {
	sched, err := cfg.Gateway.Schedule()
	if err != nil {
		return nil, err
	}
	return coordinator.New(tr, coordinator.Config{
		AllowedTools:   cfg.Gateway.AllowedTools,
		Schedule:       sched,
		BackoffInitial: cfg.Gateway.BackoffFloor(),
		BackoffCeiling: cfg.Gateway.BackoffCap(),
	}, coordinator.WithMetrics(metrics)), nil
}
