// Package gateapi serves the authorization gate to a long-lived bot process: membership checks,
// admissions, invitation issue and usage stats.
package gateapi

import (
	"context"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kdudkov/geogate/internal/gate"
	"github.com/kdudkov/geogate/internal/ledger"
	"github.com/kdudkov/geogate/internal/usage"
	"github.com/kdudkov/geogate/pkg/log"
)

type Config struct {
	Open        bool
	LogRequests bool
}

type GateAPI struct {
	f        *fiber.App
	open     bool
	gate     *gate.Gate
	ledger   *ledger.Manager
	usage    *usage.Aggregator
	registry *prometheus.Registry
	logger   *slog.Logger
}

func New(g *gate.Gate, l *ledger.Manager, u *usage.Aggregator, conf *Config) *GateAPI {
	if conf == nil {
		conf = &Config{}
	}

	api := &GateAPI{
		open:     conf.Open,
		gate:     g,
		ledger:   l,
		usage:    u,
		registry: prometheus.NewRegistry(),
		logger:   slog.Default().With("logger", "gate_api"),
	}

	api.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "geogate",
		Name:      "gate_cached_principals",
		Help:      "Principals remembered by the gate membership cache",
	}, func() float64 {
		return float64(g.CacheSize())
	}))

	api.f = fiber.New(fiber.Config{EnablePrintRoutes: false, DisableStartupMessage: true, BodyLimit: 16 * 1024})

	api.f.Use(log.NewFiberLogger(&log.LoggerConfig{
		Name:          "gate_api",
		DoMetrics:     true,
		LogErrorsOnly: !conf.LogRequests,
	}))

	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, api.registry}
	api.f.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{DisableCompression: true})))

	api.f.Get("/check/:id", getCheckHandler(api))
	api.f.Post("/join", postJoinHandler(api))
	api.f.Post("/open", postOpenHandler(api))
	api.f.Post("/issue", postIssueHandler(api))
	api.f.Get("/invitations/:code", getInvitationHandler(api))
	api.f.Get("/issued/:issuer", getIssuedHandler(api))
	api.f.Get("/stats", getStatsHandler(api))

	return api
}

func (api *GateAPI) Listener(ln net.Listener) error {
	return api.f.Listener(ln)
}

func (api *GateAPI) Shutdown(ctx context.Context) error {
	return api.f.ShutdownWithContext(ctx)
}

// App is exposed for handler tests.
func (api *GateAPI) App() *fiber.App {
	return api.f
}
