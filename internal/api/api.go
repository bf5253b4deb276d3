// Package api serves the authorization store over HTTP: the authorized-user set under
// /users and the invitation ledger under /invitations.
package api

import (
	"context"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kdudkov/geogate/internal/callbacks"
	"github.com/kdudkov/geogate/internal/database"
	"github.com/kdudkov/geogate/pkg/log"
	"github.com/kdudkov/geogate/pkg/model"
)

// Authorizer checks API client credentials.
type Authorizer interface {
	CheckAuth(login, password string) bool
}

type Config struct {
	Addr string
	// Auth is nil for an open API.
	Auth        Authorizer
	LogRequests bool
}

type StoreAPI struct {
	f        *fiber.App
	addr     string
	dbm      *database.DatabaseManager
	events   *callbacks.Callback
	registry *prometheus.Registry
	logger   *slog.Logger
}

func New(dbm *database.DatabaseManager, conf *Config) *StoreAPI {
	if conf == nil {
		conf = &Config{}
	}

	api := &StoreAPI{
		addr:     conf.Addr,
		dbm:      dbm,
		events:   callbacks.New(),
		registry: prometheus.NewRegistry(),
		logger:   slog.Default().With("logger", "api"),
	}

	api.registerGauges()

	api.f = fiber.New(fiber.Config{EnablePrintRoutes: false, DisableStartupMessage: true, BodyLimit: 64 * 1024})

	api.f.Use(log.NewFiberLogger(&log.LoggerConfig{
		Name:          "store_api",
		UserGetter:    Username,
		DoMetrics:     true,
		LogErrorsOnly: !conf.LogRequests,
	}))

	api.f.Get("/metrics", getMetricsHandler(api.registry))

	if conf.Auth != nil {
		api.f.Use(getClientAuth(conf.Auth))
	}

	api.f.Get("/users", getUsersHandler(api))
	api.f.Post("/users", postUserHandler(api))
	api.f.Get("/users/:id", getUserHandler(api))

	api.f.Get("/invitations", getInvitationsHandler(api))
	api.f.Post("/invitations", postInvitationHandler(api))
	api.f.Get("/invitations/:code", getInvitationHandler(api))

	api.f.Use("/events", requireUpgrade)
	api.f.Get("/events", getEventsHandler(api))

	return api
}

func (api *StoreAPI) Address() string {
	return api.addr
}

func (api *StoreAPI) Listen() error {
	return api.f.Listen(api.addr)
}

func (api *StoreAPI) Listener(ln net.Listener) error {
	return api.f.Listener(ln)
}

func (api *StoreAPI) Shutdown(ctx context.Context) error {
	return api.f.ShutdownWithContext(ctx)
}

// App is exposed for handler tests.
func (api *StoreAPI) App() *fiber.App {
	return api.f
}

func (api *StoreAPI) Events() *callbacks.Callback {
	return api.events
}

func (api *StoreAPI) publish(typ, code, principal string) {
	api.events.Publish(model.NewEvent(typ, code, principal))
}
