package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/kdudkov/geogate/internal/api"
	"github.com/kdudkov/geogate/internal/clients"
	"github.com/kdudkov/geogate/internal/config"
	"github.com/kdudkov/geogate/internal/database"
	"github.com/kdudkov/geogate/pkg/log"
)

var (
	gitRevision = "unknown"
	gitBranch   = "unknown"
)

type App struct {
	config  *config.AppConfig
	logger  *slog.Logger
	dbm     *database.DatabaseManager
	clients *clients.FileRepository
	api     *api.StoreAPI
}

func NewApp(cfg *config.AppConfig) *App {
	return &App{
		config: cfg,
		logger: slog.Default().With("logger", "authstore"),
	}
}

func (app *App) Init(debug bool) error {
	db, err := database.GetDatabase(app.config.DB(), debug)
	if err != nil {
		return err
	}

	app.dbm = database.New(db)

	if err := app.dbm.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	n, err := app.dbm.Bootstrap(app.config.UsersFile())
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	if n > 0 {
		app.logger.Info(fmt.Sprintf("%d users loaded from %s", n, app.config.UsersFile()))
	}

	apiConf := &api.Config{
		Addr:        app.config.APIAddr(),
		LogRequests: app.config.LogRequests(),
	}

	if fn := app.config.ClientsFile(); fn != "" {
		app.clients = clients.NewFileRepository(fn)
		apiConf.Auth = app.clients
	} else {
		app.logger.Warn("no clients file, api is open")
	}

	app.api = api.New(app.dbm, apiConf)

	return nil
}

func (app *App) Run(ctx context.Context) error {
	if app.clients != nil {
		if err := app.clients.Start(); err != nil {
			app.logger.Error("can't watch clients file", slog.Any("error", err))
		}

		defer app.clients.Stop()
	}

	errCh := make(chan error, 1)

	go func() {
		app.logger.Info("listening on " + app.api.Address())
		errCh <- app.api.Listen()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info("exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	return app.api.Shutdown(shutdownCtx)
}

func main() {
	fs := pflag.NewFlagSet("authstore", pflag.ExitOnError)
	conf := fs.String("config", "authstore.yml", "name of config file")
	debug := fs.Bool("debug", false, "debug mode")
	jsonLog := fs.Bool("json-log", false, "log in json")
	fs.String("api-addr", ":8080", "api listen address")
	fs.String("db", "geogate.sqlite", "sqlite file name or mysql:<dsn>")
	fs.Bool("log-requests", false, "log every request")

	_ = fs.Parse(os.Args[1:])

	slog.SetDefault(slog.New(log.NewHandler(*jsonLog, &slog.HandlerOptions{Level: log.Level(*debug)})))
	slog.Info(fmt.Sprintf("version %s %s", gitRevision, gitBranch))

	cfg := config.NewAppConfig()
	cfg.Load(*conf)
	cfg.LoadEnv()

	if err := cfg.BindFlags(fs); err != nil {
		slog.Error("flags", slog.Any("error", err))
		os.Exit(1)
	}

	app := NewApp(cfg)

	if err := app.Init(*debug); err != nil {
		slog.Error("init error", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("error", slog.Any("error", err))
		os.Exit(1)
	}
}
