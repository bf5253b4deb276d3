package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/kdudkov/geogate/internal/common"
	"github.com/kdudkov/geogate/internal/config"
	"github.com/kdudkov/geogate/internal/gate"
	"github.com/kdudkov/geogate/internal/gateapi"
	"github.com/kdudkov/geogate/internal/ledger"
	"github.com/kdudkov/geogate/internal/store"
	"github.com/kdudkov/geogate/internal/usage"
	"github.com/kdudkov/geogate/pkg/log"
)

const usageText = `usage: geogate [flags] <command>

commands:
  check <id>                 is the principal authorized
  issue <issuer>             issue a new invitation code
  lookup <code>              show an invitation
  join <code> <id> [name]    admit a principal with an invitation code
  open <id> [name]           admit a principal without a code (gate.open must be set)
  issued <issuer>            list invitations of an issuer
  stats                      usage statistics
  serve                      run the gate as a service on gate.addr
`

var errUsage = errors.New("bad arguments")

type App struct {
	gate   *gate.Gate
	ledger *ledger.Manager
	usage  *usage.Aggregator
	config *config.AppConfig
	logger *slog.Logger
	out    io.Writer
}

func NewApp(s store.Store, cfg *config.AppConfig, out io.Writer) *App {
	l := ledger.New(s)

	return &App{
		gate:   gate.New(s, l, gate.WithCache(cfg.GateCacheTTL())),
		ledger: l,
		usage:  usage.New(s),
		config: cfg,
		logger: slog.Default().With("logger", "geogate"),
		out:    out,
	}
}

func (app *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, args := args[0], args[1:]

	switch cmd {
	case "check":
		if len(args) != 1 {
			return errUsage
		}

		ok, err := app.gate.IsAuthorized(ctx, args[0])
		if err != nil {
			return err
		}

		if ok {
			fmt.Fprintf(app.out, "%s is authorized\n", args[0])
		} else {
			fmt.Fprintf(app.out, "%s is not authorized\n", args[0])
		}

	case "issue":
		if len(args) != 1 {
			return errUsage
		}

		inv, err := app.ledger.Issue(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(app.out, inv.Code)

	case "lookup":
		if len(args) != 1 {
			return errUsage
		}

		inv, err := app.ledger.Lookup(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(app.out, inv.String())

	case "join":
		if len(args) < 2 {
			return errUsage
		}

		res, err := app.gate.AdmitByCode(ctx, args[0], args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}

		fmt.Fprintf(app.out, "%s: %s\n", args[1], res)

	case "open":
		if len(args) < 1 {
			return errUsage
		}

		if !app.config.GateOpen() {
			return gateapi.ErrOpenDisabled
		}

		res, err := app.gate.AdmitOpen(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}

		fmt.Fprintf(app.out, "%s: %s\n", args[0], res)

	case "issued":
		if len(args) != 1 {
			return errUsage
		}

		list, err := app.ledger.IssuedBy(ctx, args[0])
		if err != nil {
			return err
		}

		for _, inv := range list {
			fmt.Fprintln(app.out, inv.String())
		}

	case "serve":
		if len(args) != 0 {
			return errUsage
		}

		ln, err := net.Listen("tcp", app.config.GateAddr())
		if err != nil {
			return err
		}

		return app.serve(ctx, ln)

	case "stats":
		st, err := app.usage.Stats(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(app.out, "authorized: %d\nactive codes: %d\nredeemed codes: %d\n",
			st.AuthorizedCount, st.ActiveCodeCount, st.RedeemedCodeCount)

	default:
		return errUsage
	}

	return nil
}

// serve hosts the gate until ctx is done.
func (app *App) serve(ctx context.Context, ln net.Listener) error {
	api := gateapi.New(app.gate, app.ledger, app.usage, &gateapi.Config{
		Open:        app.config.GateOpen(),
		LogRequests: app.config.LogRequests(),
	})

	go app.gate.Run(ctx)

	errCh := make(chan error, 1)

	go func() {
		app.logger.Info("listening on " + ln.Addr().String())
		errCh <- api.Listener(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info("exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	return api.Shutdown(shutdownCtx)
}

// message turns an outcome into a line for the user.
func message(err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidCode):
		return "the invitation code is not valid"
	case errors.Is(err, common.ErrRedemptionRace):
		return "the invitation code was just used by someone else"
	case errors.Is(err, common.ErrUnauthorizedIssuer):
		return "only authorized users can issue invitations"
	case errors.Is(err, common.ErrNotFound):
		return "not found"
	case errors.Is(err, common.ErrStoreAuth):
		return "authorization server rejected the store credentials"
	case errors.Is(err, common.ErrStoreUnavailable):
		return "authorization server is unavailable, try later"
	default:
		return err.Error()
	}
}

func main() {
	fs := pflag.NewFlagSet("geogate", pflag.ExitOnError)
	conf := fs.String("config", "geogate.yml", "name of config file")
	debug := fs.Bool("debug", false, "debug mode")
	fs.String("store.url", "http://127.0.0.1:8080", "authstore url")
	fs.String("store.login", "", "authstore login")
	fs.String("store.password", "", "authstore password")
	fs.Bool("gate.open", false, "allow admission without a code")
	fs.String("gate.addr", ":8081", "listen address for serve")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usageText+"\nflags:\n"+fs.FlagUsages())
	}

	_ = fs.Parse(os.Args[1:])

	slog.SetDefault(slog.New(log.NewHandler(false, &slog.HandlerOptions{Level: log.Level(*debug)})))

	cfg := config.NewAppConfig()
	cfg.Load(*conf)
	cfg.LoadEnv()

	if err := cfg.BindFlags(fs); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	s := store.NewHTTPStore(cfg.StoreURL(), cfg.StoreTimeout())
	if cfg.StoreLogin() != "" {
		s.WithAuth(cfg.StoreLogin(), cfg.StorePassword())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := NewApp(s, cfg, os.Stdout).Run(ctx, fs.Args())

	stop()

	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fs.Usage()
		os.Exit(2)
	default:
		slog.Debug("command failed", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, message(err))
		os.Exit(1)
	}
}
