package log

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geogate",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The latency of the HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"api", "method"})

	httpRequestsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geogate",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of the HTTP requests.",
	}, []string{"api", "route", "method", "code"})
)

type LoggerConfig struct {
	Name          string
	UserGetter    func(c *fiber.Ctx) string
	DoMetrics     bool
	LogErrorsOnly bool
}

func NewFiberLogger(conf *LoggerConfig) fiber.Handler {
	if conf == nil {
		conf = &LoggerConfig{Name: "http"}
	}

	logger := slog.Default().With(slog.String("logger", conf.Name))

	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		wt := time.Since(start)

		if conf.DoMetrics {
			metrics(conf.Name, c, wt)
		}

		msg := fmt.Sprintf("%d %s %s", c.Response().StatusCode(), c.Method(), c.Path())
		l := logger

		if chainErr != nil {
			l = l.With(slog.Any("error", chainErr))
		}

		status := c.Response().StatusCode()

		attrs := []any{
			slog.String("client", c.IP()+":"+c.Port()),
			slog.Int("status", status),
			slog.Int64("ms", wt.Milliseconds()),
		}

		if conf.UserGetter != nil {
			attrs = append(attrs, slog.String("user", conf.UserGetter(c)))
		}

		if !conf.LogErrorsOnly {
			l.Info(msg, attrs...)
			return chainErr
		}

		switch {
		case status < 300:
			l.Debug(msg, attrs...)
		case status < 500:
			l.Info(msg, attrs...)
		default:
			l.Warn(msg, attrs...)
		}

		return chainErr
	}
}

// metrics uses the route pattern, not the path, so codes and ids don't blow up label cardinality.
func metrics(api string, ctx *fiber.Ctx, t time.Duration) {
	route := "unknown"
	if r := ctx.Route(); r != nil {
		route = r.Path
	}

	httpRequestsDuration.With(prometheus.Labels{"api": api, "method": ctx.Method()}).Observe(t.Seconds())

	httpRequestsCount.With(prometheus.Labels{
		"api":    api,
		"route":  route,
		"method": ctx.Method(),
		"code":   strconv.Itoa(ctx.Response().StatusCode()),
	}).Inc()
}
