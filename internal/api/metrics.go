package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "geogate"

func (api *StoreAPI) registerGauges() {
	api.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "users",
		Help:      "Number of authorized users",
	}, func() float64 {
		n, err := api.dbm.UserQuery().Count()
		if err != nil {
			api.logger.Warn("can't count users", slog.Any("error", err))
		}

		return float64(n)
	}))

	for _, redeemed := range []bool{false, true} {
		state := "active"
		if redeemed {
			state = "redeemed"
		}

		api.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "invitations",
			Help:        "Number of invitations by state",
			ConstLabels: prometheus.Labels{"state": state},
		}, func() float64 {
			n, err := api.dbm.InvitationQuery().Redeemed(redeemed).Count()
			if err != nil {
				api.logger.Warn("can't count invitations", slog.Any("error", err))
			}

			return float64(n)
		}))
	}
}

// getMetricsHandler serves the process-wide metrics together with the store gauges.
func getMetricsHandler(reg *prometheus.Registry) fiber.Handler {
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, reg}

	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{DisableCompression: true}))
}
