package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/presence/internal/httpserver/deps"
	"github.com/MrSnakeDoc/presence/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/presence/internal/httpserver/mw"
)

func init() { Register(registerDevices) }

func registerDevices(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		api.Get("/devices", handlers.Devices(d))
		api.Get("/devices/{id}", handlers.Device(d))
		api.Get("/interfaces", handlers.Interfaces(d))
		api.Get("/diagnostics", handlers.Diagnostics(d))
		api.With(
			mw.EnforceHost(d.AllowedHosts, d.Logger),
			mw.RateLimit(mw.RateLimitConfig{
				Burst:             d.RescanBurst,
				RefillPerIPPerMin: d.RescanPerMin,
				MaxEntries:        1024,
				TrustProxy:        d.TrustProxy,
				Logger:            d.Logger,
			}),
		).Post("/rescan", handlers.Rescan(d))
	})
}
