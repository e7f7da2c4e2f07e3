package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
	"github.com/samber/do"
	"github.com/serroba/motoconnect/internal/analytics"
	"github.com/serroba/motoconnect/internal/handlers"
	"github.com/serroba/motoconnect/internal/health"
	"github.com/serroba/motoconnect/internal/messaging"
	"github.com/serroba/motoconnect/internal/metrics"
	"github.com/serroba/motoconnect/internal/middleware"
	"github.com/serroba/motoconnect/internal/ratelimit"
	"go.uber.org/zap"
)

const requestIDLength = 21

// HealthPackage provides the health handler, checking only the dependencies in use.
func HealthPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*health.Handler, error) {
		opts := do.MustInvoke[*Options](i)
		set := do.MustInvoke[*ratelimit.Set](i)

		checks := make(map[string]health.Checker)

		if opts.Broker == BrokerRedis || resolveDenialStore(opts) == DenialStoreRedis {
			checks["redis"] = health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client)
		}

		if resolveDenialStore(opts) == DenialStorePostgres {
			checks["postgres"] = health.NewPostgresChecker(do.MustInvoke[*PostgresPool](i).Pool)
		}

		return health.NewHandler(checks, set), nil
	})
}

// HTTPPackage provides the chi router and the huma API with middleware and routes registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		m := do.MustInvoke[*metrics.Metrics](i)

		router := chi.NewMux()
		router.Handle("/metrics", m.Handler())

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		set := do.MustInvoke[*ratelimit.Set](i)
		denials := do.MustInvoke[analytics.DenialLog](i)
		publish := do.MustInvoke[messaging.Publish[analytics.RateLimitExceededEvent]](i)
		healthHandler := do.MustInvoke[*health.Handler](i)

		newRequestID, err := nanoid.Standard(requestIDLength)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig("MotoConnect Rate Limiter", "1.0.0"))

		api.UseMiddleware(middleware.RequestMeta(api, newRequestID, opts.TrustProxy))
		api.UseMiddleware(middleware.RateLimiter(
			api,
			set,
			ratelimit.NewOperationPresetResolver(),
			publish,
			logger.Named("ratelimit.http"),
		))

		health.RegisterRoutes(api, healthHandler)

		h := handlers.NewRateLimitHandler(set, denials, publish, logger.Named("handlers"))
		handlers.RegisterRoutes(api, h)

		if opts.ExposeAdmin {
			handlers.RegisterAdminRoutes(api, h)
		}

		return api, nil
	})
}
