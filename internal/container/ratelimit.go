package container

import (
	"context"

	"github.com/samber/do"
	"github.com/serroba/motoconnect/internal/metrics"
	"github.com/serroba/motoconnect/internal/ratelimit"
	"go.uber.org/zap"
)

// MetricsPackage provides the Prometheus collectors.
func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})
}

// RateLimitPackage provides the preset limiter set with its sweeper running.
// The injector stops the sweepers on shutdown.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*ratelimit.Set, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i).Named("ratelimit")
		m := do.MustInvoke[*metrics.Metrics](i)

		policies, err := ratelimit.LoadPolicies(opts.PresetsFile)
		if err != nil {
			return nil, err
		}

		set, err := ratelimit.NewSet(policies,
			ratelimit.WithObserver(m),
			ratelimit.WithRegistryOptions(
				ratelimit.WithSweepInterval(opts.SweepEvery()),
				ratelimit.WithShards(opts.Shards),
				ratelimit.WithLogger(logger),
			),
		)
		if err != nil {
			return nil, err
		}

		set.Start(context.Background())

		for _, preset := range set.Presets() {
			policy, _ := set.Policy(preset)
			logger.Info("rate limit preset loaded",
				zap.String("preset", string(preset)),
				zap.Duration("window", policy.Window),
				zap.Int64("max", policy.MaxRequests),
			)
		}

		return set, nil
	})
}
