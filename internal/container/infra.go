package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/motoconnect/internal/analytics"
	analyticsstore "github.com/serroba/motoconnect/internal/analytics/store"
	"github.com/serroba/motoconnect/internal/store"
	"go.uber.org/zap"
)

const startupTimeout = 10 * time.Second

// RedisClient wraps redis.Client so the injector can close it on shutdown.
type RedisClient struct {
	*redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// PostgresPool wraps pgxpool.Pool so the injector can close it on shutdown.
type PostgresPool struct {
	*pgxpool.Pool
}

func (p *PostgresPool) Shutdown() error {
	p.Close()

	return nil
}

// RedisPackage provides a lazily connected Redis client.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		return &RedisClient{Client: redis.NewClient(&redis.Options{
			Addr: opts.RedisAddr,
		})}, nil
	})
}

// PostgresPackage provides the PostgreSQL pool. It fails when no DSN is configured.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*PostgresPool, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.PostgresDSN == "" {
			return nil, fmt.Errorf("%w: postgres DSN not set", ErrInvalidOption)
		}

		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		return &PostgresPool{Pool: pool}, nil
	})
}

// resolveDenialStore picks the concrete denial log for "auto".
func resolveDenialStore(opts *Options) string {
	if opts.DenialStore != DenialStoreAuto {
		return opts.DenialStore
	}

	switch {
	case opts.PostgresDSN != "":
		return DenialStorePostgres
	case opts.Broker == BrokerRedis:
		return DenialStoreRedis
	default:
		return DenialStoreMemory
	}
}

// DenialStorePackage provides the denial log used by the consumer and the denials endpoint.
func DenialStorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (analytics.DenialLog, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		kind := resolveDenialStore(opts)
		logger.Info("denial log configured", zap.String("store", kind))

		switch kind {
		case DenialStorePostgres:
			pool, err := do.Invoke[*PostgresPool](i)
			if err != nil {
				return nil, err
			}

			s := store.NewPostgresStore(pool.Pool)

			ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
			defer cancel()

			if err := s.EnsureSchema(ctx); err != nil {
				return nil, err
			}

			return s, nil
		case DenialStoreRedis:
			client, err := do.Invoke[*RedisClient](i)
			if err != nil {
				return nil, err
			}

			return store.NewRedisStore(client.Client, store.DefaultMemoryCapacity), nil
		case DenialStoreLog:
			return analyticsstore.NewNoop(logger.Named("denials")), nil
		default:
			return store.NewMemoryStore(store.DefaultMemoryCapacity), nil
		}
	})
}
