package container

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/do"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	BrokerMemory = "memory"
	BrokerRedis  = "redis"
)

const (
	DenialStoreAuto     = "auto"
	DenialStorePostgres = "postgres"
	DenialStoreRedis    = "redis"
	DenialStoreMemory   = "memory"
	DenialStoreLog      = "log"
)

var ErrInvalidOption = errors.New("invalid option")

type Options struct {
	Port          int    `default:"8888"           help:"Port to listen on"                                          short:"p"`
	RedisAddr     string `default:"localhost:6379" help:"Redis server address"                                       short:"r"`
	PostgresDSN   string `default:""               help:"PostgreSQL DSN for the denial log"`
	Broker        string `default:"memory"         help:"Denial event broker: memory or redis"                       short:"b"`
	DenialStore   string `default:"auto"           help:"Denial log: auto, postgres, redis, memory or log"`
	LogFormat     string `default:"console"        help:"Log format: console or json"`
	LogLevel      string `default:"info"           help:"Log level: debug, info, warn or error"`
	PresetsFile   string `default:""               help:"YAML file overriding rate limit presets"`
	SweepInterval int    `default:"600"            help:"Seconds between sweeps of expired rate limit counters"`
	Shards        int    `default:"32"             help:"Lock shards per rate limit preset"`
	TrustProxy    bool   `default:"false"          help:"Take the client IP from X-Forwarded-For and X-Real-IP"`
	ExposeAdmin   bool   `default:"false"          help:"Serve the check and denials endpoints, which act on other clients"`
}

// Validate rejects option values no provider can work with.
func (o *Options) Validate() error {
	switch o.Broker {
	case BrokerMemory, BrokerRedis:
	default:
		return fmt.Errorf("%w: broker %q", ErrInvalidOption, o.Broker)
	}

	switch o.DenialStore {
	case DenialStoreAuto, DenialStorePostgres, DenialStoreRedis, DenialStoreMemory, DenialStoreLog:
	default:
		return fmt.Errorf("%w: denial store %q", ErrInvalidOption, o.DenialStore)
	}

	if o.DenialStore == DenialStorePostgres && o.PostgresDSN == "" {
		return fmt.Errorf("%w: postgres denial store needs a DSN", ErrInvalidOption)
	}

	// Only the memory broker runs the consumer in-process, so nothing would fill a memory log
	if o.DenialStore == DenialStoreMemory && o.Broker != BrokerMemory {
		return fmt.Errorf("%w: memory denial store needs the memory broker", ErrInvalidOption)
	}

	if o.SweepInterval <= 0 {
		return fmt.Errorf("%w: sweep interval %d", ErrInvalidOption, o.SweepInterval)
	}

	return nil
}

// SweepEvery converts the sweep interval option to a duration.
func (o *Options) SweepEvery() time.Duration {
	return time.Duration(o.SweepInterval) * time.Second
}

// NewLogger builds a zap logger for the given format and level.
func NewLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q", ErrInvalidOption, level)
	}

	var cfg zap.Config

	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("%w: log format %q", ErrInvalidOption, format)
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// LoggerPackage provides the application logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return NewLogger(opts.LogFormat, opts.LogLevel)
	})
}
