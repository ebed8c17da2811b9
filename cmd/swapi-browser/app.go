package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/swapi-client/internal/config"
	"github.com/Sternrassler/swapi-client/pkg/client"
	"github.com/Sternrassler/swapi-client/pkg/coordinator"
	"github.com/Sternrassler/swapi-client/pkg/logging"
	"github.com/Sternrassler/swapi-client/pkg/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app wires the client stack to one coordinator.
type app struct {
	cfg         *config.Config
	redis       *redis.Client
	client      *client.Client
	coordinator *coordinator.Coordinator
	logger      zerolog.Logger
}

// loadConfig resolves the configuration and applies command-line overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Log.Level = logging.LogLevel(flags.logLevel)
	}
	if flags.baseURL != "" {
		cfg.Client.BaseURL = flags.baseURL
	}
	if flags.redisURL != "" {
		cfg.Redis.URL = flags.redisURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logging.Setup(cfg.Log)
	logger := logging.NewLogger("swapi-browser")

	a := &app{cfg: cfg, logger: logger}

	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		return nil, err
	}
	if redisOpts != nil {
		a.redis = redis.NewClient(redisOpts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", redisOpts.Addr, err)
		}
		logger.Info().Str("addr", redisOpts.Addr).Msg("Connected to Redis")
	}

	clientCfg := cfg.Client
	clientCfg.Redis = a.redis
	a.client, err = client.New(clientCfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create swapi client: %w", err)
	}

	coordCfg := coordinator.DefaultConfig(repository.New(a.client))
	coordCfg.InitialCategory = cfg.Browser.InitialCategory
	coordCfg.FetchTimeout = cfg.Browser.FetchTimeout
	a.coordinator, err = coordinator.New(coordCfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create coordinator: %w", err)
	}

	return a, nil
}

func (a *app) close() {
	if a.coordinator != nil {
		a.coordinator.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
}
