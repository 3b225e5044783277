package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"

	_ "github.com/joho/godotenv/autoload" // Load .env file automatically

	"github.com/otpvault/otpvault/internal/api"
	"github.com/otpvault/otpvault/internal/gate"
	"github.com/otpvault/otpvault/internal/vault"
	"github.com/otpvault/otpvault/pkg/httpserver"
	"github.com/otpvault/otpvault/pkg/logger"
	"github.com/otpvault/otpvault/pkg/mongo"
)

type config struct {
	Server httpserver.Config
	Mongo  mongo.Config
	Gate   gate.Config
	Log    logger.Config

	Collection string `env:"COLLECTION_NAME" envDefault:"totp"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, logger.WithAttr(slog.String("service", "otpvault")))

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, log *slog.Logger) error {
	var (
		storage      vault.Storage
		healthChecks []func(context.Context) error
	)
	if cfg.Mongo.ConnectionURL != "" {
		db, err := mongo.ConnectDatabase(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer func() { _ = db.Client().Disconnect(context.Background()) }()

		storage = vault.NewMongoStorage(db, cfg.Collection)
		healthChecks = append(healthChecks, mongo.Healthcheck(db.Client()))
		log.InfoContext(ctx, "using mongo storage",
			slog.String("database", cfg.Mongo.Database),
			slog.String("collection", cfg.Collection),
		)
	} else {
		// Local development fallback; credentials do not survive a restart.
		storage = vault.NewMemoryStorage()
		log.WarnContext(ctx, "MONGODB_URL not set, using in-memory storage")
	}

	attempts, closeAttempts, err := newAttemptStore(ctx, cfg.Gate, log)
	if err != nil {
		return err
	}
	defer closeAttempts()

	verifier, err := gate.NewVerifier(cfg.Gate)
	if err != nil {
		return err
	}
	g := gate.New(cfg.Gate, attempts, verifier, log)

	svc := vault.NewService(storage, log)
	router := api.NewRouter(svc, g, log, healthChecks...)

	return httpserver.Run(ctx, cfg.Server, router, log)
}

// newAttemptStore picks the lockout backend: Redis when configured so
// lockouts are shared across instances, process memory otherwise.
func newAttemptStore(ctx context.Context, cfg gate.Config, log *slog.Logger) (gate.Store, func(), error) {
	if cfg.RedisURL == "" {
		store := gate.NewMemoryStore()
		return store, store.Close, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, errors.Join(gate.ErrStoreUnavailable, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, errors.Join(gate.ErrStoreUnavailable, err)
	}

	log.InfoContext(ctx, "using redis lockout store")
	return gate.NewRedisStore(client), func() { _ = client.Close() }, nil
}
