package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/fd-kn/daily-prompts-sub000/internal/config"
	"github.com/fd-kn/daily-prompts-sub000/internal/daily"
	"github.com/fd-kn/daily-prompts-sub000/internal/gate"
	"github.com/fd-kn/daily-prompts-sub000/internal/httpapi"
	"github.com/fd-kn/daily-prompts-sub000/internal/metrics"
	"github.com/fd-kn/daily-prompts-sub000/internal/rewards"
	"github.com/fd-kn/daily-prompts-sub000/internal/story"
	sharedauth "github.com/fd-kn/daily-prompts-sub000/pkg/auth"
	"github.com/fd-kn/daily-prompts-sub000/pkg/logging"
	sharedserver "github.com/fd-kn/daily-prompts-sub000/pkg/server"
)

const serviceName = "inkwell"

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger(serviceName)

	catalog, err := daily.Load()
	if err != nil {
		panic(fmt.Errorf("content pools error: %w", err))
	}

	backends, err := newBackends(ctx, cfg, logger)
	if err != nil {
		panic(fmt.Errorf("repository init error: %w", err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("api", registry)

	clock := daily.NewSystemClock()

	rewardService, err := rewards.NewService(rewards.Config{
		Repo:     backends.rewards,
		Gate:     gate.New(backends.gate),
		Catalog:  catalog,
		Clock:    clock,
		Location: cfg.Prompts.Location,
		Amounts:  rewards.DefaultAmounts,
		Logger:   logger,
		Metrics:  m,
	})
	if err != nil {
		panic(fmt.Errorf("rewards service init error: %w", err))
	}

	storyService, err := story.NewService(backends.stories, rewardService, story.NewSystemClock(), story.NewUUIDGenerator(), story.Options{
		Limits: story.Limits{MinWords: cfg.Stories.MinWords, MaxWords: cfg.Stories.MaxWords},
		Admins: cfg.Auth.AdminUserIDs,
	})
	if err != nil {
		panic(fmt.Errorf("story service init error: %w", err))
	}

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := sharedserver.NewRouter(serviceName, func(r chi.Router) {
		httpapi.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(verifier, sharedauth.WithAnonymous(cfg.Auth.AllowAnonymous)))

			httpapi.RegisterRoutes(r, httpapi.Dependencies{
				Catalog:  catalog,
				Clock:    clock,
				Location: cfg.Prompts.Location,
				Stories:  storyService,
				Rewards:  rewardService,
				Logger:   logger,
			})
		})
	},
		sharedserver.WithMiddleware(m.Middleware),
		sharedserver.WithMetricsHandler(m.Handler()),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("starting",
		slog.String("datastore", string(cfg.DataStore)),
		slog.String("gateStore", string(cfg.GateStore)),
		slog.String("promptTimezone", cfg.Prompts.Location.String()),
		slog.Bool("anonymous", cfg.Auth.AllowAnonymous),
	)

	if err := sharedserver.Run(ctx, srv, logger, backends.close); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

type backends struct {
	stories story.Repository
	rewards rewards.Repository
	gate    gate.Store
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func newBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{}

	var client *firestore.Client
	if cfg.DataStore == config.DataStoreFirestore || cfg.GateStore == config.GateStoreFirestore {
		var err error
		client, err = newFirestoreClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
	}

	switch cfg.DataStore {
	case config.DataStoreFirestore:
		b.stories = story.NewFirestoreRepository(client)
		b.rewards = rewards.NewFirestoreRepository(client)
	default:
		b.stories = story.NewMemoryRepository()
		b.rewards = rewards.NewMemoryRepository()
	}

	switch cfg.GateStore {
	case config.GateStoreFirestore:
		b.gate = gate.NewFirestoreStore(client)
	case config.GateStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			b.close()
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })
		b.gate = gate.NewRedisStore(rdb, "")
	default:
		b.gate = gate.NewMemoryStore()
	}

	if cfg.DataStore == config.DataStoreMemory {
		logger.Warn("using in-memory datastore; data is lost on restart")
	}
	return b, nil
}

func newFirestoreClient(ctx context.Context, cfg config.Config) (*firestore.Client, error) {
	if cfg.Firestore.EmulatorHost != "" {
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.Firestore.EmulatorHost); err != nil {
			return nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
		}
	}

	database := cfg.Firestore.Database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, cfg.GCPProjectID, database)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return client, nil
}
