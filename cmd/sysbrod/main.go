package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"sysbro/internal/adapters/redis"
	"sysbro/internal/adapters/ws/subscribers"
	"sysbro/internal/config"
	"sysbro/internal/domain"
	"sysbro/internal/event"
	"sysbro/internal/history"
	"sysbro/internal/logger"
	"sysbro/internal/metrics"
	"sysbro/internal/observability"
	"sysbro/internal/probe"
	"sysbro/internal/storage/postgres"
	"sysbro/internal/storage/sqlite"
	"sysbro/internal/system"
	transport "sysbro/internal/transport/http"
	"sysbro/internal/transport/websocket"
	"sysbro/internal/workers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const historyCleanupInterval = time.Hour

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	appLog := logger.New(cfg)
	appLog.Info("sysbrod: starting...", "address", cfg.Address)

	runtimeCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := event.New(appLog)

	// Probe history
	repo, closeRepo, err := openHistory(runtimeCtx, cfg, appLog)
	if err != nil {
		appLog.Error("failed to open probe history", "error", err)
		log.Fatal(err)
	}
	defer closeRepo()

	recorder := history.NewRecorder(repo, appLog)
	recorder.Attach(bus)

	// Prometheus
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observability.NewPromMetrics(reg).Attach(bus)

	// Redis streams, optional
	if cfg.RedisAddress != "" {
		redisClient, err := redis.Init(runtimeCtx, &redis.ClientOptions{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			appLog.Error("failed to init redis, streams disabled", "error", err)
		} else {
			appLog.Info("redis connected", "address", cfg.RedisAddress)
			defer redisClient.Close()
			redis.NewStreamPublisher(redis.NewRegistry(redisClient), appLog).Attach(bus)
		}
	}

	// Websocket
	hub := websocket.NewHub(runtimeCtx, appLog)
	subscribers.Register(bus, hub)

	// Sampler and collector
	reader := system.NewReader(appLog, system.WithRoot(cfg.ProcRoot))
	collector := metrics.NewCollector(appLog, reader, metrics.Options{
		Interval:   cfg.SampleInterval,
		MaxSamples: cfg.SampleHistory,
		Publisher:  bus,
	})

	// Prober
	var targets []probe.Target
	if len(cfg.ProbeTargets) > 0 {
		targets = probe.TargetsFromURLs(cfg.ProbeTargets)
	}
	prober := probe.New(probe.NewHTTPClient(), targets,
		probe.WithLogger(appLog),
		probe.WithPublisher(bus),
		probe.WithMaxDuration(cfg.ProbeMaxDuration),
	)

	router := transport.NewRouter(cfg, appLog, &transport.RouterDeps{
		System:  transport.NewSystemHandler(reader, collector),
		Probe:   transport.NewProbeHandler(runtimeCtx, prober, recorder, appLog),
		Ws:      websocket.NewHandler(hub, cfg.AllowedOrigins, appLog),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	server := transport.NewServer(cfg.Address, router, appLog)

	scheduler := workers.NewScheduler(appLog)
	cleanup := workers.NewHistoryCleanupWorker(repo, cfg.HistoryRetention, appLog)

	g, gCtx := errgroup.WithContext(runtimeCtx)

	g.Go(func() error {
		hub.Run()
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		hub.Stop()
		prober.Cancel()
		return nil
	})

	g.Go(func() error {
		return collector.Start(gCtx)
	})

	g.Go(func() error {
		scheduler.RunByDuration(gCtx, historyCleanupInterval, true, cleanup)
		return nil
	})

	g.Go(func() error {
		return server.Start(gCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error("sysbrod failed unexpectedly", "error", err)
	}

	appLog.Info("sysbrod stopped gracefully.")
}

// openHistory picks postgres when DATABASE_URL is set and sqlite otherwise.
func openHistory(ctx context.Context, cfg *config.Config, log logger.Logger) (domain.ProbeRepository, func(), error) {
	if cfg.DatabaseURL != "" {
		pool, err := postgres.InitDB(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewProbeRepository(pool), pool.Close, nil
	}

	db, err := sqlite.NewSqliteDB(cfg.HistoryDBPath, log)
	if err != nil {
		return nil, nil, err
	}

	if err := sqlite.MigrateUp(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return sqlite.NewProbeRepository(db), func() { db.Close() }, nil
}
