package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironpoint/steeltrack-backend/internal/config"
	dataagg "github.com/ironpoint/steeltrack-backend/internal/data/aggregates"
	"github.com/ironpoint/steeltrack-backend/internal/data/repos"
	"github.com/ironpoint/steeltrack-backend/internal/db"
	"github.com/ironpoint/steeltrack-backend/internal/handlers"
	"github.com/ironpoint/steeltrack-backend/internal/middleware"
	"github.com/ironpoint/steeltrack-backend/internal/observability"
	"github.com/ironpoint/steeltrack-backend/internal/platform/envutil"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
	"github.com/ironpoint/steeltrack-backend/internal/realtime"
	"github.com/ironpoint/steeltrack-backend/internal/realtime/bus"
	"github.com/ironpoint/steeltrack-backend/internal/server"
	"github.com/ironpoint/steeltrack-backend/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "steeltrack: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(envutil.String("CONFIG_FILE", "steeltrack.yaml"))
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "steeltrack-backend",
		Environment: cfg.LogMode,
	})
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shCtx); err != nil {
			log.Warn("OTel shutdown failed", "error", err)
		}
	}()

	// Metrics
	var metrics *observability.Metrics
	if observability.Enabled() {
		metrics = observability.Init(log)
		metrics.StartServer(ctx, log, envutil.String("METRICS_ADDR", ":9090"))
	}

	// Postgres
	log.Info("Setting up Postgres from main...")
	postgresService, err := db.NewPostgresService(cfg.Postgres, log)
	if err != nil {
		return err
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	gdb := postgresService.DB()
	if metrics != nil {
		metrics.StartPostgresCollector(ctx, log, gdb)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	projectRepo := repos.NewProjectRepo(gdb, log)
	pieceMarkRepo := repos.NewPieceMarkRepo(gdb, log)
	deliveryRepo := repos.NewDeliveryRepo(gdb, log)
	deliveryItemRepo := repos.NewDeliveryItemRepo(gdb, log)
	crewRepo := repos.NewCrewAssignmentRepo(gdb, log)
	activityRepo := repos.NewActivityLogRepo(gdb, log)

	// SSE hub + broadcast bus
	log.Info("Setting up SSE hub from main...")
	hub := realtime.NewSSEHub(log)
	var emitter services.SSEEmitter = &services.HubEmitter{Hub: hub}
	if cfg.Redis.Addr != "" {
		redisBus, err := bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			return fmt.Errorf("init redis bus: %w", err)
		}
		defer redisBus.Close()
		if err := redisBus.StartForwarder(ctx, hub.Broadcast); err != nil {
			return fmt.Errorf("start bus forwarder: %w", err)
		}
		emitter = &services.RedisEmitter{Bus: redisBus}
		if metrics != nil {
			metrics.StartRedisCollector(ctx, log, cfg.Redis.Addr)
		}
	}
	notifier := services.NewTrackingNotifier(emitter, metrics)

	// Services
	log.Info("Setting up Services from main...")
	baseDeps := dataagg.BaseDeps{
		DB:    gdb,
		Log:   log,
		Hooks: dataagg.NewObservabilityHooks(metrics),
	}.WithDefaults()
	pieceMarkService := services.NewPieceMarkService(services.PieceMarkServiceDeps{
		Base:     baseDeps,
		Projects: projectRepo,
		Marks:    pieceMarkRepo,
		Activity: activityRepo,
		Notifier: notifier,
	})
	deliveryService := services.NewDeliveryService(services.DeliveryServiceDeps{
		Base:       baseDeps,
		Projects:   projectRepo,
		Deliveries: deliveryRepo,
		Items:      deliveryItemRepo,
		Marks:      pieceMarkRepo,
		Activity:   activityRepo,
		Notifier:   notifier,
	})
	crewService := services.NewCrewService(services.CrewServiceDeps{
		Base:     baseDeps,
		Projects: projectRepo,
		Crews:    crewRepo,
		Marks:    pieceMarkRepo,
		Activity: activityRepo,
		Notifier: notifier,
	})
	activityService := services.NewActivityService(services.ActivityServiceDeps{
		Activity: activityRepo,
	})

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		AuthMiddleware: middleware.NewAuthMiddleware(log, cfg.Identity),

		HealthHandler:    handlers.NewHealthHandler(gdb),
		PieceMarkHandler: handlers.NewPieceMarkHandler(log, pieceMarkService),
		DeliveryHandler:  handlers.NewDeliveryHandler(log, deliveryService),
		CrewHandler:      handlers.NewCrewHandler(log, crewService),
		ActivityHandler:  handlers.NewActivityHandler(log, activityService),
		SSEHandler:       handlers.NewSSEHandler(log, hub, metrics),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	})
	return g.Wait()
}
