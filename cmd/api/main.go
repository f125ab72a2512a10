package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lukasbrandt/containerflow-backend/api/routes"
	"github.com/lukasbrandt/containerflow-backend/internal/activity"
	"github.com/lukasbrandt/containerflow-backend/internal/analytics"
	"github.com/lukasbrandt/containerflow-backend/internal/auth"
	"github.com/lukasbrandt/containerflow-backend/internal/containers"
	"github.com/lukasbrandt/containerflow-backend/internal/customers"
	"github.com/lukasbrandt/containerflow-backend/internal/ledger"
	"github.com/lukasbrandt/containerflow-backend/internal/scans"
	"github.com/lukasbrandt/containerflow-backend/internal/tasks"
	"github.com/lukasbrandt/containerflow-backend/internal/users"
	"github.com/lukasbrandt/containerflow-backend/pkg/config"
	"github.com/lukasbrandt/containerflow-backend/pkg/db"
	"github.com/lukasbrandt/containerflow-backend/pkg/logger"
	"github.com/lukasbrandt/containerflow-backend/pkg/metrics"
	"github.com/lukasbrandt/containerflow-backend/pkg/migrate"
	"github.com/lukasbrandt/containerflow-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	lifecycleMetrics := metrics.NewLifecycleMetrics(registry)

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	customersRepo := customers.NewRepository(gormDB)
	containersRepo := containers.NewRepository(gormDB)
	tasksRepo := tasks.NewRepository(gormDB)
	scansRepo := scans.NewRepository(gormDB)
	activityRepo := activity.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)

	activityService, err := activity.NewService(activityRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create activity service", err)
		os.Exit(1)
	}
	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	scansService, err := scans.NewService(scansRepo, activityService, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create scans service", err)
		os.Exit(1)
	}
	containersService, err := containers.NewService(containersRepo, ledgerService, activityService, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create containers service", err)
		os.Exit(1)
	}
	tasksService, err := tasks.NewService(tasksRepo, containersRepo, ledgerService, activityService, scansService, dbClient, lifecycleMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create tasks service", err)
		os.Exit(1)
	}
	authService, err := auth.NewService(usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	customersService, err := customers.NewService(customersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}
	analyticsService, err := analytics.NewService(gormDB)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Redis:    redisClient,
			Pingers:  map[string]db.Pinger{"postgres": dbClient, "redis": redisClient},
			Registry: registry,

			UsersRepo:  usersRepo,
			Auth:       authService,
			Users:      usersService,
			Customers:  customersService,
			Containers: containersService,
			Tasks:      tasksService,
			Scans:      scansService,
			Activity:   activityService,
			Analytics:  analyticsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
