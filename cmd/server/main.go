// Command server runs the office calendar HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/aimd54/officecal/internal/api/calendar"
	"github.com/aimd54/officecal/internal/cache"
	"github.com/aimd54/officecal/internal/config"
	"github.com/aimd54/officecal/internal/repository"
	calendarsvc "github.com/aimd54/officecal/internal/service/calendar"
	"github.com/aimd54/officecal/internal/service/counters"
	"github.com/aimd54/officecal/internal/service/directory"
	"github.com/aimd54/officecal/internal/service/ledger"
	"github.com/aimd54/officecal/internal/service/planner"
	"github.com/aimd54/officecal/internal/service/teamview"
	"github.com/aimd54/officecal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()

	if cfg.Database.Postgres.RunMigrations {
		if err := db.Migrate(log); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}
	if cfg.Calendar.SeedDemoData {
		if err := repository.Seed(db, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed demo data")
		}
	}

	var store cache.Cache = cache.Noop{}
	if cfg.Database.Redis.Enabled {
		redisCache, err := cache.NewRedis(&cfg.Database.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer func() { _ = redisCache.Close() }()
		store = redisCache
	}
	invalidator := cache.NewMonthInvalidator(store, log)

	userRepo := repository.NewUserRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	statusRepo := repository.NewStatusRepository(db)

	monthService := calendarsvc.NewService(calendarRepo, invalidator, log)
	counterService := counters.NewService(statusRepo, userRepo, log)
	ledgerService := ledger.NewService(monthService, statusRepo, userRepo, invalidator, log)
	plannerService := planner.NewService(monthService, calendarRepo, statusRepo, log)
	teamViewService := teamview.NewService(
		monthService,
		userRepo,
		statusRepo,
		counterService,
		store,
		time.Duration(cfg.Calendar.CacheTTL)*time.Second,
		log,
	)
	directoryService := directory.NewService(userRepo, deptRepo, cfg.Calendar.DefaultRemoteLimit, log)

	handler := api.NewHandler(
		monthService,
		ledgerService,
		counterService,
		plannerService,
		teamViewService,
		directoryService,
		db,
		log,
	)
	router := api.NewRouter(handler, userRepo, cfg, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
