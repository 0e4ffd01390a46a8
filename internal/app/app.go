package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"esbtracker/external/esportsbattle"
	"esbtracker/internal/config"
	"esbtracker/internal/domain/location"
	"esbtracker/internal/domain/match"
	"esbtracker/internal/domain/player"
	"esbtracker/internal/domain/scanlog"
	"esbtracker/internal/domain/team"
	"esbtracker/internal/domain/tournament"
	"esbtracker/internal/infrastructure/repository/memory"
	"esbtracker/internal/infrastructure/repository/postgres"
	"esbtracker/internal/interfaces/httpapi"
	"esbtracker/internal/platform/logging"
	"esbtracker/internal/platform/resilience"
	"esbtracker/internal/usecase"
)

// App owns the long-lived pieces of the service: the HTTP server, the
// scan scheduler, and the database handle when one is configured.
type App struct {
	Server    *http.Server
	Scheduler *usecase.Scheduler

	db     *sqlx.DB
	logger *slog.Logger
}

type repositories struct {
	locations   location.Repository
	tournaments tournament.Repository
	teams       team.Repository
	matches     match.Repository
	players     player.Repository
	scans       scanlog.Repository
	tx          usecase.TxRunner
}

func New(cfg config.Config, logger *slog.Logger, platformLogger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if platformLogger == nil {
		platformLogger = logging.Default()
	}

	db, repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	client := esportsbattle.NewClient(esportsbattle.ClientConfig{
		BaseURL:     cfg.ESBBaseURL,
		Timeout:     cfg.ESBTimeout,
		MaxRetries:  cfg.ESBMaxRetries,
		LocationTTL: cfg.ESBLocationCacheTTL,
		Logger:      platformLogger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ESBCircuitEnabled,
			FailureThreshold: cfg.ESBCircuitFailureCount,
			OpenTimeout:      cfg.ESBCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ESBCircuitHalfOpenMaxReq,
		},
	})

	collector := usecase.NewCollectorService(client, platformLogger)
	reconciler := usecase.NewReconcileService(
		collector,
		repos.locations,
		repos.tournaments,
		repos.teams,
		repos.matches,
		repos.players,
		repos.scans,
		repos.tx,
		usecase.ReconcileConfig{
			MatchRetention: cfg.MatchRetention,
			ScanRetention:  cfg.ScanLogRetention,
		},
		platformLogger,
	)

	scheduler, err := usecase.NewScheduler(reconciler, usecase.SchedulerConfig{
		Interval:          cfg.ScanInterval,
		RetentionInterval: cfg.RetentionInterval,
	}, platformLogger)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	browse := usecase.NewBrowseService(
		repos.locations,
		repos.tournaments,
		repos.teams,
		repos.matches,
		repos.players,
		repos.scans,
	)

	handler := httpapi.NewHandler(browse, scheduler, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:    server,
		Scheduler: scheduler,
		db:        db,
		logger:    logger,
	}, nil
}

// Start launches the background scan loop. The HTTP server is started
// by the caller so it controls the listen error path.
func (a *App) Start(ctx context.Context) {
	a.Scheduler.Start(ctx)
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("close db: %w", err)
		}
	}
	return nil
}

func buildRepositories(cfg config.Config, logger *slog.Logger) (*sqlx.DB, repositories, error) {
	if cfg.DBURL == "" {
		logger.Info("db url not set, using in-memory repositories")
		matches := memory.NewMatchRepository()
		players := memory.NewPlayerRepository()
		return nil, repositories{
			locations:   memory.NewLocationRepository(),
			tournaments: memory.NewTournamentRepository(),
			teams:       memory.NewTeamRepository(),
			matches:     matches,
			players:     players,
			scans:       memory.NewScanLogRepository(),
			tx:          memory.NewTxRunner(matches, players),
		}, nil
	}

	db, err := sqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary))
	if err != nil {
		return nil, repositories{}, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, repositories{}, fmt.Errorf("ping db: %w", err)
	}

	return db, repositories{
		locations:   postgres.NewLocationRepository(db),
		tournaments: postgres.NewTournamentRepository(db),
		teams:       postgres.NewTeamRepository(db),
		matches:     postgres.NewMatchRepository(db),
		players:     postgres.NewPlayerRepository(db),
		scans:       postgres.NewScanLogRepository(db),
		tx:          postgres.NewTxRunner(db),
	}, nil
}
