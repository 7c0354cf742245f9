package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/basketball-olympics/brackets"
	"github.com/Dosada05/basketball-olympics/config"
	"github.com/Dosada05/basketball-olympics/db"
	"github.com/Dosada05/basketball-olympics/engine"
	"github.com/Dosada05/basketball-olympics/fixtures"
	"github.com/Dosada05/basketball-olympics/handlers"
	"github.com/Dosada05/basketball-olympics/report"
	"github.com/Dosada05/basketball-olympics/repositories"
	api "github.com/Dosada05/basketball-olympics/routes"
	"github.com/Dosada05/basketball-olympics/services"
	"github.com/Dosada05/basketball-olympics/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const (
	exitFailure   = 1
	exitUsage     = 2
	exitInputData = 3
)

const usage = `Usage: olympics [flags] [run|batch|serve]

  run    simulate one tournament and print the report (default)
  batch  simulate many tournaments and print the medal table
  serve  start the HTTP API with the live websocket feed

Flags:
`

type options struct {
	mode    string
	seed    int64
	dataDir string
	runs    int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitUsage
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	var logger *slog.Logger
	if opts.mode == "serve" {
		logger = slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	} else {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	}
	slog.SetDefault(logger)

	data, err := fixtures.Load(opts.dataDir)
	if err != nil {
		logger.Error("failed to load fixtures", slog.String("data_dir", opts.dataDir), slog.Any("error", err))
		return exitInputData
	}

	settings := services.SimulationSettings{
		Engine: engine.Settings{
			Quarters:             engine.DefaultSettings().Quarters,
			BasePointsPerQuarter: cfg.PointsPerQuarter,
			ForfeitChance:        cfg.ForfeitChance,
		},
		Start: cfg.TournamentStart,
	}

	switch opts.mode {
	case "run":
		err = runOnce(data, settings, opts.seed, stdout, logger)
	case "batch":
		err = runBatch(data, settings, cfg.BatchWorkers, opts, stdout, logger)
	case "serve":
		err = serve(cfg, data, settings, logger)
	}
	if err != nil {
		logger.Error("simulation failed", slog.String("mode", opts.mode), slog.Any("error", err))
		if services.IsInputError(err) {
			return exitInputData
		}
		return exitFailure
	}
	return 0
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("olympics", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	opts := options{mode: "run"}
	fs.Int64Var(&opts.seed, "seed", cfg.Seed, "random seed; 0 seeds from the clock")
	fs.StringVar(&opts.dataDir, "data", cfg.DataDir, "directory with groups.json and exibitions.json; empty uses the bundled fixtures")
	fs.IntVar(&opts.runs, "runs", cfg.BatchRuns, "number of tournaments in batch mode")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		opts.mode = fs.Arg(0)
	default:
		return opts, fmt.Errorf("expected at most one mode, got %v", fs.Args())
	}
	switch opts.mode {
	case "run", "batch", "serve":
	default:
		return opts, fmt.Errorf("unknown mode %q: want run, batch or serve", opts.mode)
	}
	if opts.runs <= 0 || opts.runs > services.MaxBatchRuns {
		return opts, fmt.Errorf("-runs must be between 1 and %d, got %d", services.MaxBatchRuns, opts.runs)
	}
	if opts.seed == 0 {
		opts.seed = time.Now().UnixNano()
	}
	return opts, nil
}

func runOnce(data *fixtures.Data, settings services.SimulationSettings, seed int64, stdout io.Writer, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tournaments := services.NewTournamentService(data, settings, nil, logger)
	result, err := tournaments.Simulate(ctx, "cli", seed)
	if err != nil {
		return err
	}
	logger.Info("tournament finished", slog.Int64("seed", seed), slog.Int("games", len(result.Games)))
	return report.Write(stdout, result)
}

func runBatch(data *fixtures.Data, settings services.SimulationSettings, workers int, opts options, stdout io.Writer, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tournaments := services.NewTournamentService(data, settings, nil, logger)
	batches := services.NewBatchService(tournaments, workers, logger)

	started := time.Now()
	tally, err := batches.RunBatch(ctx, opts.runs, opts.seed)
	if err != nil {
		return err
	}
	logger.Info("batch finished",
		slog.Int("runs", tally.Runs),
		slog.Int64("seed", opts.seed),
		slog.Duration("elapsed", time.Since(started)),
	)
	return report.MedalTable(stdout, tally)
}

func serve(cfg *config.Config, data *fixtures.Data, settings services.SimulationSettings, logger *slog.Logger) error {
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	var (
		dbConn  *sql.DB
		runRepo repositories.RunRepository
	)
	if cfg.DatabaseURL != "" {
		conn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			if err := conn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		}()
		if err := db.Migrate(conn, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		dbConn = conn
		runRepo = repositories.NewPostgresRunRepository(conn)
		logger.Info("run archive enabled")
	} else {
		logger.Info("DATABASE_URL not set, run archive disabled")
	}

	var uploader storage.FileUploader
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Enabled() {
		u, err := storage.NewCloudflareR2Uploader(context.Background(), r2Config)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		uploader = u
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	tournamentService := services.NewTournamentService(data, settings, wsHub, logger)
	batchService := services.NewBatchService(tournamentService, cfg.BatchWorkers, logger)
	var reportService services.ReportService
	if uploader != nil {
		reportService = services.NewReportService(uploader, logger)
	}
	simulationService := services.NewSimulationService(tournamentService, batchService, reportService, runRepo, dbConn, logger)

	simulationHandler := handlers.NewSimulationHandler(simulationService, cfg.BatchRuns, logger)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, simulationHandler, webSocketHandler, cfg.JWTSecretKey)
	if cfg.JWTSecretKey == "" {
		logger.Warn("JWT_SECRET_KEY not set, every endpoint is public")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
	}

	// Background runs still write to the archive; let them land before the
	// database connection closes.
	logger.Info("waiting for running simulations")
	simulationService.Wait()
	logger.Info("application exited")
	return nil
}
