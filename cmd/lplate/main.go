package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsalter/lplate/internal/api"
	"github.com/jsalter/lplate/internal/config"
	"github.com/jsalter/lplate/internal/extraction"
	"github.com/jsalter/lplate/internal/logbook"
	"github.com/jsalter/lplate/internal/scanner"
	"github.com/jsalter/lplate/internal/storage/sqlite"
	"github.com/jsalter/lplate/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	rules, err := buildRules(cfg.Scanner)
	if err != nil {
		log.Error("Invalid scanner rules", logger.Error(err))
		os.Exit(1)
	}

	db, err := sqlite.Open(cfg.Storage.SQLitePath, log)
	if err != nil {
		log.Error("Failed to open database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	students := sqlite.NewStudentStorage(db, log)
	scans := sqlite.NewScanStorage(db, log)

	extractor := extraction.NewClient(extraction.Config{
		APIKey:         cfg.OpenAI.APIKey,
		Model:          cfg.OpenAI.Model,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
		MaxTokens:      cfg.OpenAI.MaxTokens,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline := scanner.NewPipeline(extractor, scanStore{students: students, scans: scans}, rules, scanner.Config{
		Workers:       cfg.Scanner.Workers,
		QueueSize:     cfg.Scanner.QueueSize,
		MaxImageBytes: int64(cfg.Scanner.MaxImageMB) << 20,
		JobTTL:        time.Duration(cfg.Scanner.JobTTLMinutes) * time.Minute,
	}, scanner.RealClock{}, log)
	pipeline.Start(ctx)

	router := api.NewRouter(students, scans, pipeline, cfg, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("Shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", logger.Error(err))
		}

		pipeline.Stop()
		cancel()
	}()

	log.Info("Starting lplate",
		logger.String("addr", server.Addr),
		logger.String("db", cfg.Storage.SQLitePath),
		logger.String("model", cfg.OpenAI.Model))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("Server error", logger.Error(err))
		os.Exit(1)
	}
}

// buildRules converts the config thresholds into the validator's rule
// set, parsing the plausible-date floor.
func buildRules(sc config.ScannerConfig) (logbook.Rules, error) {
	rules := logbook.DefaultRules()
	rules.MaxSessionHours = sc.MaxSessionHours
	rules.MinSessionMinutes = sc.MinSessionMinutes
	rules.MaxDailyHours = sc.MaxDailyHours

	if sc.EarliestPlausibleDate != "" {
		earliest, err := time.Parse("2006-01-02", sc.EarliestPlausibleDate)
		if err != nil {
			return logbook.Rules{}, fmt.Errorf("invalid earliest_plausible_date: %w", err)
		}
		rules.EarliestPlausibleDate = earliest
	}
	return rules, nil
}

// scanStore adapts the two storages to the pipeline's Store interface.
type scanStore struct {
	students *sqlite.StudentStorage
	scans    *sqlite.ScanStorage
}

func (s scanStore) RecordPageScan(studentID string, page *logbook.PageScanResult) error {
	return s.scans.RecordPageScan(studentID, page)
}

func (s scanStore) ApplyScannedMinutes(studentID string, pageType logbook.PageType, minutes int) error {
	return s.students.ApplyScannedMinutes(studentID, pageType, minutes)
}
