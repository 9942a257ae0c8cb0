package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"propwatch/config"
	"propwatch/identity"
	"propwatch/logging"
	"propwatch/scheduler"
	"propwatch/scraper"
	"propwatch/services"
	"propwatch/storage"
	"propwatch/workers"
)

var (
	ingestNow   = flag.Bool("ingest", false, "Run one ingest pass over all targets and exit")
	reportState = flag.String("report", "", "Print the change report for a state abbreviation and exit")
	reportYear  = flag.Int("year", 0, "Year for -report (defaults to the current year)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logPath := cfg.LogPath
	if logPath == "" {
		logPath = "propwatch.log"
	}
	logFile, err := logging.Setup(logPath, 0)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting propwatch...")
	log.Printf("Loaded %d target configs", len(cfg.Targets))
	for id, target := range cfg.Targets {
		log.Printf("  - %s (%s)", target.Name, id)
	}

	strategy, err := identity.ParseStrategy(cfg.IdentityStrategy)
	if err != nil {
		log.Fatalf("Bad config: %v", err)
	}

	ctx := context.Background()

	var store storage.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.DatabaseURL))
		store = pgStore
	} else {
		sqliteStore, err := storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open SQLite: %v", err)
		}
		log.Printf("SQLite database: %s", cfg.DBPath)
		store = sqliteStore
	}
	defer store.Close()

	ingestService := services.NewIngestService(store, strategy)
	reportService := services.NewReportService(store)

	if *reportState != "" {
		if err := printReport(ctx, reportService, *reportState, *reportYear); err != nil {
			log.Fatalf("Report failed: %v", err)
		}
		return
	}

	var archiver storage.PageArchiver
	if cfg.Archive.Bucket != "" {
		s3Archiver, err := storage.NewS3Archiver(ctx, storage.S3Config{
			Bucket:          cfg.Archive.Bucket,
			Region:          cfg.Archive.Region,
			Endpoint:        cfg.Archive.Endpoint,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
		})
		if err != nil {
			log.Fatalf("Failed to set up page archive: %v", err)
		}
		archiver = s3Archiver
		log.Printf("Archiving raw pages to %s", cfg.Archive.Bucket)
	}

	fetcher := scraper.NewHTTPFetcher(cfg.Ingest.FetchTimeout)
	worker := workers.NewIngestWorker(cfg, store, ingestService, fetcher, archiver)

	if *ingestNow {
		log.Println("Running ingest...")
		if err := worker.RunAll(ctx); err != nil {
			log.Fatalf("Ingest failed: %v", err)
		}
		log.Println("Ingest complete!")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go worker.Run(ctx)

	sched := scheduler.New(cfg, worker)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

func printReport(ctx context.Context, reports *services.ReportService, state string, year int) error {
	if year == 0 {
		years, err := reports.Years(ctx)
		if err != nil {
			return err
		}
		if len(years) == 0 {
			log.Println("No history recorded yet")
			return nil
		}
		y, err := parseYear(years[0])
		if err != nil {
			return err
		}
		year = y
	}

	events, err := reports.ChangeEvents(ctx, state, year)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

func parseYear(s string) (int, error) {
	return strconv.Atoi(s)
}

// maskConnectionString masks the password in a connection string for logging
func maskConnectionString(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}
