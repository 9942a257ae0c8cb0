package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"propwatch/config"
	"propwatch/models"
	"propwatch/scraper"
	"propwatch/services"
	"propwatch/storage"
)

// IngestWorker walks each configured target's result pages, extracts the raw
// payloads, and feeds them through the ingest pipeline one page at a time.
type IngestWorker struct {
	cfg      *config.Config
	store    storage.Store
	ingest   *services.IngestService
	fetcher  scraper.Fetcher
	archiver storage.PageArchiver

	triggerCh chan struct{}

	// One lock per target so a slow scheduled run and a manual trigger never
	// interleave pages of the same target.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewIngestWorker creates a new ingest worker. The archiver may be nil.
func NewIngestWorker(cfg *config.Config, store storage.Store, ingest *services.IngestService, fetcher scraper.Fetcher, archiver storage.PageArchiver) *IngestWorker {
	return &IngestWorker{
		cfg:       cfg,
		store:     store,
		ingest:    ingest,
		fetcher:   fetcher,
		archiver:  archiver,
		triggerCh: make(chan struct{}, 1),
		locks:     make(map[string]*sync.Mutex),
	}
}

// Trigger requests an immediate run of all targets
func (w *IngestWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled, executing a full pass whenever triggered
func (w *IngestWorker) Run(ctx context.Context) {
	for {
		select {
		case <-w.triggerCh:
			if err := w.RunAll(ctx); err != nil {
				log.Printf("Ingest run error: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// RunAll runs every configured target in sequence
func (w *IngestWorker) RunAll(ctx context.Context) error {
	for id, target := range w.cfg.Targets {
		if err := w.RunTarget(ctx, target); err != nil {
			log.Printf("Target %s failed: %v", id, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// RunTarget executes one full pass over a target's pages, recording a run row
// with page and record counters. Page-level failures are logged and counted;
// a storage failure aborts the run and marks it failed.
func (w *IngestWorker) RunTarget(ctx context.Context, target *config.TargetConfig) error {
	lock := w.targetLock(target.ID)
	lock.Lock()
	defer lock.Unlock()

	run := &models.IngestRun{
		Target:    target.ID,
		StartedAt: time.Now().UTC(),
		Status:    models.RunStatusRunning,
	}
	if err := w.store.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	log.Printf("Starting ingest run %d for %s (%d pages)", run.ID, target.Name, target.Pages)
	runErr := w.walkPages(ctx, target, run)

	now := time.Now().UTC()
	run.FinishedAt = &now
	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.ErrorMessage = runErr.Error()
	} else {
		run.Status = models.RunStatusCompleted
	}
	if err := w.store.UpdateRun(ctx, run); err != nil {
		log.Printf("Error updating run %d: %v", run.ID, err)
	}

	log.Printf("Run %d finished: %d pages fetched, %d failed, %d records, %d new, %d changes",
		run.ID, run.PagesFetched, run.PagesFailed, run.RecordsSeen, run.PropertiesNew, run.ChangesLogged)
	return runErr
}

func (w *IngestWorker) walkPages(ctx context.Context, target *config.TargetConfig, run *models.IngestRun) error {
	delay := time.Duration(target.DelayMS) * time.Millisecond
	if delay == 0 {
		delay = time.Duration(w.cfg.Ingest.DelayMS) * time.Millisecond
	}

	for page := 1; page <= target.Pages; page++ {
		if page > 1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		url := pageURL(target.PageURL, page)
		body, err := w.fetcher.FetchPage(ctx, url)
		if err != nil {
			run.PagesFailed++
			w.logRun(ctx, run, models.LogLevelWarn, fmt.Sprintf("page %d: %v", page, err), target.ID)

			var pageErr *scraper.PageError
			if errors.As(err, &pageErr) && pageErr.Kind == scraper.ErrKindBlocked {
				// Once the source starts blocking, the rest of the pass is
				// wasted requests.
				return fmt.Errorf("blocked on page %d: %w", page, err)
			}
			continue
		}
		run.PagesFetched++

		if w.archiver != nil {
			if err := w.archiver.ArchivePage(ctx, target.ID, run.ID, page, body); err != nil {
				log.Printf("Warning: failed to archive page %d: %v", page, err)
			}
		}

		payloads, err := scraper.ExtractPayloads(body)
		if err != nil {
			run.PagesFailed++
			w.logRun(ctx, run, models.LogLevelWarn, fmt.Sprintf("page %d: %v", page, err), target.ID)
			continue
		}
		if len(payloads) == 0 {
			// An empty page means we walked past the last result.
			w.logRun(ctx, run, models.LogLevelInfo, fmt.Sprintf("page %d empty, stopping", page), target.ID)
			return nil
		}

		result, err := w.ingest.ProcessBatch(ctx, payloads)
		if err != nil {
			w.logRun(ctx, run, models.LogLevelError, fmt.Sprintf("page %d: %v", page, err), target.ID)
			return fmt.Errorf("process page %d: %w", page, err)
		}

		run.RecordsSeen += result.RecordsSeen
		run.RecordsSkipped += result.RecordsSkipped
		run.PropertiesNew += result.PropertiesNew
		run.ChangesLogged += result.ChangesLogged
	}
	return nil
}

func (w *IngestWorker) logRun(ctx context.Context, run *models.IngestRun, level models.LogLevel, msg, target string) {
	if err := w.store.AppendRunLog(ctx, &run.ID, level, msg, target); err != nil {
		log.Printf("Error appending run log: %v", err)
	}
}

func (w *IngestWorker) targetLock(id string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	lock, ok := w.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[id] = lock
	}
	return lock
}

func pageURL(template string, page int) string {
	return strings.ReplaceAll(template, "{page}", strconv.Itoa(page))
}
