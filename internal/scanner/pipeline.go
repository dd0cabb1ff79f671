// Package scanner runs the per-page scan pipeline: it hands a page
// image to the vision extraction client, validates and aggregates the
// extracted rows, records the result, and accumulates the page's
// minutes onto the student record. Row and page findings stay local to
// the result; only extraction failures are terminal for a page.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jsalter/lplate/internal/extraction"
	"github.com/jsalter/lplate/internal/logbook"
	"github.com/jsalter/lplate/pkg/logger"
)

// Clock abstracts time.Now() so future-date row checks are
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock with the standard time package.
type RealClock struct{}

// Now returns the current UTC time.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Extractor is the single external collaborator: one request/response
// round trip per page image.
type Extractor interface {
	ExtractPage(ctx context.Context, image []byte, mimeType string) (*extraction.Payload, error)
}

// Store persists completed page scans and folds their minutes into the
// student's stored totals.
type Store interface {
	RecordPageScan(studentID string, page *logbook.PageScanResult) error
	ApplyScannedMinutes(studentID string, pageType logbook.PageType, minutes int) error
}

// Config represents the configuration for the scan pipeline
type Config struct {
	Workers        int
	QueueSize      int
	MaxImageBytes  int64
	JobTTL         time.Duration
	CleanupMinutes int
}

// Pipeline owns the scan queue, the workers draining it, and the job
// registry clients poll for progress.
type Pipeline struct {
	extractor Extractor
	store     Store
	jobs      *JobStore
	queue     chan *Job
	rules     logbook.Rules
	clock     Clock
	config    Config
	logger    *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPipeline creates a new scan pipeline
func NewPipeline(extractor Extractor, store Store, rules logbook.Rules, config Config, clock Clock, logger *logger.Logger) *Pipeline {
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 32
	}
	if config.MaxImageBytes <= 0 {
		config.MaxImageBytes = 10 << 20
	}
	if config.JobTTL <= 0 {
		config.JobTTL = time.Hour
	}
	if config.CleanupMinutes <= 0 {
		config.CleanupMinutes = 5
	}
	if clock == nil {
		clock = RealClock{}
	}

	return &Pipeline{
		extractor: extractor,
		store:     store,
		jobs:      NewJobStore(config.JobTTL),
		queue:     make(chan *Job, config.QueueSize),
		rules:     rules,
		clock:     clock,
		config:    config,
		logger:    logger.Named("scan-pipeline"),
	}
}

// Start launches the worker goroutines and the job store janitor.
func (p *Pipeline) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("Starting scan pipeline",
		logger.Int("workers", p.config.Workers),
		logger.Int("queue_size", p.config.QueueSize))

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-p.queue:
					if !ok {
						return
					}
					p.process(workerCtx, job)
				}
			}
		}()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(time.Duration(p.config.CleanupMinutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				p.jobs.Cleanup()
			}
		}
	}()
}

// Stop drains the pipeline and waits for in-flight pages.
func (p *Pipeline) Stop() {
	p.logger.Info("Stopping scan pipeline")
	if p.cancel != nil {
		p.cancel()
	}
	close(p.queue)
	p.wg.Wait()
}

// Submit queues one page image for scanning and returns the job to
// poll. The queue being full is the caller's problem to retry.
func (p *Pipeline) Submit(studentID string, image []byte, mimeType string) (*Job, error) {
	if int64(len(image)) > p.config.MaxImageBytes {
		return nil, fmt.Errorf("page image of %d bytes exceeds the %d byte limit", len(image), p.config.MaxImageBytes)
	}

	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Stage:     StageQueued,
		CreatedAt: now,
		UpdatedAt: now,
		image:     image,
		mimeType:  mimeType,
	}
	p.jobs.Put(job)

	select {
	case p.queue <- job:
		return job, nil
	default:
		return nil, fmt.Errorf("scan queue is full")
	}
}

// GetJob returns the job with the given ID, or nil.
func (p *Pipeline) GetJob(id string) *Job {
	return p.jobs.Get(id)
}

// process runs one page through the pipeline stages.
func (p *Pipeline) process(ctx context.Context, job *Job) {
	job.SetStage(StagePreparing)
	if len(job.image) == 0 {
		job.Fail(fmt.Errorf("no page image supplied"))
		return
	}

	job.SetStage(StageExtracting)
	payload, err := p.extractor.ExtractPage(ctx, job.image, job.mimeType)
	if err != nil {
		// An unusable extraction response fails the whole page; it is
		// never downgraded to a row finding.
		p.logger.Error("Page extraction failed",
			logger.String("job_id", job.ID),
			logger.String("student_id", job.StudentID),
			logger.Error(err))
		job.Fail(err)
		return
	}

	job.SetStage(StageValidating)
	today := p.clock.Now()
	rows := make([]logbook.ValidatedRow, 0, len(payload.Entries))
	for _, entry := range payload.Entries {
		rows = append(rows, logbook.ValidateRow(entry, today, p.rules))
	}
	page := logbook.AggregatePage(payload.PageType, payload.PageNumber, rows, payload.Subtotal, p.rules)
	page.Notes = payload.PageNotes

	if err := p.store.RecordPageScan(job.StudentID, &page); err != nil {
		p.logger.Error("Failed to record page scan",
			logger.String("job_id", job.ID),
			logger.Error(err))
		job.Fail(fmt.Errorf("record page scan: %w", err))
		return
	}
	if err := p.store.ApplyScannedMinutes(job.StudentID, page.PageType, page.TotalMinutes); err != nil {
		p.logger.Error("Failed to apply scanned minutes",
			logger.String("job_id", job.ID),
			logger.Error(err))
		job.Fail(fmt.Errorf("apply scanned minutes: %w", err))
		return
	}

	p.logger.Info("Page scan complete",
		logger.String("job_id", job.ID),
		logger.String("student_id", job.StudentID),
		logger.String("page_type", string(page.PageType)),
		logger.Int("entries", page.EntryCount),
		logger.Int("valid", page.ValidCount),
		logger.Int("total_minutes", page.TotalMinutes))

	job.Complete(&page)
}
