package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"sales-service/internal/metrics"
	"sales-service/internal/models"
	"sales-service/internal/parser"
	"sales-service/internal/repository"
)

const (
	DefaultRetries      = 0                      // Default retry attempts for failed batches
	MaxRetries          = 5                      // Maximum retry attempts
	DefaultRetryBackoff = 100 * time.Millisecond // First backoff, doubled per attempt

	// MaxReportedRowErrors caps the row errors carried in a report.
	// InvalidRows still counts every rejected row.
	MaxReportedRowErrors = 1000
)

// ImportInput is one uploaded file
type ImportInput struct {
	FileName string
	Format   models.ImportFormat
	Reader   io.Reader
}

// ImportOptions tunes batching and retries
type ImportOptions struct {
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
}

// EventPublisher notifies other services about finished imports
type EventPublisher interface {
	PublishImportCompleted(ctx context.Context, report *models.ImportReport) error
}

// CacheInvalidator drops cached analytics after new data lands
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// ImportService drives uploads through parsing, batching and persistence
type ImportService struct {
	sales     repository.SalesRepositoryInterface
	jobs      repository.ImportJobRepositoryInterface
	cache     CacheInvalidator
	publisher EventPublisher
	metrics   *metrics.Metrics
	opts      ImportOptions
	logger    *logrus.Entry
}

// NewImportService creates a new import service. cache, publisher and m may be nil.
func NewImportService(
	sales repository.SalesRepositoryInterface,
	jobs repository.ImportJobRepositoryInterface,
	cache CacheInvalidator,
	publisher EventPublisher,
	m *metrics.Metrics,
	opts ImportOptions,
	logger *logrus.Logger,
) *ImportService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = DefaultRetries
	}
	if opts.MaxRetries > MaxRetries {
		opts.MaxRetries = MaxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ImportService{
		sales:     sales,
		jobs:      jobs,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		opts:      opts,
		logger:    logger.WithField("component", "import-service"),
	}
}

// Import processes one upload batch by batch. The report is always returned,
// also alongside an error: an InputError or MalformedInputError for a bad
// file, or the context error when the request was cancelled. Batch failures
// are not errors; they are listed in the report.
func (s *ImportService) Import(ctx context.Context, input ImportInput) (*models.ImportReport, error) {
	startTime := time.Now()
	report := &models.ImportReport{
		ImportID: uuid.New(),
		FileName: input.FileName,
		Format:   input.Format,
		Status:   models.ImportStatusProcessing,
	}
	log := s.logger.WithFields(logrus.Fields{
		"importID": report.ImportID,
		"fileName": input.FileName,
	})

	job := &models.ImportJob{
		ID:       report.ImportID,
		FileName: input.FileName,
		Format:   input.Format,
		Status:   models.ImportStatusProcessing,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		log.WithError(err).Warn("Failed to create import job, continuing without job tracking")
		job = nil
	}

	runErr := s.run(ctx, input, report, log)
	s.finish(ctx, report, job, startTime, runErr, log)
	return report, runErr
}

func (s *ImportService) run(ctx context.Context, input ImportInput, report *models.ImportReport, log *logrus.Entry) error {
	reader, err := parser.Open(input.Format, input.Reader)
	if err != nil {
		return err
	}
	defer reader.Close()

	batcher := NewBatcher(reader, s.opts.BatchSize)
	defer func() { report.TotalRows = batcher.RowsRead() }()

	for {
		batch, err := batcher.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		report.TotalBatches++
		skipped := distinctLines(batch.RowErrors)
		report.InvalidRows += skipped
		for _, rowErr := range batch.RowErrors {
			if len(report.RowErrors) >= MaxReportedRowErrors {
				break
			}
			report.RowErrors = append(report.RowErrors, rowErr)
		}

		result := s.persistBatch(ctx, batch, skipped, log)
		report.BatchResults = append(report.BatchResults, result)
		s.metrics.ObserveBatch(result)

		switch {
		case result.Success && result.RowCount > 0:
			report.CommittedBatches++
			report.PersistedRows += result.RowCount
			report.Stats.Add(result.Stats)
		case !result.Success:
			report.FailedBatches++
			report.FailedRows += result.RowCount
			report.FailedLineRanges = append(report.FailedLineRanges, fmt.Sprintf("%d-%d", batch.StartLine, batch.EndLine))
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// persistBatch writes a batch, retrying with exponential backoff
func (s *ImportService) persistBatch(ctx context.Context, batch *models.Batch, skipped int, log *logrus.Entry) models.BatchResult {
	result := models.BatchResult{
		BatchNumber: batch.Number,
		StartLine:   batch.StartLine,
		EndLine:     batch.EndLine,
		RowCount:    len(batch.Records),
		SkippedRows: skipped,
	}
	if len(batch.Records) == 0 {
		result.Success = true
		return result
	}

	batchStart := time.Now()

	var err error
	attempts := 0
	for retry := 0; retry <= s.opts.MaxRetries; retry++ {
		result.RetryCount = retry
		attempts++

		var stats models.BatchStats
		stats, err = s.sales.UpsertBatch(ctx, batch.Records)
		if err == nil {
			result.Success = true
			result.Stats = stats
			result.DurationMs = time.Since(batchStart).Milliseconds()
			log.WithFields(logrus.Fields{
				"batch":   batch.Number,
				"rows":    len(batch.Records),
				"retries": retry,
			}).Debug("Batch committed")
			return result
		}
		if ctx.Err() != nil {
			break
		}

		log.WithFields(logrus.Fields{
			"batch":   batch.Number,
			"attempt": attempts,
		}).WithError(err).Warn("Batch transaction failed")

		// Wait before retry (exponential backoff)
		if retry < s.opts.MaxRetries {
			select {
			case <-ctx.Done():
			case <-time.After(s.opts.RetryBackoff * time.Duration(1<<retry)):
			}
		}
	}

	persistErr := &models.BatchPersistenceError{
		Batch:     batch.Number,
		StartLine: batch.StartLine,
		EndLine:   batch.EndLine,
		Attempts:  attempts,
		Err:       err,
	}
	log.WithError(persistErr).Error("Batch rolled back")
	result.Error = persistErr.Error()
	result.DurationMs = time.Since(batchStart).Milliseconds()
	return result
}

// finish stamps timings and status, saves the job and fans out side effects
func (s *ImportService) finish(ctx context.Context, report *models.ImportReport, job *models.ImportJob, startTime time.Time, runErr error, log *logrus.Entry) {
	if runErr != nil {
		report.Error = runErr.Error()
	}
	report.Status = report.ResolveStatus()
	report.ProcessingMs = time.Since(startTime).Milliseconds()
	if report.TotalBatches > 0 {
		report.AvgBatchMs = report.ProcessingMs / int64(report.TotalBatches)
	}

	// Side effects must not depend on the request still being alive
	sideCtx := context.WithoutCancel(ctx)

	if job != nil {
		applyReport(job, report)
		if err := s.jobs.Update(sideCtx, job); err != nil {
			log.WithError(err).Warn("Failed to update import job")
		}
	}

	s.metrics.ObserveImport(report)

	if report.CommittedBatches > 0 && s.cache != nil {
		if err := s.cache.InvalidateCache(sideCtx); err != nil {
			log.WithError(err).Warn("Failed to invalidate analytics cache")
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishImportCompleted(sideCtx, report); err != nil {
			log.WithError(err).Warn("Failed to publish import event")
		}
	}

	log.WithFields(logrus.Fields{
		"status":           report.Status,
		"totalRows":        report.TotalRows,
		"persistedRows":    report.PersistedRows,
		"invalidRows":      report.InvalidRows,
		"failedBatches":    report.FailedBatches,
		"processingMs":     report.ProcessingMs,
		"committedBatches": report.CommittedBatches,
	}).Info("Import finished")
}

// GetImport returns a persisted import job
func (s *ImportService) GetImport(ctx context.Context, id uuid.UUID) (*models.ImportJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// applyReport copies the report's outcome into the job row
func applyReport(job *models.ImportJob, report *models.ImportReport) {
	job.Status = report.Status
	job.TotalRows = report.TotalRows
	job.PersistedRows = report.PersistedRows
	job.InvalidRows = report.InvalidRows
	job.FailedRows = report.FailedRows
	job.TotalBatches = report.TotalBatches
	job.CommittedBatches = report.CommittedBatches
	job.FailedBatches = report.FailedBatches
	job.FailedLineRanges = report.FailedLineRanges
	job.ProcessingMs = report.ProcessingMs
	if report.Error != "" {
		msg := report.Error
		job.ErrorMessage = &msg
	}
	if data, err := json.Marshal(report.BatchResults); err == nil {
		job.BatchResults = datatypes.JSON(data)
	}
	if data, err := json.Marshal(report.RowErrors); err == nil {
		job.RowErrors = datatypes.JSON(data)
	}
	now := time.Now()
	job.CompletedAt = &now
}

func distinctLines(errs []models.RowValidationError) int {
	seen := make(map[int]struct{}, len(errs))
	for _, e := range errs {
		seen[e.Line] = struct{}{}
	}
	return len(seen)
}
