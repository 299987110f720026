package processor

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rentalmap/config"
	"rentalmap/internal/database"
	"rentalmap/internal/models"
	"rentalmap/internal/queue"
)

// Transactor is the part of *gorm.DB the processor needs
type Transactor interface {
	Transaction(fc func(*gorm.DB) error, opts ...*sql.TxOptions) error
}

// Recorder receives per-batch outcomes
type Recorder interface {
	BatchImported(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) BatchImported(bool) {}

// Result summarises one import run
type Result struct {
	Batches  int `json:"batches"`
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// BatchProcessor upserts property batches taken from the queue
type BatchProcessor struct {
	db       Transactor
	logger   *logrus.Logger
	config   *config.Config
	queue    *queue.PropertyQueue
	recorder Recorder
	ctx      context.Context
	cancel   context.CancelFunc

	batches  atomic.Int64
	imported atomic.Int64
	failed   atomic.Int64
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, queue *queue.PropertyQueue, config *config.Config, recorder Recorder, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:       db,
		queue:    queue,
		config:   config,
		recorder: recorder,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the queue and begins processing batches
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(p.processBatch)
	p.queue.Start()
}

// Stop aborts pending retries. Batches still queued fail fast.
func (p *BatchProcessor) Stop() {
	p.cancel()
}

// Import splits records into batches, queues them and waits until every
// batch has been processed. The queue is closed afterwards.
func (p *BatchProcessor) Import(ctx context.Context, records []*models.Property) (Result, error) {
	size := p.config.BatchProcessing.MaxBatchSize
	if size < 1 {
		size = 1
	}

	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		if err := p.queue.Push(ctx, records[start:end]); err != nil {
			_ = p.queue.Close()
			return p.Result(), fmt.Errorf("failed to queue batch at record %d: %w", start, err)
		}
	}

	if err := p.queue.Close(); err != nil {
		return p.Result(), err
	}
	if err := p.queue.Wait(ctx); err != nil {
		return p.Result(), fmt.Errorf("failed waiting for import to finish: %w", err)
	}

	result := p.Result()
	p.logger.WithFields(logrus.Fields{
		"batches":  result.Batches,
		"imported": result.Imported,
		"failed":   result.Failed,
	}).Info("Seed import finished")
	return result, nil
}

// Result returns the counters accumulated so far
func (p *BatchProcessor) Result() Result {
	return Result{
		Batches:  int(p.batches.Load()),
		Imported: int(p.imported.Load()),
		Failed:   int(p.failed.Load()),
	}
}

// processBatch handles a single batch of properties with transaction and retry logic
func (p *BatchProcessor) processBatch(batch []*models.Property) error {
	p.batches.Add(1)
	maxRetries := p.config.BatchProcessing.MaxRetries

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, maxRetries)
			select {
			case <-p.ctx.Done():
				return p.fail(batch, fmt.Errorf("batch processing stopped: %w", p.ctx.Err()))
			case <-time.After(p.config.BatchProcessing.RetryDelay):
			}
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := database.UpsertProperties(tx, batch); err != nil {
				return fmt.Errorf("failed to upsert properties batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.imported.Add(int64(len(batch)))
			p.recorder.BatchImported(true)
			p.logger.Infof("Successfully processed batch of %d properties", len(batch))
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return p.fail(batch, fmt.Errorf("failed to process batch after %d attempts: %w", maxRetries+1, err))
}

func (p *BatchProcessor) fail(batch []*models.Property, err error) error {
	p.failed.Add(int64(len(batch)))
	p.recorder.BatchImported(false)
	return err
}
