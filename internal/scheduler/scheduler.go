package scheduler

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"rentalmap/internal/dashboard"
)

// JobType represents the kinds of refresh jobs
type JobType int

const (
	JobTypeStartup JobType = iota
	JobTypePeriodic
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeStartup:
		return "startup"
	case JobTypePeriodic:
		return "periodic"
	default:
		return "unknown"
	}
}

// Refresher reloads the catalog
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs a catalog refresh at startup and then on a fixed interval
type Scheduler struct {
	refresher    Refresher
	interval     time.Duration
	logger       *logrus.Logger
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	jobMutex     sync.Mutex  // Ensures sequential job execution
	isStartupRun atomic.Bool // Tracks whether we're in startup run
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewScheduler creates a new scheduler. A zero interval runs only the
// startup refresh.
func NewScheduler(refresher Refresher, interval time.Duration, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.isStartupRun.Store(true)
	return s
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

// runScheduler handles all scheduled tasks
func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	// Run the startup job in a separate goroutine so the ticker starts on time
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.jobMutex.Lock()
		defer s.jobMutex.Unlock()
		s.logger.Info("Running startup refresh")
		s.runJob(JobTypeStartup)
		s.isStartupRun.Store(false)
		s.logger.Info("Startup refresh completed")
	}()

	if s.interval <= 0 {
		s.logger.Info("Periodic refresh disabled")
		<-s.stopChan
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case t := <-ticker.C:
			s.executeScheduledJobs(t)
		}
	}
}

// executeScheduledJobs runs the periodic refresh for the given tick
func (s *Scheduler) executeScheduledJobs(t time.Time) {
	// Skip if we're still running the startup job
	if s.isStartupRun.Load() {
		s.logger.Debug("Skipping scheduled refresh while startup is in progress")
		return
	}

	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	s.logger.WithField("tick", t.Format(time.RFC3339)).Debug("Running scheduled refresh")
	s.runJob(JobTypePeriodic)
}

func (s *Scheduler) runJob(job JobType) {
	fields := logrus.Fields{"job_type": job.String()}
	s.logger.WithFields(fields).Info("Starting refresh job")

	err := s.refresher.Refresh(s.ctx)
	switch {
	case err == nil:
		s.logger.WithFields(fields).Info("Refresh job completed successfully")
	case errors.Is(err, dashboard.ErrRefreshInProgress):
		s.logger.WithFields(fields).Info("Refresh already running, skipping job")
	case s.ctx.Err() != nil:
		s.logger.WithFields(fields).Info("Refresh job cancelled")
	default:
		s.logger.WithError(err).WithFields(fields).Error("Refresh job failed")
	}
}

// Stop cancels a running refresh and waits for the scheduler to exit
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		close(s.stopChan)
	})
	s.wg.Wait()
}
