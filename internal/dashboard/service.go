package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rentalmap/internal/cache"
	"rentalmap/internal/filter"
	"rentalmap/internal/geometry"
	"rentalmap/internal/loader"
	"rentalmap/internal/models"
	"rentalmap/internal/stats"
)

// ErrRefreshInProgress is returned when a refresh is requested while one is running
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Recorder receives working-set and cache measurements
type Recorder interface {
	SetLoaded(n int)
	CacheHit()
	CacheMiss()
}

type nopRecorder struct{}

func (nopRecorder) SetLoaded(int) {}
func (nopRecorder) CacheHit()     {}
func (nopRecorder) CacheMiss()    {}

type Options struct {
	TopN          int
	CellPrecision uint
}

// Status describes the published working set and the refresh state
type Status struct {
	Loaded      int        `json:"loaded"`
	Total       int        `json:"total"`
	HasMore     bool       `json:"has_more"`
	Complete    bool       `json:"complete"`
	Page        int        `json:"page"`
	Version     uint64     `json:"version"`
	Refreshing  bool       `json:"refreshing"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// Service owns the published working set and answers dashboard queries
// against it. Queries may run concurrently with a refresh.
type Service struct {
	loader   *loader.Loader
	resolver *geometry.Resolver
	cache    cache.Cache
	recorder Recorder
	opts     Options
	logger   *logrus.Logger
	// instance scopes cache keys; versions restart with every process
	instance string

	mu          sync.RWMutex
	state       models.LoadState
	byID        map[string]int
	version     uint64
	hasComplete bool
	lastRefresh time.Time
	lastErr     error

	refreshing atomic.Bool
	background sync.WaitGroup
}

func NewService(l *loader.Loader, resolver *geometry.Resolver, c cache.Cache, recorder Recorder, opts Options, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if c == nil {
		c = cache.NopCache{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if opts.CellPrecision == 0 {
		opts.CellPrecision = stats.DefaultCellPrecision
	}

	return &Service{
		loader:   l,
		resolver: resolver,
		cache:    c,
		recorder: recorder,
		opts:     opts,
		logger:   logger,
		instance: uuid.NewString(),
		byID:     make(map[string]int),
	}
}

// Refresh runs a full load session. Until the first session completes,
// every intermediate snapshot is published so the dashboard fills in
// progressively. Later sessions replace the working set only once they
// finish. A failed session keeps whatever was last published.
func (s *Service) Refresh(ctx context.Context) error {
	if !s.refreshing.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer s.refreshing.Store(false)
	return s.refresh(ctx)
}

// StartRefresh runs Refresh in the background. ctx must outlive the caller
// when the caller is a request handler.
func (s *Service) StartRefresh(ctx context.Context) error {
	if !s.refreshing.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer s.refreshing.Store(false)
		if err := s.refresh(ctx); err != nil {
			s.logger.WithError(err).Error("Background refresh failed")
		}
	}()
	return nil
}

// Wait blocks until background refreshes have returned
func (s *Service) Wait() {
	s.background.Wait()
}

func (s *Service) refresh(ctx context.Context) error {
	start := time.Now()
	s.logger.Info("Starting catalog refresh")

	s.mu.RLock()
	progressive := !s.hasComplete
	s.mu.RUnlock()

	onProgress := func(state models.LoadState) {
		if progressive && !state.Complete() {
			s.publish(state, nil)
		}
	}

	state, err := s.loader.Run(ctx, onProgress)
	if err != nil {
		if progressive {
			s.publish(state, err)
		} else {
			s.recordError(err)
		}
		return fmt.Errorf("failed to refresh catalog: %w", err)
	}

	s.publish(state, nil)
	s.logger.WithFields(logrus.Fields{
		"loaded":   state.Loaded,
		"total":    state.Total,
		"duration": time.Since(start).String(),
	}).Info("Catalog refresh finished")
	return nil
}

func (s *Service) publish(state models.LoadState, err error) {
	byID := make(map[string]int, len(state.Properties))
	for i, p := range state.Properties {
		byID[p.ID] = i
	}

	s.mu.Lock()
	s.state = state
	s.byID = byID
	s.version++
	s.lastErr = err
	if state.Complete() && err == nil {
		s.hasComplete = true
		s.lastRefresh = time.Now()
	}
	s.mu.Unlock()

	s.recorder.SetLoaded(state.Loaded)
}

func (s *Service) recordError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Service) snapshot() ([]models.Property, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Properties, s.version
}

// Status reports the published working set
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Loaded:     s.state.Loaded,
		Total:      s.state.Total,
		HasMore:    s.state.HasMore,
		Complete:   s.hasComplete && s.state.Complete(),
		Page:       s.state.Page,
		Version:    s.version,
		Refreshing: s.refreshing.Load(),
	}
	if !s.lastRefresh.IsZero() {
		t := s.lastRefresh
		st.LastRefresh = &t
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Property looks a property up in the published working set
func (s *Service) Property(id string) (models.Property, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return models.Property{}, false
	}
	return s.state.Properties[i], true
}

// Properties returns the published properties matching spec
func (s *Service) Properties(spec models.FilterSpec) []models.Property {
	properties, _ := s.snapshot()
	return filter.Apply(properties, spec, s.resolver)
}

// Summary filters the working set and aggregates it by groupBy. Results
// are cached per snapshot version.
func (s *Service) Summary(ctx context.Context, spec models.FilterSpec, groupBy stats.GroupBy) map[string]models.GroupStats {
	properties, version := s.snapshot()
	return s.summarize(ctx, properties, version, spec, groupBy, false)
}

func (s *Service) summarize(ctx context.Context, properties []models.Property, version uint64, spec models.FilterSpec, groupBy stats.GroupBy, seedDistricts bool) map[string]models.GroupStats {
	key := fmt.Sprintf("summary:%s:v%d:%s:seed=%t:%s", s.instance, version, groupBy, seedDistricts, filter.Key(spec))

	var cached map[string]models.GroupStats
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Summary cache read failed")
	}
	if found && err == nil {
		s.recorder.CacheHit()
		return cached
	}
	s.recorder.CacheMiss()

	filtered := filter.Apply(properties, spec, s.resolver)
	result := stats.Summarize(filtered, groupBy, stats.Options{
		TopN:          s.opts.TopN,
		CellPrecision: s.opts.CellPrecision,
		SeedDistricts: seedDistricts,
		Districts:     s.resolver,
	})

	if err := s.cache.Set(ctx, key, result); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Summary cache write failed")
	}
	return result
}

// Districts returns the district table, optionally narrowed to one region,
// with each district's summary over the properties matching spec
func (s *Service) Districts(ctx context.Context, spec models.FilterSpec, region models.Region) []models.District {
	properties, version := s.snapshot()
	summaries := s.summarize(ctx, properties, version, spec, stats.GroupByDistrict, true)

	var districts []models.District
	if region == "" {
		districts = s.resolver.Districts()
	} else {
		districts = s.resolver.ByRegion(region)
	}

	for i := range districts {
		if gs, ok := summaries[fmt.Sprint(districts[i].ID)]; ok {
			districts[i].Summary = &gs
		}
	}
	return districts
}

// Lookup returns the district containing a coordinate
func (s *Service) Lookup(lat, lng float64) (models.District, bool) {
	return s.resolver.DistrictContaining(lat, lng)
}

// Resolver exposes the district resolver used for filtering
func (s *Service) Resolver() *geometry.Resolver {
	return s.resolver
}
