package loader

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"rentalmap/internal/catalog"
	"rentalmap/internal/models"
)

// Session outcomes reported to the Recorder
const (
	OutcomeComplete  = "complete"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Recorder receives per-page and per-session measurements
type Recorder interface {
	PageFetched(d time.Duration)
	StoreFailed()
	SessionFinished(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) PageFetched(time.Duration) {}
func (nopRecorder) StoreFailed()              {}
func (nopRecorder) SessionFinished(string)    {}

// Loader pulls the catalog page by page into an in-memory working set
type Loader struct {
	store    catalog.Store
	recorder Recorder
	logger   *logrus.Logger
}

func NewLoader(store catalog.Store, recorder Recorder, logger *logrus.Logger) *Loader {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Loader{store: store, recorder: recorder, logger: logger}
}

// LoadAll starts a new load session. Pages are requested strictly in order
// and a snapshot is yielded after each one. A failed page yields the last
// good snapshot together with a *catalog.StoreError and ends the session.
// Breaking out of the range or cancelling ctx stops further requests.
func (l *Loader) LoadAll(ctx context.Context) iter.Seq2[models.LoadState, error] {
	return func(yield func(models.LoadState, error) bool) {
		acc := newAccumulator()
		outcome := OutcomeCancelled
		defer func() { l.recorder.SessionFinished(outcome) }()

		for pageIndex := 0; ; pageIndex++ {
			if ctx.Err() != nil {
				return
			}

			start := time.Now()
			page, err := l.store.FetchPage(ctx, pageIndex)
			if err == nil {
				err = checkPage(page)
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
					return
				}
				outcome = OutcomeFailed
				l.recorder.StoreFailed()
				l.logger.WithFields(logrus.Fields{
					"page":   pageIndex,
					"loaded": acc.state.Loaded,
				}).WithError(err).Error("Catalog page fetch failed")
				yield(acc.snapshot(), &catalog.StoreError{Page: pageIndex, Err: err})
				return
			}
			l.recorder.PageFetched(time.Since(start))

			acc.add(pageIndex, page)
			l.logger.WithFields(logrus.Fields{
				"page":     pageIndex,
				"records":  len(page.Records),
				"loaded":   acc.state.Loaded,
				"total":    acc.state.Total,
				"has_more": acc.state.HasMore,
			}).Debug("Catalog page loaded")

			if !acc.state.HasMore {
				outcome = OutcomeComplete
			}
			if !yield(acc.snapshot(), nil) {
				return
			}
			if !acc.state.HasMore {
				return
			}
		}
	}
}

// Run drains a session, reporting every snapshot to onProgress. It returns
// the last snapshot even when the session fails or is cancelled.
func (l *Loader) Run(ctx context.Context, onProgress func(models.LoadState)) (models.LoadState, error) {
	var last models.LoadState
	finished := false

	for state, err := range l.LoadAll(ctx) {
		last = state
		if err != nil {
			return last, err
		}
		if onProgress != nil {
			onProgress(state)
		}
		finished = state.Complete()
	}

	if !finished {
		if err := ctx.Err(); err != nil {
			return last, fmt.Errorf("load cancelled after %d properties: %w", last.Loaded, err)
		}
	}

	l.logger.WithFields(logrus.Fields{
		"loaded": last.Loaded,
		"total":  last.Total,
		"pages":  last.Page + 1,
	}).Info("Catalog load complete")
	return last, nil
}

// checkPage rejects pages that would stall or corrupt a session
func checkPage(p catalog.Page) error {
	if err := catalog.ValidatePage(p); err != nil {
		return err
	}
	if p.HasMore && len(p.Records) == 0 {
		return fmt.Errorf("%w: empty page reports more data", catalog.ErrMalformedPage)
	}
	return nil
}

// accumulator owns the working set of one session
type accumulator struct {
	state    models.LoadState
	position map[string]int
}

func newAccumulator() *accumulator {
	return &accumulator{position: make(map[string]int)}
}

// add merges a page. A repeated id overwrites the earlier record in place.
func (a *accumulator) add(pageIndex int, page catalog.Page) {
	if pageIndex == 0 {
		a.state.Total = page.TotalCount
	}
	for _, r := range page.Records {
		if i, seen := a.position[r.ID]; seen {
			a.state.Properties[i] = r
			continue
		}
		a.position[r.ID] = len(a.state.Properties)
		a.state.Properties = append(a.state.Properties, r)
	}
	a.state.Loaded = len(a.state.Properties)
	a.state.Page = pageIndex
	a.state.HasMore = page.HasMore
}

func (a *accumulator) snapshot() models.LoadState {
	s := a.state
	s.Properties = make([]models.Property, len(a.state.Properties))
	copy(s.Properties, a.state.Properties)
	return s
}
