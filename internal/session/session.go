// Package session keeps one loaded dataset per dashboard session. A
// session reads its source at most once until it is explicitly reloaded.
package session

import (
	"context"
	"sync"
	"time"

	"healthinsights/domain/core"
	"healthinsights/domain/dataset"
	"healthinsights/internal"
	"healthinsights/internal/errors"
	"healthinsights/ports"

	"golang.org/x/sync/singleflight"
)

// Session owns the dataset memoized for one user session
type Session struct {
	id       core.SessionID
	source   ports.DatasetSource
	observer ports.LoadObserver
	logger   *internal.Logger

	group singleflight.Group

	mu       sync.RWMutex
	dataset  *dataset.Dataset
	report   *dataset.LoadReport
	loadedAt time.Time
	closed   bool
}

type loadResult struct {
	dataset *dataset.Dataset
	report  *dataset.LoadReport
}

func newSession(id core.SessionID, source ports.DatasetSource, observer ports.LoadObserver, logger *internal.Logger) *Session {
	return &Session{
		id:       id,
		source:   source,
		observer: observer,
		logger:   logger,
	}
}

// ID returns the session identifier
func (s *Session) ID() core.SessionID {
	return s.id
}

// Dataset returns the memoized dataset, loading it on first use.
// Concurrent first calls share one read. Failed loads are not memoized.
func (s *Session) Dataset(ctx context.Context) (*dataset.Dataset, *dataset.LoadReport, error) {
	s.mu.RLock()
	ds, report, closed := s.dataset, s.report, s.closed
	s.mu.RUnlock()

	if closed {
		return nil, nil, errors.WithCode(errors.CodeNotFound, core.NewSessionNotFoundError(s.id))
	}
	if ds != nil {
		return ds, report, nil
	}
	return s.load(ctx, "load")
}

// Reload discards the memoized dataset and reads the source again. The
// previous dataset stays in place if the reload fails.
func (s *Session) Reload(ctx context.Context) (*dataset.Dataset, *dataset.LoadReport, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, nil, errors.WithCode(errors.CodeNotFound, core.NewSessionNotFoundError(s.id))
	}
	return s.load(ctx, "reload")
}

// LoadedAt reports when the current dataset was read, zero if never.
func (s *Session) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *Session) load(ctx context.Context, key string) (*dataset.Dataset, *dataset.LoadReport, error) {
	// The shared read outlives the cancellation of any one caller.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		if key == "load" {
			s.mu.RLock()
			ds, report := s.dataset, s.report
			s.mu.RUnlock()
			if ds != nil {
				return loadResult{dataset: ds, report: report}, nil
			}
		}
		s.logger.Debug("Session %s: reading %s", s.id, s.source.Describe())
		ds, report, err := s.source.Load(loadCtx)
		if s.observer != nil {
			s.observer.ObserveLoad(report, err)
		}
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.dataset, s.report, s.loadedAt = ds, report, time.Now()
		s.mu.Unlock()
		return loadResult{dataset: ds, report: report}, nil
	})

	var result singleflight.Result
	select {
	case result = <-ch:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	if result.Err != nil {
		s.logger.Error("Session %s: load failed: %v", s.id, result.Err)
		return nil, nil, result.Err
	}
	if result.Shared {
		s.logger.Trace("Session %s: joined an in-flight %s", s.id, key)
	}
	res := result.Val.(loadResult)
	return res.dataset, res.report, nil
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.dataset, s.report = nil, nil
}
