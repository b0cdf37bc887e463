package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// IndexRebuilder re-indexes every stored identity.
type IndexRebuilder interface {
	RebuildIndex(ctx context.Context) (int, error)
}

// IndexSyncConfig holds configuration for the index sync scheduler.
type IndexSyncConfig struct {
	// Interval is how often the alias index is re-synchronised.
	// Default: 1 hour
	Interval time.Duration

	// Timeout bounds a single run.
	// Default: 5 minutes
	Timeout time.Duration

	Clock clockwork.Clock
}

// IndexSyncScheduler periodically rebuilds the alias index from the store so
// partitions written outside the service stay discoverable.
type IndexSyncScheduler struct {
	rebuilder IndexRebuilder
	config    IndexSyncConfig
	logger    *zap.Logger
	ticker    clockwork.Ticker
	stopCh    chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewIndexSyncScheduler creates a new index sync scheduler.
func NewIndexSyncScheduler(rebuilder IndexRebuilder, config IndexSyncConfig, logger *zap.Logger) *IndexSyncScheduler {
	if config.Interval == 0 {
		config.Interval = time.Hour
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Minute
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	return &IndexSyncScheduler{
		rebuilder: rebuilder,
		config:    config,
		logger:    logger.Named("index_sync"),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *IndexSyncScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true
	s.ticker = s.config.Clock.NewTicker(s.config.Interval)

	s.logger.Info("Started", zap.Duration("interval", s.config.Interval))

	go s.run()
}

// run is the main sync loop.
func (s *IndexSyncScheduler) run() {
	defer close(s.done)
	for {
		select {
		case <-s.ticker.Chan():
			s.runSync()
		case <-s.stopCh:
			s.logger.Info("Stopped")
			return
		}
	}
}

func (s *IndexSyncScheduler) runSync() {
	n, err := s.RunNow()
	if err != nil {
		s.logger.Warn("Index sync failed", zap.Error(err))
		return
	}
	s.logger.Debug("Index sync complete", zap.Int("indexed", n))
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (s *IndexSyncScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		running := s.isRunning
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
		s.mu.Unlock()

		if running {
			<-s.done
		}
	})
}

// RunNow triggers an immediate sync run.
func (s *IndexSyncScheduler) RunNow() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	return s.rebuilder.RebuildIndex(ctx)
}
