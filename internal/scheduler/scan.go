package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/presence/internal/domain"
	"github.com/MrSnakeDoc/presence/internal/index"
	"github.com/MrSnakeDoc/presence/internal/logger"
	redisstore "github.com/MrSnakeDoc/presence/internal/store/redis"
)

// Scanner produces the ordered line sequence of one scan.
type Scanner interface {
	Name() string
	Scan(ctx context.Context) ([]string, error)
}

// ErrScanQueued is returned by Trigger when a manual scan is already pending.
var ErrScanQueued = errors.New("scan already queued")

// ScanRunner runs scans one at a time, periodically and on demand, and
// publishes each complete result to the index and the store.
type ScanRunner struct {
	scanner    Scanner
	aggregator *domain.Aggregator
	store      *redisstore.Store
	index      *index.MemoryIndex
	logger     logger.Logger
	interval   time.Duration
	timeout    time.Duration
	now        func() time.Time

	scanMu        sync.Mutex
	manualTrigger chan struct{}
	stopCh        chan struct{}
	stopOnce      sync.Once
	running       atomic.Bool
	done          chan struct{}
}

// NewScanRunner creates a runner. store may be nil when persistence is
// disabled.
func NewScanRunner(
	scanner Scanner,
	aggregator *domain.Aggregator,
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	timeout time.Duration,
) *ScanRunner {
	if aggregator == nil {
		aggregator = domain.NewAggregator(domain.DefaultVocabulary())
	}
	return &ScanRunner{
		scanner:       scanner,
		aggregator:    aggregator,
		store:         store,
		index:         idx,
		logger:        log,
		interval:      interval,
		timeout:       timeout,
		now:           time.Now,
		manualTrigger: make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start runs a first scan, then keeps scanning every interval and whenever
// Trigger is called. A failing first scan is logged, not fatal: the
// previous snapshot (if restored) stays published.
func (sr *ScanRunner) Start(ctx context.Context) error {
	if sr.interval <= 0 {
		return fmt.Errorf("scan interval must be > 0, got %v", sr.interval)
	}

	if _, err := sr.Scan(ctx); err != nil {
		sr.logger.Error("initial scan failed", logger.Error(err))
	}

	ticker := time.NewTicker(sr.interval)
	sr.running.Store(true)
	go func() {
		defer close(sr.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sr.scanAndLog(ctx)
			case <-sr.manualTrigger:
				sr.logger.Info("manual scan triggered")
				sr.scanAndLog(ctx)
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the scan loop and waits for a running scan to finish.
func (sr *ScanRunner) Stop() {
	sr.stopOnce.Do(func() { close(sr.stopCh) })
	if sr.running.Load() {
		<-sr.done
	}
}

// Trigger queues a manual scan. Only one manual scan can be pending.
func (sr *ScanRunner) Trigger() error {
	select {
	case sr.manualTrigger <- struct{}{}:
		return nil
	default:
		return ErrScanQueued
	}
}

func (sr *ScanRunner) scanAndLog(ctx context.Context) {
	if _, err := sr.Scan(ctx); err != nil {
		sr.logger.Error("scan failed", logger.Error(err))
	}
}

// Scan performs one complete scan and publishes it. Concurrent callers are
// serialized. On failure nothing is published.
func (sr *ScanRunner) Scan(ctx context.Context) (*domain.Snapshot, error) {
	sr.scanMu.Lock()
	defer sr.scanMu.Unlock()

	started := sr.now()

	scanCtx := ctx
	if sr.timeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, sr.timeout)
		defer cancel()
	}

	lines, err := sr.scanner.Scan(scanCtx)
	if err != nil {
		sr.index.RecordFailure(sr.now(), err)
		return nil, fmt.Errorf("%s scan: %w", sr.scanner.Name(), err)
	}

	res := sr.aggregator.Aggregate(lines)
	snap := domain.NewSnapshot(sr.scanner.Name(), started, sr.now(), len(lines), res)

	sr.index.Replace(snap)

	for _, d := range snap.Diagnostics {
		sr.logger.Debug("scan line skipped",
			logger.String("kind", string(d.Kind)),
			logger.Int("line", d.Line),
			logger.String("reason", d.Message))
	}

	sr.logger.Info("scan completed",
		logger.String("scan_id", snap.ID),
		logger.String("source", snap.Source),
		logger.Int("lines", snap.Lines),
		logger.Int("records", snap.Records),
		logger.Int("devices", len(snap.Devices)),
		logger.Int("interfaces", len(snap.Interfaces)),
		logger.Int("diagnostics", len(snap.Diagnostics)),
		logger.Duration("duration", snap.Duration()))

	// Persist (best effort)
	if sr.store != nil {
		if err := sr.store.SaveSnapshot(ctx, snap); err != nil {
			sr.logger.Warn("failed to save snapshot to redis", logger.Error(err))
		}
	}

	return snap, nil
}
