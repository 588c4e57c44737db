package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benmeehan/carstatus-relay/internal/models"
	"github.com/benmeehan/carstatus-relay/internal/utils"
	"github.com/benmeehan/carstatus-relay/pkg/clock"
	"github.com/rs/zerolog"
)

// Monitor states.
const (
	MonitorIdle     = "idle"
	MonitorFetching = "fetching"
)

// RecordLister fetches every record in store order.
type RecordLister interface {
	List(ctx context.Context) ([]models.StatusRecord, int, error)
}

// MonitorService periodically fetches the most recent records and replaces the
// displayed page with them.
type MonitorService struct {
	store    RecordLister
	sink     RecordSink
	interval time.Duration
	pageSize int
	sortByID bool
	clock    clock.Clock
	Logger   zerolog.Logger

	fetching atomic.Bool

	snapshotMu sync.RWMutex
	snapshot   []models.StatusRecord

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitorService initializes a new MonitorService.
func NewMonitorService(lister RecordLister, sink RecordSink, interval time.Duration, pageSize int,
	sortByID bool, clk clock.Clock, logger zerolog.Logger) *MonitorService {

	return &MonitorService{
		store:    lister,
		sink:     sink,
		interval: interval,
		pageSize: pageSize,
		sortByID: sortByID,
		clock:    clk,
		Logger:   logger,
	}
}

// Start launches the polling loop in a separate goroutine. The first fetch
// happens one interval after start.
func (m *MonitorService) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx != nil {
		m.Logger.Warn().Msg("MonitorService is already running")
		return errors.New("monitor service is already running")
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	ctx := m.ctx
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runPollingLoop(ctx)
	}()

	m.Logger.Info().Dur("interval", m.interval).Int("page_size", m.pageSize).Msg("MonitorService started successfully")
	return nil
}

// Stop gracefully stops the polling loop.
func (m *MonitorService) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx == nil {
		m.Logger.Warn().Msg("MonitorService is not running")
		return errors.New("monitor service is not running")
	}

	m.cancel()
	m.wg.Wait()

	m.ctx = nil
	m.cancel = nil

	m.Logger.Info().Msg("MonitorService stopped successfully")
	return nil
}

// Refresh fetches immediately. If a fetch is already in flight it does nothing
// and reports false. A ctx that expires before the store answers is a failed
// fetch and publishes an empty page.
func (m *MonitorService) Refresh(ctx context.Context) bool {
	return m.fetch(ctx, false)
}

// State reports whether a fetch is in flight.
func (m *MonitorService) State() string {
	if m.fetching.Load() {
		return MonitorFetching
	}
	return MonitorIdle
}

// Snapshot returns the last page published.
func (m *MonitorService) Snapshot() []models.StatusRecord {
	m.snapshotMu.RLock()
	defer m.snapshotMu.RUnlock()
	out := make([]models.StatusRecord, len(m.snapshot))
	copy(out, m.snapshot)
	return out
}

// runPollingLoop arms a one-shot timer, fetches when it fires and only then arms
// the next one, so a slow store delays the schedule instead of stacking fetches.
func (m *MonitorService) runPollingLoop(ctx context.Context) {
	for {
		timer := m.clock.NewTimer(m.interval)
		select {
		case <-timer.C():
			if !m.fetch(ctx, true) {
				m.Logger.Debug().Msg("Skipping tick, fetch already in flight")
			}
		case <-ctx.Done():
			timer.Stop()
			m.Logger.Info().Msg("MonitorService stopping gracefully")
			return
		}
	}
}

// fetch performs one Idle -> Fetching -> Idle cycle. When polling, ctx is the
// service lifetime and its cancellation means shutdown.
func (m *MonitorService) fetch(ctx context.Context, polling bool) bool {
	if !m.fetching.CompareAndSwap(false, true) {
		return false
	}
	defer m.fetching.Store(false)

	records, code, err := m.store.List(ctx)
	if polling && ctx.Err() != nil {
		// Shutting down; leave the display as it is.
		return true
	}

	page := []models.StatusRecord{}
	if err != nil {
		m.Logger.Error().Err(err).Int("status", code).Msg("Failed to fetch records")
	} else {
		page = m.page(records)
		m.Logger.Debug().Int("fetched", len(records)).Int("shown", len(page)).Msg("Records fetched")
	}

	m.snapshotMu.Lock()
	m.snapshot = page
	m.snapshotMu.Unlock()

	m.sink.ShowRecords(page)
	return true
}

// page keeps the last pageSize records. Store order is treated as insertion order
// unless sortByID is set, in which case records are ordered by numeric id first.
func (m *MonitorService) page(records []models.StatusRecord) []models.StatusRecord {
	if m.sortByID {
		sorted := make([]models.StatusRecord, len(records))
		copy(sorted, records)
		sort.SliceStable(sorted, func(i, j int) bool {
			a, aok := sorted[i].ID.Int()
			b, bok := sorted[j].ID.Int()
			if aok != bok {
				// Records without a numeric id sort first and are dropped first.
				return !aok
			}
			return aok && a < b
		})
		records = sorted
	}
	return utils.LastN(records, m.pageSize)
}
