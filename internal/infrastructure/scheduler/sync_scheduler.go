// Package scheduler runs the periodic background jobs of the service:
// master-data refresh from the authority and auto submission of pending
// challans.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/vatchallan/internal/application/invoicing"
	"github.com/erp/vatchallan/internal/domain/challan"
)

// MasterDataSyncer pulls reference data from the authority.
type MasterDataSyncer interface {
	SyncAll(ctx context.Context) (map[string]*challan.SyncResult, error)
}

// InvoiceSyncer submits pending and failed invoices to the authority.
type InvoiceSyncer interface {
	AutoSyncInvoices(ctx context.Context) ([]invoicing.SyncOutcome, error)
}

// Config holds sync scheduler configuration
type Config struct {
	Enabled            bool
	MasterDataInterval time.Duration
	AutoSyncInterval   time.Duration
	JobTimeout         time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		MasterDataInterval: 6 * time.Hour,
		AutoSyncInterval:   15 * time.Minute,
		JobTimeout:         10 * time.Minute,
	}
}

// SyncScheduler runs the two recurring jobs on independent tickers. Each job
// kind runs at most once at a time; an overrunning job makes the next tick a
// no-op instead of stacking up.
type SyncScheduler struct {
	config     Config
	masterData MasterDataSyncer
	invoices   InvoiceSyncer
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	masterDataBusy bool
	autoSyncBusy   bool
	lastMasterData *time.Time
	lastAutoSync   *time.Time
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(config Config, masterData MasterDataSyncer, invoices InvoiceSyncer, logger *zap.Logger) *SyncScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncScheduler{
		config:     config,
		masterData: masterData,
		invoices:   invoices,
		logger:     logger,
	}
}

// Start starts the ticker loops
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(2)
	go s.loop(ctx, s.config.MasterDataInterval, s.runMasterDataSync)
	go s.loop(ctx, s.config.AutoSyncInterval, s.runAutoSync)

	s.logger.Info("Sync scheduler started",
		zap.Duration("master_data_interval", s.config.MasterDataInterval),
		zap.Duration("auto_sync_interval", s.config.AutoSyncInterval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerMasterDataSync runs the master-data refresh immediately.
// Uses a background context so an HTTP caller disconnecting does not abort
// the refresh midway.
func (s *SyncScheduler) TriggerMasterDataSync() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	go s.runMasterDataSync(context.Background())
	return nil
}

// Status reports the scheduler state for diagnostics
func (s *SyncScheduler) Status() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":              s.config.Enabled,
		"is_running":           s.isRunning,
		"master_data_interval": s.config.MasterDataInterval.String(),
		"auto_sync_interval":   s.config.AutoSyncInterval.String(),
		"last_master_data_at":  s.lastMasterData,
		"last_auto_sync_at":    s.lastAutoSync,
	}
}

func (s *SyncScheduler) loop(ctx context.Context, interval time.Duration, run func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run(ctx)
		}
	}
}

func (s *SyncScheduler) runMasterDataSync(ctx context.Context) {
	s.mu.Lock()
	if s.masterDataBusy {
		s.mu.Unlock()
		s.logger.Warn("Master data sync still running, skipping tick")
		return
	}
	s.masterDataBusy = true
	s.mu.Unlock()

	defer func() {
		now := time.Now()
		s.mu.Lock()
		s.masterDataBusy = false
		s.lastMasterData = &now
		s.mu.Unlock()
	}()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	results, err := s.masterData.SyncAll(jobCtx)
	if err != nil {
		s.logger.Error("Scheduled master data sync failed", zap.Error(err))
	}
	for entity, result := range results {
		s.logger.Info("Master data entity synced",
			zap.String("entity", entity),
			zap.String("status", string(result.Status)),
			zap.Int("total", result.TotalCount),
			zap.Int("skipped", result.SkippedCount),
		)
	}
}

func (s *SyncScheduler) runAutoSync(ctx context.Context) {
	s.mu.Lock()
	if s.autoSyncBusy {
		s.mu.Unlock()
		s.logger.Warn("Invoice auto sync still running, skipping tick")
		return
	}
	s.autoSyncBusy = true
	s.mu.Unlock()

	defer func() {
		now := time.Now()
		s.mu.Lock()
		s.autoSyncBusy = false
		s.lastAutoSync = &now
		s.mu.Unlock()
	}()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	outcomes, err := s.invoices.AutoSyncInvoices(jobCtx)
	if err != nil {
		s.logger.Error("Scheduled invoice auto sync failed", zap.Error(err))
		return
	}

	synced := 0
	for _, o := range outcomes {
		if o.Status == challan.InvoiceStatusSynced {
			synced++
		}
	}
	if len(outcomes) > 0 {
		s.logger.Info("Invoice auto sync finished",
			zap.Int("processed", len(outcomes)),
			zap.Int("synced", synced),
		)
	}
}
