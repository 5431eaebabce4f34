package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sportfed/arena/internal/metrics"
)

// DefaultSchedule runs the status sync once a minute
const DefaultSchedule = "@every 1m"

// StatusSyncer persists time-derived competition statuses.
// service.Workflow satisfies it.
type StatusSyncer interface {
	SyncCompetitionStatuses(ctx context.Context) (int, error)
}

// StatusSyncProcessor runs the competition status sync on a cron schedule
//   - published -> registration_closed when registration ends
//   - registration_closed -> running when the event starts
//   - running -> finished when the event ends
type StatusSyncProcessor struct {
	syncer   StatusSyncer
	schedule string
	timeout  time.Duration
	logger   *zap.Logger

	cron    *cron.Cron
	running bool
	mu      sync.Mutex
}

// StatusSyncConfig holds the dependencies of a StatusSyncProcessor
type StatusSyncConfig struct {
	Syncer   StatusSyncer
	Schedule string        // cron spec, DefaultSchedule when empty
	Timeout  time.Duration // per run, 2m when zero
	Logger   *zap.Logger
}

// NewStatusSyncProcessor creates a new status sync job. The schedule is
// parsed here so a bad spec fails at startup.
func NewStatusSyncProcessor(cfg StatusSyncConfig) (*StatusSyncProcessor, error) {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &StatusSyncProcessor{
		syncer:   cfg.Syncer,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger.Named("status_sync"),
	}

	p.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{p.logger.Sugar()}),
		cron.SkipIfStillRunning(cronLogger{p.logger.Sugar()}),
	))
	if _, err := p.cron.AddFunc(schedule, p.process); err != nil {
		return nil, fmt.Errorf("invalid status sync schedule %q: %w", schedule, err)
	}
	return p, nil
}

// Start begins the scheduled runs
func (p *StatusSyncProcessor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.cron.Start()
	p.logger.Info("status sync started", zap.String("schedule", p.schedule))
}

// Stop halts the schedule and waits for an in-flight run to finish or ctx to end
func (p *StatusSyncProcessor) Stop(ctx context.Context) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	select {
	case <-p.cron.Stop().Done():
	case <-ctx.Done():
		p.logger.Warn("status sync stop timed out")
	}
	p.logger.Info("status sync stopped")
}

// process is the scheduled entry point
func (p *StatusSyncProcessor) process() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if _, err := p.RunOnce(ctx); err != nil {
		p.logger.Error("status sync failed", zap.Error(err))
	}
}

// RunOnce runs the sync once (for testing or manual trigger)
func (p *StatusSyncProcessor) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	updated, err := p.syncer.SyncCompetitionStatuses(ctx)
	metrics.RecordStatusSync(updated, err == nil)
	if err != nil {
		return updated, err
	}
	if updated > 0 {
		p.logger.Info("competition statuses synced",
			zap.Int("updated", updated),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return updated, nil
}

// IsRunning returns whether the processor is running
func (p *StatusSyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
