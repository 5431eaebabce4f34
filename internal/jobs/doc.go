// Package jobs implements background jobs for the arena API.
//
// Jobs run independently of HTTP request handling on a robfig/cron schedule.
//
// # Job Types
//
//   - StatusSyncProcessor: persists the time-derived status of every
//     published competition
//
// # Usage
//
//	sync, err := jobs.NewStatusSyncProcessor(jobs.StatusSyncConfig{
//	    Syncer:   workflow,
//	    Schedule: cfg.Jobs.StatusSyncSchedule,
//	    Logger:   logger,
//	})
//	sync.Start()
//	defer sync.Stop(ctx)
//
// # Error Handling
//
// Jobs log errors but don't crash the application. A failed run is not
// retried; the next scheduled run picks up where it left off. Overlapping
// runs are skipped.
package jobs
