package di

import (
	"fmt"

	"github.com/kabumemo/kabumemo/internal/clientdata"
	"github.com/kabumemo/kabumemo/internal/config"
	"github.com/kabumemo/kabumemo/internal/scheduler"
	"github.com/rs/zerolog"
)

// Fixed maintenance schedules (six-field cron).
const (
	walCheckpointSchedule = "0 0 * * * *"
	mirrorCheckSchedule   = "0 15 3 * * *"
)

// RegisterJobs creates the scheduler and registers every job on it.
// The scheduler is not started here.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(container.OpLock, log)
	container.Scheduler = sched

	instances := &JobInstances{
		QuoteRefresh:  scheduler.NewQuoteRefreshJob(container.QuoteService, log),
		CacheCleanup:  clientdata.NewCleanupJob(container.CacheRepo, log),
		WALCheckpoint: scheduler.NewWALCheckpointJob(container.MirrorDB, log),
		MirrorCheck:   scheduler.NewMirrorCheckJob(container.MirrorDB, container.Repository, log),
	}

	schedules := []struct {
		spec string
		job  scheduler.Job
	}{
		{cfg.QuoteRefreshSchedule, instances.QuoteRefresh},
		{cfg.CacheCleanupSchedule, instances.CacheCleanup},
		{walCheckpointSchedule, instances.WALCheckpoint},
		{mirrorCheckSchedule, instances.MirrorCheck},
	}
	for _, s := range schedules {
		if err := sched.AddJob(s.spec, s.job); err != nil {
			return nil, fmt.Errorf("failed to register %s job: %w", s.job.Name(), err)
		}
	}

	return instances, nil
}
