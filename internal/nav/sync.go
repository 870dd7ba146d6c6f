package nav

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pmcgroup/istock-backend/internal/config"
	"github.com/pmcgroup/istock-backend/internal/logging"
	"github.com/pmcgroup/istock-backend/internal/navcache"
)

// Sync job states. The job is Idle between runs; a run moves through Running
// to Saved or Failed and back to Idle.
const (
	SyncIdle    = "idle"
	SyncRunning = "running"
	SyncSaved   = "saved"
	SyncFailed  = "failed"
)

// SyncJob refreshes the local NAV user snapshot: once at startup, then on a
// cron schedule (daily at midnight in the configured timezone by default).
// Runs are not serialized against each other; the snapshot store's overwrite
// semantics make the last writer win.
type SyncJob struct {
	client *Client
	store  *navcache.Store
	cfg    config.CacheConfig
	cron   *cron.Cron

	mu        sync.RWMutex
	state     string
	lastRunAt time.Time
	lastError error
}

// NewSyncJob creates the sync job. Call Start to schedule it.
func NewSyncJob(client *Client, store *navcache.Store, cfg config.CacheConfig) *SyncJob {
	return &SyncJob{
		client: client,
		store:  store,
		cfg:    cfg,
		state:  SyncIdle,
	}
}

// Start runs one refresh immediately, then schedules the recurring one.
func (j *SyncJob) Start() error {
	loc, err := time.LoadLocation(j.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", j.cfg.Timezone, err)
	}

	log := logging.GetLogger()

	go func() {
		if err := j.RunOnce(context.Background()); err != nil {
			log.Warnf("initial NAV sync failed: %v", err)
		}
	}()

	j.cron = cron.New(cron.WithLocation(loc))
	if _, err := j.cron.AddFunc(j.cfg.CronSpec, func() {
		if err := j.RunOnce(context.Background()); err != nil {
			log.Warnf("scheduled NAV sync failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule NAV sync: %w", err)
	}
	j.cron.Start()

	log.Infof("NAV sync scheduled: %q (%s)", j.cfg.CronSpec, j.cfg.Timezone)
	return nil
}

// Stop cancels the schedule. An in-flight run finishes on its own.
func (j *SyncJob) Stop() {
	if j.cron != nil {
		j.cron.Stop()
	}
}

// RunOnce performs one fetch-save-prune cycle. On fetch or save failure the
// previous snapshot stays untouched. Pruning runs regardless of outcome.
func (j *SyncJob) RunOnce(ctx context.Context) error {
	log := logging.GetLogger()

	j.setState(SyncRunning, nil)
	defer j.store.Prune(j.cfg.RetentionDays)

	started := time.Now()
	users, err := j.client.FetchUsers(ctx)
	if err != nil {
		j.setState(SyncFailed, err)
		j.setState(SyncIdle, err)
		return fmt.Errorf("refresh NAV users: %w", err)
	}

	snap := &navcache.Snapshot{
		TS:    started.UTC().Format(time.RFC3339),
		Count: len(users),
		Data:  users,
		Meta: map[string]string{
			"url":  j.client.UserURL(),
			"user": j.client.Username(),
		},
	}
	if err := j.store.Save(snap); err != nil {
		j.setState(SyncFailed, err)
		j.setState(SyncIdle, err)
		return fmt.Errorf("save NAV snapshot: %w", err)
	}

	j.setState(SyncSaved, nil)
	j.setState(SyncIdle, nil)
	log.Infof("NAV sync saved %d users in %s", len(users), time.Since(started).Round(time.Millisecond))
	return nil
}

// Status reports the current state and last outcome.
func (j *SyncJob) Status() (state string, lastRunAt time.Time, lastErr error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state, j.lastRunAt, j.lastError
}

func (j *SyncJob) setState(state string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = state
	if state == SyncSaved || state == SyncFailed {
		j.lastRunAt = time.Now()
		j.lastError = err
	}
}
