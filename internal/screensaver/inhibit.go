package screensaver

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// inhibitor owns the recurring suppression job. At most one job is armed
// at any time; re-engaging replaces the previous job.
type inhibitor struct {
	mu       sync.Mutex
	sched    gocron.Scheduler
	job      gocron.Job
	interval time.Duration
	tick     func()
	log      *slog.Logger
}

func newInhibitor(tick func(), log *slog.Logger) (*inhibitor, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()
	return &inhibitor{sched: sched, tick: tick, log: log}, nil
}

// engage arms a job that fires immediately and then every interval.
func (i *inhibitor) engage(interval time.Duration) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.job != nil {
		if err := i.sched.RemoveJob(i.job.ID()); err != nil {
			i.log.Warn("cannot remove inhibition job", "error", err)
		}
		i.job = nil
	}
	job, err := i.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(i.tick),
		gocron.WithName("inhibit"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return err
	}
	i.job = job
	i.interval = interval
	return nil
}

// disengage cancels the armed job and reports whether there was one.
func (i *inhibitor) disengage() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.job == nil {
		return false
	}
	if err := i.sched.RemoveJob(i.job.ID()); err != nil {
		i.log.Warn("cannot remove inhibition job", "error", err)
	}
	i.job = nil
	return true
}

func (i *inhibitor) engaged() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.job != nil
}

func (i *inhibitor) shutdown() {
	i.mu.Lock()
	i.job = nil
	i.mu.Unlock()
	if err := i.sched.Shutdown(); err != nil {
		i.log.Warn("inhibition scheduler shutdown error", "error", err)
	}
}
