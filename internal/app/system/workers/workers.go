// internal/app/system/workers/workers.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one periodic background task.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run; zero means 30 seconds.
	Timeout time.Duration
	Run     func(ctx context.Context) (affected int64, err error)
}

// Observer is told about every finished run. Metrics implement it.
type Observer func(job string, err error)

// Runner drives a set of jobs on their own tickers.
type Runner struct {
	jobs     []Job
	log      *zap.Logger
	observe  Observer
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRunner creates a runner. observe may be nil.
func NewRunner(logger *zap.Logger, observe Observer, jobs ...Job) *Runner {
	return &Runner{
		jobs:    jobs,
		log:     logger,
		observe: observe,
		stopCh:  make(chan struct{}),
	}
}

// Start launches one goroutine per job. Jobs with a non-positive interval
// are skipped.
func (w *Runner) Start() {
	for _, job := range w.jobs {
		if job.Interval <= 0 || job.Run == nil {
			w.log.Info("worker disabled", zap.String("job", job.Name))
			continue
		}
		w.wg.Add(1)
		go w.loop(job)
		w.log.Info("worker started",
			zap.String("job", job.Name),
			zap.Duration("interval", job.Interval))
	}
}

// Stop signals every job to stop and waits for in-flight runs to finish.
func (w *Runner) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("workers stopped")
}

func (w *Runner) loop(job Job) {
	defer w.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(job)
		}
	}
}

// RunOnce executes job a single time with its timeout and logs the outcome.
func (w *Runner) RunOnce(job Job) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := job.Run(ctx)
	if w.observe != nil {
		w.observe(job.Name, err)
	}
	if err != nil {
		w.log.Error("worker run failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	if n > 0 {
		w.log.Info("worker run", zap.String("job", job.Name), zap.Int64("affected", n))
	}
}

// RunAll runs every enabled job once, in order, on the calling goroutine.
func (w *Runner) RunAll() {
	for _, job := range w.jobs {
		if job.Interval > 0 && job.Run != nil {
			w.RunOnce(job)
		}
	}
}
