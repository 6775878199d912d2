package imagegen

import (
	"context"
	"errors"
	"time"

	"github.com/tuaneric255-blip/Imaxai/internal/apierr"
	"github.com/tuaneric255-blip/Imaxai/internal/logging"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
)

// DefaultPacing is the pause between consecutive batch tasks.
const DefaultPacing = 3 * time.Second

// Task is one unit of a batch.
type Task struct {
	Name string
	Run  func(ctx context.Context) (media.Artifact, error)
}

// TaskResult records the outcome of an attempted task.
type TaskResult struct {
	Name     string
	Artifact media.Artifact
	Err      error
}

// BatchOptions configures RunBatch.
type BatchOptions struct {
	// Pacing is the pause between tasks. Zero means DefaultPacing; negative disables it.
	Pacing time.Duration
	// Stop is polled before each task. A true result ends the batch.
	Stop func() bool
	// OnResult is called after each attempted task.
	OnResult func(TaskResult)
	// OnStart is called before each task with its 0-based index.
	OnStart func(index int, t Task)
	// Sleep replaces the pacing wait (for tests).
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger logging.Logger
}

// BatchReport summarizes a batch run.
type BatchReport struct {
	Results []TaskResult
	// Skipped counts tasks never attempted.
	Skipped int
	// Stopped is true when Stop or context cancellation ended the batch early.
	Stopped bool
	// HaltErr is the error that halted the batch, if any.
	HaltErr error
}

// Succeeded returns the number of successful tasks.
func (r BatchReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of attempted tasks that failed.
func (r BatchReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Halts reports whether err must end a batch: retries exhausted on quota or
// overload, or no credential at all. Every remaining task would fail the same way.
func Halts(err error) bool {
	return errors.Is(err, apierr.ErrGivenUp) || errors.Is(err, apierr.ErrMissingCredential)
}

// RunBatch runs tasks one at a time in order.
//
// Stop is honored only between tasks. A failing task does not end the batch
// unless Halts(err) is true; in that case the remaining tasks are not attempted.
func RunBatch(ctx context.Context, tasks []Task, opts BatchOptions) BatchReport {
	pacing := opts.Pacing
	if pacing == 0 {
		pacing = DefaultPacing
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	var report BatchReport
	for i, t := range tasks {
		if ctx.Err() != nil || (opts.Stop != nil && opts.Stop()) {
			report.Stopped = true
			report.Skipped = len(tasks) - i
			logger.Infof("batch stopped before %q, %d task(s) skipped", t.Name, report.Skipped)
			return report
		}

		if opts.OnStart != nil {
			opts.OnStart(i, t)
		}
		artifact, err := t.Run(ctx)
		res := TaskResult{Name: t.Name, Artifact: artifact, Err: err}
		report.Results = append(report.Results, res)
		if opts.OnResult != nil {
			opts.OnResult(res)
		}

		if err != nil {
			logger.Warnf("task %q failed: %v", t.Name, err)
			if Halts(err) {
				report.HaltErr = err
				report.Skipped = len(tasks) - i - 1
				logger.Errorf("batch halted after %q, %d task(s) skipped", t.Name, report.Skipped)
				return report
			}
		}

		if i < len(tasks)-1 && pacing > 0 {
			if err := sleep(ctx, pacing); err != nil {
				report.Stopped = true
				report.Skipped = len(tasks) - i - 1
				return report
			}
		}
	}
	return report
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
