// Package runner is the run controller: it walks the listing page by page
// and processes each job in its own child browsing context, strictly one at
// a time.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/config"
	"go-autoapply/internal/dedup"
	"go-autoapply/internal/listing"
	"go-autoapply/internal/models"
	"go-autoapply/internal/reporter"
	"go-autoapply/internal/store"
	"go-autoapply/internal/tabs"
)

var ErrAlreadyRunning = errors.New("runner: a run is already active")

type Config struct {
	// MaxJobs bounds the jobs processed per run; 0 means no bound.
	MaxJobs  int
	ResumeID string
	Timeouts config.TimeoutConfig
}

type Runner struct {
	Source      listing.Source
	Coordinator *tabs.Coordinator
	State       *store.State
	// Dedup and Filter may be nil.
	Dedup    *dedup.Cache
	Filter   Filter
	Notifier reporter.Notifier
	Config   Config
	Logger   arbor.ILogger

	mu      sync.Mutex
	running bool
	runID   string
	cancel  context.CancelFunc
	done    chan struct{}
	last    reporter.Summary
}

// Filter screens a job from its listing card.
type Filter interface {
	Allow(job models.JobDescriptor) (bool, string)
}

// Status is what GET_STATE reports.
type Status struct {
	Running bool             `json:"running"`
	RunID   string           `json:"runId,omitempty"`
	Last    reporter.Summary `json:"last"`
}

// Start launches a run in the background. The run ends on its own or on
// Stop; ctx only carries values and the parent's lifetime.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.running = true
	r.runID = uuid.NewString()
	r.cancel = cancel
	r.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		defer cancel()
		summary, err := r.Run(runCtx)
		if err != nil {
			r.Logger.Error().Err(err).Msg("❌ run failed")
		}
		r.mu.Lock()
		r.running = false
		r.last = summary
		r.mu.Unlock()
	}(r.done)
	return nil
}

// Stop latches the stop signal. It returns at once; use Wait to block.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Wait blocks until the active run, if any, has returned.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{Running: r.running, RunID: r.runID, Last: r.last}
}

// Run processes the listing until it is exhausted, MaxJobs is reached or
// ctx is cancelled. A single job's failure never aborts the run.
func (r *Runner) Run(ctx context.Context) (reporter.Summary, error) {
	var summary reporter.Summary
	bg := context.WithoutCancel(ctx)

	if err := r.State.SetRunning(bg, true); err != nil {
		return summary, fmt.Errorf("mark running: %w", err)
	}
	defer func() {
		if err := r.State.SetRunning(bg, false); err != nil {
			r.Logger.Warn().Err(err).Msg("failed to clear running flag")
		}
		r.notify(bg, reporter.Event{Type: reporter.EventComplete, Summary: &summary})
	}()
	if r.Config.ResumeID != "" {
		if err := r.State.SetResumeID(bg, r.Config.ResumeID); err != nil {
			r.Logger.Warn().Err(err).Msg("failed to store resume id")
		}
	}

	total, err := r.Source.TotalPages(ctx)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("could not read page count, assuming one page")
		total = 1
	}
	page, err := r.resumePage(ctx, total)
	if err != nil {
		return summary, err
	}
	r.status(ctx, fmt.Sprintf("🚀 starting at page %d of %d", page, total))

	processed := 0
	for ; page <= total; page++ {
		if ctx.Err() != nil {
			summary.Stopped = true
			return summary, nil
		}
		if page != r.Source.CurrentPage() {
			if err := r.goToPage(ctx, page); err != nil {
				return summary, err
			}
		}

		jobs, err := r.Source.Jobs(ctx)
		if err != nil {
			if ctx.Err() != nil {
				summary.Stopped = true
				return summary, nil
			}
			return summary, fmt.Errorf("read page %d: %w", page, err)
		}
		r.status(ctx, fmt.Sprintf("📄 page %d: %d jobs", page, len(jobs)))

		for i, job := range jobs {
			if ctx.Err() != nil {
				summary.Stopped = true
				return summary, nil
			}
			res := r.processJob(ctx, job)
			summary.Add(res)
			r.notify(bg, reporter.Event{Type: reporter.EventJobDone, Result: &res})

			if res.Outcome == models.OutcomeStopped {
				return summary, nil
			}
			if res.Outcome != models.OutcomeSkipped {
				processed++
			}
			if r.Config.MaxJobs > 0 && processed >= r.Config.MaxJobs {
				r.status(ctx, fmt.Sprintf("reached the limit of %d jobs", r.Config.MaxJobs))
				return summary, r.finish(bg)
			}
			if i < len(jobs)-1 && res.Outcome != models.OutcomeSkipped {
				if err := sleep(ctx, r.Config.Timeouts.BetweenJobs); err != nil {
					summary.Stopped = true
					return summary, nil
				}
			}
		}
	}
	return summary, r.finish(bg)
}

// resumePage returns the page a persisted RunState points at, or 1. A state
// past the last page is discarded.
func (r *Runner) resumePage(ctx context.Context, total int) (int, error) {
	rs, ok, err := r.State.RunState(ctx)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("could not read run state")
		return 1, nil
	}
	if !ok || rs.CurrentPage <= 1 {
		return 1, nil
	}
	if rs.CurrentPage > total {
		r.Logger.Info().Int("page", rs.CurrentPage).Int("total", total).Msg("saved page is past the end, starting over")
		if err := r.State.ClearRunState(ctx); err != nil {
			r.Logger.Warn().Err(err).Msg("failed to clear run state")
		}
		return 1, nil
	}
	r.Logger.Info().Int("page", rs.CurrentPage).Msg("🔄 resuming run")
	if rs.CurrentPage != r.Source.CurrentPage() {
		if err := r.goToPage(ctx, rs.CurrentPage); err != nil {
			return 0, err
		}
	}
	return rs.CurrentPage, nil
}

// goToPage persists the target page before moving, so a reload that takes
// the process down resumes there.
func (r *Runner) goToPage(ctx context.Context, page int) error {
	if err := r.State.SetRunState(ctx, models.RunState{CurrentPage: page, Timestamp: time.Now()}); err != nil {
		return fmt.Errorf("persist run state: %w", err)
	}
	reloaded, err := r.Source.GoToPage(ctx, page)
	if err != nil {
		return fmt.Errorf("go to page %d: %w", page, err)
	}
	r.Logger.Debug().Int("page", page).Bool("reloaded", reloaded).Msg("listing page changed")
	return nil
}

func (r *Runner) finish(ctx context.Context) error {
	if err := r.State.ClearRunState(ctx); err != nil {
		return fmt.Errorf("clear run state: %w", err)
	}
	return nil
}

func (r *Runner) status(ctx context.Context, msg string) {
	r.notify(context.WithoutCancel(ctx), reporter.Event{Type: reporter.EventStatus, Message: msg})
}

func (r *Runner) notify(ctx context.Context, ev reporter.Event) {
	if r.Notifier == nil {
		return
	}
	r.mu.Lock()
	ev.RunID = r.runID
	r.mu.Unlock()
	ev.Time = time.Now()
	r.Notifier.Notify(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
