// Package engine drives one job's application wizard inside a child
// browsing context: it finds the way into the form, runs each step, submits
// and watches for the site's confirmation.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"go-autoapply/internal/answer"
	"go-autoapply/internal/config"
	"go-autoapply/internal/dom"
	"go-autoapply/internal/models"
	"go-autoapply/internal/records"
	"go-autoapply/internal/site"
	"go-autoapply/internal/store"
	"go-autoapply/internal/tabs"
)

var (
	ErrStopped      = errors.New("engine: stopped")
	ErrNoNavigation = errors.New("no navigation control")
	ErrNotConfirmed = errors.New("submission not confirmed after retry")
	ErrNoApply      = errors.New("no apply control")
	ErrStepLimit    = errors.New("step limit reached")
)

type Config struct {
	MaxSteps int
	DryRun   bool
	Timeouts config.TimeoutConfig
}

// Engine builds and runs flows. It holds no per-job state; each job gets
// its own Flow.
type Engine struct {
	Adapter  *site.Adapter
	Answerer *answer.Answerer
	State    *store.State
	// Records may be nil, then nothing is flushed.
	Records records.Store
	Config  Config
	Logger  arbor.ILogger
	Now     func() time.Time

	wg sync.WaitGroup
}

// NewFlow prepares the flow of one job on page.
func (e *Engine) NewFlow(page dom.Page, job models.JobDescriptor, resumeID string) *Flow {
	ans := *e.Answerer
	if resumeID != "" {
		ans.ProfileKey = resumeID
	}
	collector := answer.NewCollector()
	return &Flow{
		engine:    e,
		page:      page,
		job:       job,
		collector: collector,
		logger:    e.Logger.WithCorrelationId(job.Key()),
		steps: &StepEngine{
			Adapter:    e.Adapter,
			Answerer:   &ans,
			Collector:  collector,
			RetryPause: e.Config.Timeouts.Settle,
			Logger:     e.Logger,
		},
	}
}

// Attach returns the handler installed in every child. The first
// processJobInTab message starts the flow in the background and
// acknowledges at once; the outcome travels through the store. The flow
// runs on the child's context, so closing the child stops it.
func (e *Engine) Attach() tabs.AttachFunc {
	return func(childCtx context.Context, childID string, tab tabs.Tab) tabs.Handler {
		var (
			mu      sync.Mutex
			started bool
		)
		return func(ctx context.Context, msg tabs.Message) (tabs.Reply, error) {
			if msg.Action != tabs.ActionProcessJob {
				return tabs.Reply{Status: tabs.ReplyError, Reason: "unknown action " + msg.Action}, nil
			}
			if msg.Job == nil {
				return tabs.Reply{Status: tabs.ReplyError, Reason: "missing job"}, nil
			}
			key := msg.Job.Key()

			mu.Lock()
			defer mu.Unlock()
			if started {
				return tabs.Reply{Status: tabs.ReplyStarted}, nil
			}

			a := e.Adapter
			switch {
			case !a.IsOnSite(tab.URL()):
				e.writeStatus(ctx, models.FormStatus{JobKey: key, State: models.FormExternalForm, Reason: tab.URL()})
				return tabs.Reply{Status: tabs.ReplyExternalForm, Reason: tab.URL()}, nil
			case a.Find(tab, a.AlreadyApplied) != nil:
				return tabs.Reply{Status: tabs.ReplyAlreadyApplied, Reason: "already applied"}, nil
			case a.Find(tab, a.Unavailable) != nil:
				return tabs.Reply{Status: tabs.ReplySkipped, Reason: "job no longer available"}, nil
			}

			started = true
			e.writeStatus(ctx, models.FormStatus{JobKey: key, State: models.FormRunning})
			flow := e.NewFlow(tab, *msg.Job, msg.ResumeID)
			e.wg.Add(1)
			go func() {
				defer e.wg.Done()
				flow.Run(childCtx)
			}()
			e.Logger.Debug().Str("child", childID).Str("job", key).Msg("flow started")
			return tabs.Reply{Status: tabs.ReplyStarted}, nil
		}
	}
}

// Wait blocks until every started flow has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// writeStatus persists a FormStatus even after a stop.
func (e *Engine) writeStatus(ctx context.Context, fs models.FormStatus) {
	fs.UpdatedAt = e.now()
	if err := e.State.SetFormStatus(context.WithoutCancel(ctx), fs); err != nil {
		e.Logger.Error().Err(err).Str("state", string(fs.State)).Msg("failed to write form status")
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
