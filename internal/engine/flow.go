package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"go-autoapply/internal/answer"
	"go-autoapply/internal/dom"
	"go-autoapply/internal/models"
)

// Capturer is implemented by pages that can save a debug screenshot.
type Capturer interface {
	Capture(name, message string) error
}

// Flow is the application state machine of one job. It is used once.
type Flow struct {
	engine    *Engine
	page      dom.Page
	job       models.JobDescriptor
	collector *answer.Collector
	steps     *StepEngine
	logger    arbor.ILogger
}

// Run drives the job to a terminal state, persists it and returns it.
func (f *Flow) Run(ctx context.Context) models.FormStatus {
	f.logger.Info().Str("title", f.job.Title).Str("company", f.job.Company).Msg("▶️ starting application")

	fs := f.run(ctx)
	fs.JobKey = f.job.Key()
	f.engine.writeStatus(ctx, fs)

	ev := f.logger.Info()
	if fs.State == models.FormError {
		ev = f.logger.Warn()
		if c, ok := f.page.(Capturer); ok {
			if err := c.Capture("job_error_"+f.job.JobID, fs.Reason); err != nil {
				f.logger.Debug().Err(err).Msg("screenshot failed")
			}
		}
	}
	ev.Str("state", string(fs.State)).Str("application", fs.ApplicationID).Str("reason", fs.Reason).Msg("🏁 application finished")
	return fs
}

// Entries exposes the answers collected so far.
func (f *Flow) Entries() []models.QAEntry {
	return f.collector.Entries()
}

func (f *Flow) run(ctx context.Context) models.FormStatus {
	a := f.engine.Adapter

	if ctx.Err() != nil {
		return stopped()
	}
	if !a.IsOnSite(f.page.URL()) {
		return external(f.page.URL())
	}

	// the continue button wins even inside the wizard
	switch {
	case a.Find(f.page, a.ContinueApplication) != nil:
		f.logger.Debug().Msg("continuing an existing application")
		if err := f.click(ctx, a.Find(f.page, a.ContinueApplication)); err != nil {
			return f.fail(err)
		}
	case a.HasForm(f.page) || a.InApplication(f.page.URL()):
	default:
		apply := a.Find(f.page, a.ApplyNow)
		if apply == nil {
			return failed(ErrNoApply)
		}
		if err := f.click(ctx, apply); err != nil {
			return f.fail(err)
		}
	}
	if !a.IsOnSite(f.page.URL()) {
		return external(f.page.URL())
	}

	for step := 1; step <= f.engine.Config.MaxSteps; step++ {
		if ctx.Err() != nil {
			return stopped()
		}
		if id, ok := a.MatchConfirmation(f.page.URL()); ok {
			return f.complete(ctx, id, false)
		}

		f.logger.Debug().Int("step", step).Str("url", f.page.URL()).Msg("running step")
		if err := f.steps.Run(ctx, f.page); err != nil {
			return stopped()
		}

		if next := a.Find(f.page, a.NextStep); next != nil {
			if err := f.click(ctx, next); err != nil {
				return f.fail(err)
			}
			if !a.IsOnSite(f.page.URL()) {
				return external(f.page.URL())
			}
			continue
		}
		if submit := a.Find(f.page, a.FinalSubmit); submit != nil {
			return f.submit(ctx)
		}
		return failed(ErrNoNavigation)
	}
	return failed(ErrStepLimit)
}

// submit clicks the final control and watches for the confirmation, with
// one full retry.
func (f *Flow) submit(ctx context.Context) models.FormStatus {
	a := f.engine.Adapter

	if f.engine.Config.DryRun {
		f.logger.Info().Int("answers", f.collector.Len()).Msg("🧪 dry run, not submitting")
		return models.FormStatus{State: models.FormCompleted, DryRun: true}
	}

	for attempt := 0; attempt < 2; attempt++ {
		btn := a.Find(f.page, a.FinalSubmit)
		if btn == nil {
			break
		}
		if err := btn.Click(ctx); err != nil {
			return f.fail(err)
		}
		id, err := f.watch(ctx)
		switch {
		case err == nil:
			return f.complete(ctx, id, attempt > 0)
		case errors.Is(err, ErrStopped):
			return stopped()
		}
		f.logger.Warn().Int("attempt", attempt+1).Msg("confirmation not seen")
	}
	return failed(ErrNotConfirmed)
}

// watch polls the URL for the confirmation path.
func (f *Flow) watch(ctx context.Context) (string, error) {
	t := f.engine.Config.Timeouts
	deadline := time.NewTimer(t.Confirmation)
	defer deadline.Stop()
	tick := time.NewTicker(t.JobPoll)
	defer tick.Stop()

	for {
		if id, ok := f.engine.Adapter.MatchConfirmation(f.page.URL()); ok {
			return id, nil
		}
		select {
		case <-ctx.Done():
			return "", ErrStopped
		case <-deadline.C:
			return "", fmt.Errorf("no confirmation within %s", t.Confirmation)
		case <-tick.C:
		}
	}
}

// complete flushes the collected answers, the only place that does.
func (f *Flow) complete(ctx context.Context, applicationID string, wasRetry bool) models.FormStatus {
	fs := models.FormStatus{
		State:           models.FormCompleted,
		ApplicationID:   applicationID,
		ConfirmationURL: f.page.URL(),
		WasRetry:        wasRetry,
	}
	if f.engine.Records == nil {
		return fs
	}
	if _, err := f.engine.Records.RecordApplication(context.WithoutCancel(ctx), f.job, fs, f.collector.Entries()); err != nil {
		f.logger.Error().Err(err).Msg("failed to record application")
		fs.Reason = err.Error()
	}
	return fs
}

// click checks for a stop first and waits for the page to react.
func (f *Flow) click(ctx context.Context, el dom.Element) error {
	if ctx.Err() != nil {
		return ErrStopped
	}
	if err := el.Click(ctx); err != nil {
		return err
	}
	if err := sleep(ctx, f.engine.Config.Timeouts.AfterClick); err != nil {
		return ErrStopped
	}
	return nil
}

func (f *Flow) fail(err error) models.FormStatus {
	if errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) {
		return stopped()
	}
	return failed(err)
}

func stopped() models.FormStatus {
	return models.FormStatus{State: models.FormStopped}
}

func external(url string) models.FormStatus {
	return models.FormStatus{State: models.FormExternalForm, Reason: url}
}

func failed(err error) models.FormStatus {
	return models.FormStatus{State: models.FormError, Reason: err.Error()}
}
