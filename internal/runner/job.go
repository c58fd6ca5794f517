package runner

import (
	"context"
	"errors"
	"time"

	"go-autoapply/internal/models"
	"go-autoapply/internal/tabs"
)

// processJob opens the job in a child, hands it the directive and waits for
// the child's terminal FormStatus.
func (r *Runner) processJob(ctx context.Context, job models.JobDescriptor) models.JobResult {
	res := models.JobResult{Job: job}
	bg := context.WithoutCancel(ctx)

	if r.Filter != nil {
		if ok, reason := r.Filter.Allow(job); !ok {
			res.Outcome = models.OutcomeSkipped
			res.Reason = reason
			return res
		}
	}
	if r.Dedup != nil && r.Dedup.Seen(job) {
		res.Outcome = models.OutcomeSkipped
		res.Reason = "already handled"
		return res
	}

	r.status(ctx, "📝 "+job.Title+" @ "+job.Company)
	if err := r.State.ClearFormStatus(bg); err != nil {
		r.Logger.Warn().Err(err).Msg("failed to clear form status")
	}
	if err := r.State.SetCurrentJob(bg, job); err != nil {
		r.Logger.Warn().Err(err).Msg("failed to store current job")
	}

	childID, err := r.Coordinator.Open(ctx, job.URL)
	if err != nil {
		return r.settle(ctx, childID, r.openFailure(res, err))
	}

	reply, err := r.Coordinator.Send(ctx, childID, tabs.Message{Action: tabs.ActionProcessJob, Job: &job, ResumeID: r.Config.ResumeID})
	switch {
	case errors.Is(err, tabs.ErrStopped):
		res.Outcome = models.OutcomeStopped
		return r.settle(ctx, childID, res)
	case err != nil:
		res.Outcome = models.OutcomeError
		res.Reason = err.Error()
		return r.settle(ctx, childID, res)
	case reply.Definitive():
		res.Outcome = models.OutcomeSkipped
		if reply.Status == tabs.ReplyExternalForm {
			res.Outcome = models.OutcomeExternalForm
		}
		res.Reason = reply.Reason
		return r.settle(ctx, childID, res)
	case reply.Status == tabs.ReplyError:
		res.Outcome = models.OutcomeError
		res.Reason = reply.Reason
		return r.settle(ctx, childID, res)
	}

	key := job.Key()
	fs, err := r.waitTerminal(ctx, key)
	if err == nil {
		return r.settle(ctx, childID, fromStatus(res, fs))
	}

	if ctx.Err() != nil {
		res.Outcome = models.OutcomeStopped
	} else {
		// closing ends the child's context; the flow winds down on its own
		res.Outcome = models.OutcomeTimeout
		res.Reason = err.Error()
		if cerr := r.Coordinator.Close(bg, childID); cerr != nil {
			r.Logger.Warn().Err(cerr).Str("child", childID).Msg("failed to close child")
		}
	}
	if last, ok := r.drain(bg, key); ok && last.State == models.FormCompleted {
		// the confirmation landed while the child was being cancelled
		return r.settle(ctx, childID, fromStatus(res, last))
	}
	return r.settle(ctx, childID, res)
}

func (r *Runner) openFailure(res models.JobResult, err error) models.JobResult {
	switch {
	case errors.Is(err, tabs.ErrStopped):
		res.Outcome = models.OutcomeStopped
	case errors.Is(err, tabs.ErrLoadTimeout):
		res.Outcome = models.OutcomeTimeout
		res.Reason = err.Error()
	default:
		res.Outcome = models.OutcomeError
		res.Reason = err.Error()
	}
	return res
}

// waitTerminal polls the FormStatus of the job named by key until it is
// terminal. Statuses left by another job are ignored. A child that never
// acknowledges is given Acknowledge; a running one is given Job.
func (r *Runner) waitTerminal(ctx context.Context, key string) (models.FormStatus, error) {
	t := r.Config.Timeouts
	start := time.Now()
	tick := time.NewTicker(t.JobPoll)
	defer tick.Stop()

	for {
		fs, ok := r.formStatus(ctx, key)
		if ok && fs.Terminal() {
			return fs, nil
		}
		elapsed := time.Since(start)
		if !ok && elapsed > t.Acknowledge {
			return fs, errors.New("child never acknowledged")
		}
		if elapsed > t.Job {
			return fs, errors.New("job did not finish in time")
		}
		select {
		case <-ctx.Done():
			return fs, ctx.Err()
		case <-tick.C:
		}
	}
}

// drain waits up to StopGrace for a cancelled child to write its terminal
// status, so the next job starts only after this one has let go.
func (r *Runner) drain(ctx context.Context, key string) (models.FormStatus, bool) {
	t := r.Config.Timeouts
	deadline := time.Now().Add(t.StopGrace)
	for {
		fs, ok := r.formStatus(ctx, key)
		if ok && fs.Terminal() {
			return fs, true
		}
		if !time.Now().Before(deadline) {
			r.Logger.Warn().Str("job", key).Dur("grace", t.StopGrace).Msg("child did not report its end")
			return fs, false
		}
		if err := sleep(ctx, t.JobPoll); err != nil {
			return fs, false
		}
	}
}

func (r *Runner) formStatus(ctx context.Context, key string) (models.FormStatus, bool) {
	fs, ok, err := r.State.FormStatus(ctx)
	if err != nil && ctx.Err() == nil {
		r.Logger.Warn().Err(err).Msg("could not read form status")
	}
	if !ok || fs.JobKey != key {
		return models.FormStatus{}, false
	}
	return fs, true
}

func fromStatus(res models.JobResult, fs models.FormStatus) models.JobResult {
	res.Reason = fs.Reason
	switch fs.State {
	case models.FormCompleted:
		res.Outcome = models.OutcomeSuccess
		res.ApplicationID = fs.ApplicationID
		res.WasRetry = fs.WasRetry
	case models.FormExternalForm:
		res.Outcome = models.OutcomeExternalForm
	case models.FormStopped:
		res.Outcome = models.OutcomeStopped
	default:
		res.Outcome = models.OutcomeError
	}
	return res
}

// settle closes the child unless the job stopped, returns focus to the
// listing and remembers the outcome.
func (r *Runner) settle(ctx context.Context, childID string, res models.JobResult) models.JobResult {
	bg := context.WithoutCancel(ctx)
	if childID != "" && res.Outcome != models.OutcomeStopped {
		if err := r.Coordinator.Close(bg, childID); err != nil {
			r.Logger.Warn().Err(err).Str("child", childID).Msg("failed to close child")
		}
	}
	if err := r.Coordinator.ActivateParent(bg); err != nil {
		r.Logger.Warn().Err(err).Msg("failed to focus listing")
	}
	if r.Dedup != nil {
		r.Dedup.Mark(res.Job, res.Outcome)
	}
	return res
}
