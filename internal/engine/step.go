package engine

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"go-autoapply/internal/answer"
	"go-autoapply/internal/dom"
	"go-autoapply/internal/form"
	"go-autoapply/internal/site"
)

// StepEngine answers every question of the current wizard step, verifies
// the step and retries the gaps once.
type StepEngine struct {
	Adapter   *site.Adapter
	Answerer  *answer.Answerer
	Collector *answer.Collector
	// RetryPause separates retried questions.
	RetryPause time.Duration
	Logger     arbor.ILogger
}

// gap is a field that is still empty or carries a live validation error.
type gap struct {
	field  *form.Field
	reason string
}

// Run handles one step. Field failures never surface; the only error is
// ErrStopped.
func (s *StepEngine) Run(ctx context.Context, page dom.Page) error {
	containers := s.Adapter.FindQuestionContainers(page)
	if len(containers) == 0 {
		s.Logger.Debug().Msg("step has no questions")
		return nil
	}

	for _, c := range containers {
		if ctx.Err() != nil {
			return ErrStopped
		}
		f, ok := form.Describe(page, c)
		if !ok {
			continue
		}
		s.Collector.Add(s.Answerer.Handle(ctx, page, f, false))
	}
	if ctx.Err() != nil {
		return ErrStopped
	}

	gaps := s.verify(page)
	if len(gaps) == 0 {
		return nil
	}

	s.Logger.Info().Int("unanswered", len(gaps)).Msg("🔁 retrying unanswered questions")
	for _, g := range gaps {
		if err := sleep(ctx, s.RetryPause); err != nil {
			return ErrStopped
		}
		s.Collector.Add(s.Answerer.Handle(ctx, page, g.field, true))
	}
	if ctx.Err() != nil {
		return ErrStopped
	}

	for _, g := range s.verify(page) {
		s.Logger.Warn().Str("question", g.field.Descriptor.Question).Str("reason", g.reason).Msg("question left unanswered")
		s.Collector.Annotate(g.field.Descriptor.Question, g.reason)
	}
	return nil
}

// verify re-enumerates the step and returns the gaps. Questions the site
// pre-fills are never gaps.
func (s *StepEngine) verify(page dom.Page) []gap {
	var gaps []gap
	for _, c := range s.Adapter.FindQuestionContainers(page) {
		f, ok := form.Describe(page, c)
		if !ok || s.Adapter.ShouldSkip(f.Descriptor.Question) {
			continue
		}
		if form.IsEmpty(f) {
			gaps = append(gaps, gap{field: f, reason: "no value"})
			continue
		}
		if res := s.Answerer.Writer.Feedback(page, f); !res.OK {
			gaps = append(gaps, gap{field: f, reason: res.Error})
		}
	}
	return gaps
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
