// Package reporter fans run events out to the log, Telegram and any live
// status subscribers.
package reporter

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"go-autoapply/internal/models"
)

type EventType string

const (
	EventStatus   EventType = "STATUS_UPDATE"
	EventJobDone  EventType = "JOB_RESULT"
	EventComplete EventType = "PROCESS_COMPLETE"
)

// Summary counts a run's outcomes.
type Summary struct {
	Processed    int  `json:"processed"`
	Success      int  `json:"success"`
	Skipped      int  `json:"skipped"`
	Failed       int  `json:"failed"`
	ExternalForm int  `json:"externalForm"`
	Stopped      bool `json:"stopped"`
}

// Add counts one job result.
func (s *Summary) Add(r models.JobResult) {
	s.Processed++
	switch r.Outcome {
	case models.OutcomeSuccess:
		s.Success++
	case models.OutcomeSkipped:
		s.Skipped++
	case models.OutcomeExternalForm:
		s.ExternalForm++
	case models.OutcomeStopped:
		s.Stopped = true
	default:
		s.Failed++
	}
}

type Event struct {
	Type    EventType         `json:"type"`
	RunID   string            `json:"runId,omitempty"`
	Message string            `json:"message,omitempty"`
	Result  *models.JobResult `json:"result,omitempty"`
	Summary *Summary          `json:"summary,omitempty"`
	Time    time.Time         `json:"time"`
}

// Notifier receives run events. Implementations must not block the run for
// long and report their own failures.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Multi delivers each event to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, ev)
		}
	}
}

// Log writes events to the structured log.
type Log struct {
	Logger arbor.ILogger
}

func (l Log) Notify(_ context.Context, ev Event) {
	switch ev.Type {
	case EventJobDone:
		r := ev.Result
		e := l.Logger.Info()
		if r.Outcome == models.OutcomeError || r.Outcome == models.OutcomeTimeout {
			e = l.Logger.Warn()
		}
		e.Str("outcome", string(r.Outcome)).Str("job", r.Job.Key()).Str("title", r.Job.Title).
			Str("application", r.ApplicationID).Str("reason", r.Reason).Msg("job finished")
	case EventComplete:
		s := ev.Summary
		l.Logger.Info().Int("processed", s.Processed).Int("success", s.Success).Int("skipped", s.Skipped).
			Int("failed", s.Failed).Bool("stopped", s.Stopped).Msg("✅ run complete")
	default:
		l.Logger.Info().Str("run", ev.RunID).Msg(ev.Message)
	}
}

// Recorder keeps every event; the control server serves the tail as state.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = r.events[len(r.events)-r.limit:]
	}
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
