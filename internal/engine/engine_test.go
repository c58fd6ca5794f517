package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/ai"
	"go-autoapply/internal/answer"
	"go-autoapply/internal/config"
	"go-autoapply/internal/dom/htmldom"
	"go-autoapply/internal/form"
	"go-autoapply/internal/models"
	"go-autoapply/internal/reporter"
	"go-autoapply/internal/runner"
	"go-autoapply/internal/site"
	"go-autoapply/internal/store"
	"go-autoapply/internal/tabs"
)

var today = time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)

var job = models.JobDescriptor{
	Site:    models.SiteStepStone,
	JobID:   "12345",
	URL:     "https://www.stepstone.de/stellenangebote--go-developer-12345.html",
	Title:   "Go Developer",
	Company: "ACME",
}

type fakeOracle struct {
	mu      sync.Mutex
	answers map[string]string
	asked   []string
}

func (o *fakeOracle) Answer(_ context.Context, req ai.Request) (ai.Response, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.asked = append(o.asked, req.Question)
	return ai.Response{Answer: o.answers[req.Question], Confidence: 0.8, Model: "qwen2.5:3b"}, nil
}

func (o *fakeOracle) calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.asked...)
}

type recordSink struct {
	mu      sync.Mutex
	calls   int
	status  models.FormStatus
	entries []models.QAEntry
}

func (r *recordSink) RecordApplication(_ context.Context, _ models.JobDescriptor, fs models.FormStatus, entries []models.QAEntry) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.status = fs
	r.entries = entries
	return "rec-1", nil
}

func (r *recordSink) flushed() (int, []models.QAEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, r.entries
}

type harness struct {
	engine *Engine
	state  *store.State
	oracle *fakeOracle
	sink   *recordSink
}

func newHarness(t *testing.T, answers map[string]string) *harness {
	t.Helper()
	logger := arbor.NewLogger()
	kv, err := store.OpenBadger("", logger)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	a := site.StepStone()
	now := func() time.Time { return today }
	oracle := &fakeOracle{answers: answers}
	sink := &recordSink{}
	state := store.NewState(kv, a.Site)

	e := &Engine{
		Adapter: a,
		Answerer: &answer.Answerer{
			Adapter: a,
			Oracle:  oracle,
			Writer:  &form.Writer{Adapter: a, DateFallbackMonths: 2, Now: now},
			Policy: config.PolicyConfig{
				YearsOfExperience: "5", StartDateMonths: 2, Salutation: "Herr",
				Availability: "Immediately", SalaryDefault: "60000",
				CommuteAnswer: "Yes", CommuteAnswerDE: "Ja", NegotiableFallback: "Ja",
			},
			Logger: logger,
			Now:    now,
		},
		State:   state,
		Records: sink,
		Config: Config{
			MaxSteps: 4,
			Timeouts: config.TimeoutConfig{Confirmation: 40 * time.Millisecond, JobPoll: 2 * time.Millisecond},
		},
		Logger: logger,
		Now:    now,
	}
	return &harness{engine: e, state: state, oracle: oracle, sink: sink}
}

func (h *harness) stored(t *testing.T) models.FormStatus {
	t.Helper()
	fs, ok, err := h.state.FormStatus(context.Background())
	require.NoError(t, err)
	require.True(t, ok, "form status must be persisted")
	return fs
}

func stepURL(n int) string {
	return fmt.Sprintf("https://www.stepstone.de/application/12345/step/%d", n)
}

const confirmURL = "https://www.stepstone.de/application/confirmation/success?applicationId=%s"

// wizard serves the steps in order on next-step clicks. onSubmit runs on
// every click of the submit control with the running click count.
func wizard(onSubmit func(p *htmldom.Page, clicks int) error, steps ...string) *htmldom.Page {
	p := htmldom.MustNew(stepURL(1), steps[0])
	current, submits := 0, 0
	p.OnClick = func(p *htmldom.Page, el *htmldom.Element) error {
		switch el.Attr("data-testid") {
		case "next-step":
			current++
			return p.Navigate(stepURL(current+1), steps[current])
		case "submit-application":
			submits++
			if onSubmit != nil {
				return onSubmit(p, submits)
			}
		}
		return nil
	}
	return p
}

func confirmOn(id string, click int) func(*htmldom.Page, int) error {
	return func(p *htmldom.Page, clicks int) error {
		if clicks == click {
			p.SetURL(fmt.Sprintf(confirmURL, id))
		}
		return nil
	}
}

func page(body string) string {
	return `<html><body><form data-testid="application-form">` + body + `</form></body></html>`
}

const (
	nextButton   = `<button type="button" data-testid="next-step">Weiter</button>`
	submitButton = `<button type="submit" data-testid="submit-application">Bewerbung senden</button>`
)

var happySteps = []string{
	page(`<div data-testid="question"><label for="first">Vorname</label><input id="first" value="Max"></div>
<div data-testid="question"><label for="mail">E-Mail</label><input id="mail" type="email" value="max@example.com"></div>
<div data-testid="question"><label for="phone">Telefonnummer</label><input id="phone" type="tel" value="0151 000000"></div>
<div data-testid="question"><label for="sal">Anrede</label><select id="sal"><option value="">Bitte wählen</option><option value="mrs">Frau</option><option value="mr">Herr</option></select></div>` + nextButton),
	page(`<div data-testid="question"><label for="years">Years of experience?</label><input id="years" type="text"></div>
<div data-testid="question"><label for="start">Start date?</label><input id="start" type="date"></div>` + nextButton),
	page(`<div data-testid="question"><label for="cover">Why do you want to join ACME?</label><textarea id="cover"></textarea></div>` + submitButton),
}

func TestFlow_HappyPath(t *testing.T) {
	h := newHarness(t, map[string]string{"Why do you want to join ACME?": "I like building reliable Go services."})
	p := wizard(confirmOn("A1", 1), happySteps...)

	fs := h.engine.NewFlow(p, job, "").Run(context.Background())

	assert.Equal(t, models.FormCompleted, fs.State)
	assert.Equal(t, "A1", fs.ApplicationID)
	assert.False(t, fs.WasRetry)
	assert.Equal(t, fs.ApplicationID, h.stored(t).ApplicationID)
	assert.Equal(t, models.FormCompleted, h.stored(t).State)

	assert.Equal(t, []string{"Why do you want to join ACME?"}, h.oracle.calls(), "hard-coded questions never reach the oracle")

	calls, entries := h.sink.flushed()
	require.Equal(t, 1, calls)
	got := map[string]string{}
	for _, e := range entries {
		got[e.Question] = e.Answer
	}
	assert.Equal(t, map[string]string{
		"Anrede":                        "Herr",
		"Years of experience?":          "5",
		"Start date?":                   "2026-12-16",
		"Why do you want to join ACME?": "I like building reliable Go services.",
	}, got, "pre-filled name, email and phone are skipped")
}

func TestFlow_ValidationCorrection(t *testing.T) {
	q := "Wie viele Stunden pro Woche möchtest du arbeiten?"
	h := newHarness(t, map[string]string{q: "25"})
	p := wizard(confirmOn("C3", 1), page(`<div data-testid="question"><label for="hours">`+q+`</label>
<input id="hours" type="number"><div id="hours-feedback" class="invalid-feedback"></div></div>`+submitButton))
	p.OnChange = func(p *htmldom.Page, el *htmldom.Element) {
		fb := p.ByID("hours-feedback").(*htmldom.Element).Selection()
		v, _ := strconv.ParseFloat(el.Value(), 64)
		if v < 30 {
			fb.SetText("Bitte gib mindestens 30 an.")
		} else {
			fb.SetText("")
		}
	}

	fs := h.engine.NewFlow(p, job, "").Run(context.Background())
	require.Equal(t, models.FormCompleted, fs.State)
	assert.Equal(t, "30", p.ByID("hours").Value())

	_, entries := h.sink.flushed()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].WasCorrected)
	assert.Equal(t, "25", entries[0].OriginalAnswer)
	assert.Equal(t, "30", entries[0].Answer)
	assert.Empty(t, entries[0].ValidationNote)
}

func TestFlow_RequiredEmptyTakesFirstOption(t *testing.T) {
	q := "Do you hold a valid work permit?"
	h := newHarness(t, map[string]string{q: ""})
	p := wizard(confirmOn("R1", 1), page(`<fieldset><legend>`+q+`</legend>
<label><input type="radio" name="permit" value="y"> Yes</label>
<label><input type="radio" name="permit" value="n"> No</label></fieldset>`+submitButton))

	fs := h.engine.NewFlow(p, job, "").Run(context.Background())
	require.Equal(t, models.FormCompleted, fs.State)

	checked := p.QueryAll("input[type=radio]")
	require.Len(t, checked, 2)
	assert.True(t, checked[0].Checked())
	assert.False(t, checked[1].Checked())
}

func TestFlow_CheckboxGroup(t *testing.T) {
	q := "Which languages do you use?"
	h := newHarness(t, map[string]string{q: "Java, SQL"})
	p := wizard(confirmOn("K1", 1), page(`<fieldset><legend>`+q+`</legend>
<input type="checkbox" id="l1"><label for="l1">Java</label>
<input type="checkbox" id="l2"><label for="l2">SQL</label>
<input type="checkbox" id="l3"><label for="l3">COBOL</label></fieldset>`+submitButton))

	require.Equal(t, models.FormCompleted, h.engine.NewFlow(p, job, "").Run(context.Background()).State)
	assert.True(t, p.ByID("l1").Checked())
	assert.True(t, p.ByID("l2").Checked())
	assert.False(t, p.ByID("l3").Checked())
}

func TestFlow_ExternalRedirect(t *testing.T) {
	h := newHarness(t, nil)
	p := htmldom.MustNew(job.URL, `<html><body><h1>Go Developer</h1><a href="#" data-at="apply-button">Jetzt bewerben</a></body></html>`)
	p.OnClick = func(p *htmldom.Page, el *htmldom.Element) error {
		p.SetURL("https://careers.acme.example/apply/12345")
		return nil
	}

	fs := h.engine.NewFlow(p, job, "").Run(context.Background())
	assert.Equal(t, models.FormExternalForm, fs.State)
	assert.Equal(t, models.FormExternalForm, h.stored(t).State)
	calls, _ := h.sink.flushed()
	assert.Zero(t, calls)
}

func TestFlow_NoApplyControl(t *testing.T) {
	h := newHarness(t, nil)
	p := htmldom.MustNew(job.URL, `<html><body><h1>Go Developer</h1></body></html>`)

	fs := h.engine.NewFlow(p, job, "").Run(context.Background())
	assert.Equal(t, models.FormError, fs.State)
	assert.Equal(t, ErrNoApply.Error(), fs.Reason)
}

func TestFlow_ContinueButtonWins(t *testing.T) {
	h := newHarness(t, nil)
	p := htmldom.MustNew(stepURL(1), page(`<button type="button" data-testid="continue-application">Bewerbung fortsetzen</button>`))
	continued := false
	p.OnClick = func(p *htmldom.Page, el *htmldom.Element) error {
		switch el.Attr("data-testid") {
		case "continue-application":
			continued = true
			return p.Navigate(stepURL(2), page(submitButton))
		case "submit-application":
			p.SetURL(fmt.Sprintf(confirmURL, "CW"))
		}
		return nil
	}

	fs := h.engine.NewFlow(p, job, "").Run(context.Background())
	assert.True(t, continued)
	assert.Equal(t, models.FormCompleted, fs.State)
	assert.Equal(t, "CW", fs.ApplicationID)
}

func TestFlow_NoNavigationControl(t *testing.T) {
	h := newHarness(t, nil)
	p := htmldom.MustNew(stepURL(1), page(`<div data-testid="question"><label for="x">Vorname</label><input id="x" value="Max"></div>`))

	fs := h.engine.NewFlow(p, job, "").Run(context.Background())
	assert.Equal(t, models.FormError, fs.State)
	assert.Equal(t, "no navigation control", fs.Reason)
}

func TestFlow_SubmitRetry(t *testing.T) {
	tests := []struct {
		name     string
		confirm  int
		state    models.FormState
		id       string
		wasRetry bool
		reason   string
	}{
		{name: "second watch succeeds", confirm: 2, state: models.FormCompleted, id: "B7", wasRetry: true},
		{name: "never confirmed", confirm: 3, state: models.FormError, reason: "submission not confirmed after retry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			p := wizard(confirmOn("B7", tt.confirm), page(submitButton))

			fs := h.engine.NewFlow(p, job, "").Run(context.Background())
			assert.Equal(t, tt.state, fs.State)
			assert.Equal(t, tt.id, fs.ApplicationID)
			assert.Equal(t, tt.wasRetry, fs.WasRetry)
			assert.Equal(t, tt.reason, fs.Reason)

			calls, _ := h.sink.flushed()
			if tt.state == models.FormCompleted {
				assert.Equal(t, 1, calls)
			} else {
				assert.Zero(t, calls)
			}
		})
	}
}

func TestFlow_StopMidStep(t *testing.T) {
	answers := map[string]string{}
	var body string
	for i := 1; i <= 5; i++ {
		q := fmt.Sprintf("Tell us about topic %d", i)
		answers[q] = fmt.Sprintf("answer %d", i)
		body += fmt.Sprintf(`<div data-testid="question"><label for="f%d">%s</label><input id="f%d"></div>`, i, q, i)
	}
	h := newHarness(t, answers)
	p := wizard(confirmOn("S5", 1), page(body+submitButton))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	p.OnChange = func(p *htmldom.Page, el *htmldom.Element) {
		if el.Attr("id") == "f3" {
			stop()
		}
	}

	fs := h.engine.NewFlow(p, job, "").Run(ctx)
	assert.Equal(t, models.FormStopped, fs.State)
	assert.Equal(t, models.FormStopped, h.stored(t).State, "stop is persisted after cancellation")

	assert.Equal(t, "answer 3", p.ByID("f3").Value(), "the field in progress completes its write")
	assert.Empty(t, p.ByID("f4").Value())
	assert.Len(t, h.oracle.calls(), 3)
	assert.False(t, p.Closed())

	calls, _ := h.sink.flushed()
	assert.Zero(t, calls)
}

func TestFlow_StopDuringConfirmationWatch(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Config.Timeouts.Confirmation = time.Minute
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	p := wizard(func(*htmldom.Page, int) error {
		stop()
		return nil
	}, page(submitButton))

	fs := h.engine.NewFlow(p, job, "").Run(ctx)
	assert.Equal(t, models.FormStopped, fs.State)
	assert.Equal(t, models.FormStopped, h.stored(t).State)
	calls, _ := h.sink.flushed()
	assert.Zero(t, calls)
}

func TestFlow_DryRun(t *testing.T) {
	h := newHarness(t, map[string]string{"Why do you want to join ACME?": "Because."})
	h.engine.Config.DryRun = true
	submitted := false
	p := wizard(func(*htmldom.Page, int) error {
		submitted = true
		return nil
	}, happySteps...)

	fs := h.engine.NewFlow(p, job, "").Run(context.Background())
	assert.Equal(t, models.FormCompleted, fs.State)
	assert.True(t, fs.DryRun)
	assert.Empty(t, fs.ApplicationID)
	assert.False(t, submitted)
	calls, _ := h.sink.flushed()
	assert.Zero(t, calls)
}

func TestFlow_RetryAnnotatesLeftovers(t *testing.T) {
	q := "Describe a project"
	h := newHarness(t, map[string]string{q: "A small CLI"})
	p := wizard(confirmOn("N1", 1), page(`<div data-testid="question"><label for="d">`+q+`</label><input id="d">
<div id="d-feedback" class="invalid-feedback"></div></div>`+submitButton))
	p.OnChange = func(p *htmldom.Page, el *htmldom.Element) {
		p.ByID("d-feedback").(*htmldom.Element).Selection().SetText("Ungültige Eingabe")
	}

	fs := h.engine.NewFlow(p, job, "").Run(context.Background())
	require.Equal(t, models.FormCompleted, fs.State)
	assert.Len(t, h.oracle.calls(), 2, "one fresh oracle call on retry")

	_, entries := h.sink.flushed()
	require.Len(t, entries, 1)
	assert.Equal(t, "Ungültige Eingabe", entries[0].ValidationNote)
}

func TestAttach(t *testing.T) {
	h := newHarness(t, nil)
	p := wizard(confirmOn("T1", 1), page(submitButton))
	handler := h.engine.Attach()(context.Background(), "child-1", p)

	reply, err := handler(context.Background(), tabs.Message{Action: tabs.ActionProcessJob, Job: &job})
	require.NoError(t, err)
	assert.Equal(t, tabs.ReplyStarted, reply.Status)
	h.engine.Wait()

	assert.Equal(t, models.FormCompleted, h.stored(t).State)
	assert.Equal(t, "T1", h.stored(t).ApplicationID)

	again, err := handler(context.Background(), tabs.Message{Action: tabs.ActionProcessJob, Job: &job})
	require.NoError(t, err)
	assert.Equal(t, tabs.ReplyStarted, again.Status, "a repeated directive does not start a second flow")

	bad, err := handler(context.Background(), tabs.Message{Action: "ping"})
	require.NoError(t, err)
	assert.Equal(t, tabs.ReplyError, bad.Status)
}

func TestAttach_OffSite(t *testing.T) {
	h := newHarness(t, nil)
	p := htmldom.MustNew("https://jobs.example.org/apply", `<html><body></body></html>`)

	reply, err := h.engine.Attach()(context.Background(), "child-1", p)(context.Background(), tabs.Message{Action: tabs.ActionProcessJob, Job: &job})
	require.NoError(t, err)
	assert.Equal(t, tabs.ReplyExternalForm, reply.Status)
	assert.True(t, reply.Definitive())
	assert.Equal(t, models.FormExternalForm, h.stored(t).State)
}

func TestAttach_SettledBeforeFlow(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status string
	}{
		{"already applied", `<div class="banner"><p>Du hast dich bereits beworben.</p></div>`, tabs.ReplyAlreadyApplied},
		{"expired", `<h1>Diese Stelle ist nicht mehr verfügbar</h1>`, tabs.ReplySkipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			p := htmldom.MustNew(job.URL, `<html><body>`+tt.body+`</body></html>`)

			reply, err := h.engine.Attach()(context.Background(), "child-1", p)(context.Background(), tabs.Message{Action: tabs.ActionProcessJob, Job: &job})
			require.NoError(t, err)
			assert.Equal(t, tt.status, reply.Status)
			assert.True(t, reply.Definitive())
			h.engine.Wait()
			_, ok, err := h.state.FormStatus(context.Background())
			require.NoError(t, err)
			assert.False(t, ok, "no flow was started")
		})
	}
}

// slowOracle answers after delay unless its context ends first.
type slowOracle struct{ delay time.Duration }

func (o slowOracle) Answer(ctx context.Context, _ ai.Request) (ai.Response, error) {
	select {
	case <-ctx.Done():
		return ai.Response{}, ctx.Err()
	case <-time.After(o.delay):
		return ai.Response{Answer: "Because I like Go.", Confidence: 0.9}, nil
	}
}

type pagedSource struct{ jobs []models.JobDescriptor }

func (s pagedSource) Jobs(context.Context) ([]models.JobDescriptor, error) { return s.jobs, nil }
func (s pagedSource) CurrentPage() int                                     { return 1 }
func (s pagedSource) TotalPages(context.Context) (int, error)              { return 1, nil }
func (s pagedSource) GoToPage(context.Context, int) (bool, error)          { return false, nil }

// queuedOpener hands out the prepared pages in order.
type queuedOpener struct {
	mu    sync.Mutex
	pages []*htmldom.Page
}

func (o *queuedOpener) Open(context.Context, string) (tabs.Tab, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p := o.pages[0]
	o.pages = o.pages[1:]
	return p, nil
}

func TestAttach_TimedOutJobDoesNotLeakIntoNext(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Answerer.Oracle = slowOracle{delay: 2 * time.Second}

	jobA := models.JobDescriptor{Site: models.SiteStepStone, JobID: "A", URL: "https://www.stepstone.de/a.html", Title: "A", Company: "ACME"}
	jobB := models.JobDescriptor{Site: models.SiteStepStone, JobID: "B", URL: "https://www.stepstone.de/b.html", Title: "B", Company: "ACME"}
	pageA := wizard(confirmOn("A-ID", 1), page(`<div data-testid="question"><label for="why">Why ACME?</label><textarea id="why"></textarea></div>`+submitButton))
	pageB := wizard(nil, page(submitButton))

	logger := arbor.NewLogger()
	parent := htmldom.MustNew("https://www.stepstone.de/jobs/go", `<html><body></body></html>`)
	coord := tabs.NewCoordinator(&queuedOpener{pages: []*htmldom.Page{pageA, pageB}}, parent, h.engine.Attach(), logger)
	coord.Backoff = []time.Duration{time.Millisecond}
	events := reporter.NewRecorder(0)
	r := &runner.Runner{
		Source:      pagedSource{jobs: []models.JobDescriptor{jobA, jobB}},
		Coordinator: coord,
		State:       h.state,
		Notifier:    events,
		Config: runner.Config{Timeouts: config.TimeoutConfig{
			JobPoll:     2 * time.Millisecond,
			Acknowledge: 100 * time.Millisecond,
			Job:         150 * time.Millisecond,
			StopGrace:   time.Second,
		}},
		Logger: logger,
	}

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	h.engine.Wait()

	results := map[string]models.JobResult{}
	for _, ev := range events.Events() {
		if ev.Type == reporter.EventJobDone {
			results[ev.Result.Job.Title] = *ev.Result
		}
	}
	assert.Equal(t, models.OutcomeTimeout, results["A"].Outcome)
	assert.Equal(t, models.OutcomeError, results["B"].Outcome, "B never confirmed")
	assert.Empty(t, results["B"].ApplicationID)

	assert.True(t, pageA.Closed())
	calls, _ := h.sink.flushed()
	assert.Zero(t, calls, "the cancelled flow never reached the confirmation")

	fs := h.stored(t)
	assert.Equal(t, jobB.Key(), fs.JobKey)
	assert.Equal(t, models.FormError, fs.State)
}
