package answer

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/ai"
	"go-autoapply/internal/config"
	"go-autoapply/internal/dom/htmldom"
	"go-autoapply/internal/form"
	"go-autoapply/internal/models"
	"go-autoapply/internal/site"
)

var today = time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)

var policy = config.PolicyConfig{
	YearsOfExperience:  "5",
	StartDateMonths:    2,
	Salutation:         "Herr",
	Availability:       "Immediately",
	SalaryDefault:      "60000",
	CommuteAnswer:      "Yes",
	CommuteAnswerDE:    "Ja",
	NegotiableFallback: "Ja",
}

type fakeOracle struct {
	answers map[string]string
	err     error
	asked   []ai.Request
}

func (o *fakeOracle) Answer(_ context.Context, req ai.Request) (ai.Response, error) {
	o.asked = append(o.asked, req)
	if o.err != nil {
		return ai.Response{}, o.err
	}
	return ai.Response{Answer: o.answers[req.Question], Confidence: 0.8, Model: "qwen2.5:3b"}, nil
}

func newAnswerer(oracle ai.Oracle) *Answerer {
	a := site.StepStone()
	now := func() time.Time { return today }
	return &Answerer{
		Adapter: a,
		Oracle:  oracle,
		Writer:  &form.Writer{Adapter: a, DateFallbackMonths: 2, Now: now},
		Policy:  policy,
		Logger:  arbor.NewLogger(),
		Now:     now,
	}
}

func fieldsOf(t *testing.T, p *htmldom.Page) []*form.Field {
	t.Helper()
	var out []*form.Field
	for _, c := range site.StepStone().FindQuestionContainers(p) {
		f, ok := form.Describe(p, c)
		require.True(t, ok)
		out = append(out, f)
	}
	return out
}

func TestMatchRule(t *testing.T) {
	tests := []struct {
		question string
		want     Rule
	}{
		{"Start date?", RuleStartDate},
		{"Frühester Eintrittstermin", RuleStartDate},
		{"Ab wann sind Sie verfügbar?", RuleStartDate},
		{"Years of experience?", RuleExperience},
		{"Wie viele Jahre Berufserfahrung hast du mit Go?", RuleExperience},
		{"Bist du bereit zu pendeln?", RuleCommute},
		{"Are you willing to commute to Berlin?", RuleCommute},
		{"Can you start immediately?", RuleImmediate},
		{"Anrede", RuleSalutation},
		{"Gehaltsvorstellung (brutto p.a.)", RuleSalary},
		{"Ist dein Gehalt verhandelbar?", RuleNegotiable},
		{"Is your salary expectation negotiable?", RuleNegotiable},
		{"Why do you want to work here?", RuleNone},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchRule(tt.question))
		})
	}
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, models.CategoryExperience, Categorize("How much experience with Kubernetes?"))
	assert.Equal(t, models.CategorySalary, Categorize("Gehaltsvorstellung"))
	assert.Equal(t, models.CategoryCommute, Categorize("Would you relocate?"))
	assert.Equal(t, models.CategoryDate, Categorize("Start date?"))
	assert.Equal(t, models.CategoryMotivation, Categorize("Why us?"))
	assert.Equal(t, models.CategoryOther, Categorize("Driving licence?"))
}

func TestFormatSpecFor(t *testing.T) {
	yesNo := models.FieldDescriptor{Kind: models.KindRadioGroup, Options: []models.Option{{Text: "Ja"}, {Text: "Nein"}}}
	spec := FormatSpecFor(yesNo)
	assert.Equal(t, models.AnswerBoolean, spec.Type)
	assert.Equal(t, "Answer format: boolean. Must be one of: Ja, Nein.", spec.String())

	levels := models.FieldDescriptor{Kind: models.KindSelect, Options: []models.Option{{Text: "Junior"}, {Text: "Senior"}}}
	assert.Equal(t, models.AnswerSelection, FormatSpecFor(levels).Type)

	num := models.FieldDescriptor{Kind: models.KindNumber, Constraints: models.Constraints{Required: true, Min: "1"}}
	spec = FormatSpecFor(num)
	assert.Equal(t, models.AnswerNumber, spec.Type)
	assert.Equal(t, "Required. Minimum 1. Digits only.", spec.Constraints)

	assert.False(t, IsBoolean([]string{"Yes", "No", "Maybe", "Later"}))
	assert.True(t, IsBoolean([]string{"Yes", "No", "Maybe"}))
}

func TestHandle_SkipHardcodedAndOracle(t *testing.T) {
	p := htmldom.MustNew("https://www.stepstone.de/application/1", `<html><body><form>
<div data-testid="question"><label for="first">Vorname</label><input id="first" value="Max"></div>
<div data-testid="question"><label for="sal">Anrede</label><select id="sal"><option value="">-</option><option>Frau</option><option>Herr</option></select></div>
<div data-testid="question"><label for="years">Years of experience?</label><input id="years" type="text"></div>
<div data-testid="question"><label for="start">Start date?</label><input id="start" type="date"></div>
<div data-testid="question"><label for="cover">Why do you want to join us?</label><textarea id="cover"></textarea></div>
</form></body></html>`)
	oracle := &fakeOracle{answers: map[string]string{"Why do you want to join us?": "Because of the product."}}
	a := newAnswerer(oracle)
	fields := fieldsOf(t, p)
	require.Len(t, fields, 5)

	c := NewCollector()
	for _, f := range fields {
		c.Add(a.Handle(context.Background(), p, f, false))
	}

	assert.Equal(t, "Max", p.ByID("first").Value())
	assert.Equal(t, "Herr", p.ByID("sal").Value())
	assert.Equal(t, "5", p.ByID("years").Value())
	assert.Equal(t, "2026-12-16", p.ByID("start").Value())
	assert.Equal(t, "Because of the product.", p.ByID("cover").Value())

	require.Len(t, oracle.asked, 1, "hard-coded questions never reach the oracle")
	assert.Equal(t, "Answer format: text.", oracle.asked[0].FormatSpec)

	entries := c.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, models.SourceHardcoded, entries[0].Source)
	assert.Equal(t, models.SourceOracle, entries[3].Source)
	assert.Equal(t, "qwen2.5:3b", entries[3].Model)
	assert.InDelta(t, 0.8, entries[3].Confidence, 1e-9)
	assert.Equal(t, models.CategoryMotivation, entries[3].Category)
}

func TestHandle_BooleanMapsToOption(t *testing.T) {
	p := htmldom.MustNew("https://www.stepstone.de/application/1", `<html><body><form>
<fieldset><legend>Hast du eine Arbeitserlaubnis?</legend>
<label><input type="radio" name="permit" value="1"> Ja</label><label><input type="radio" name="permit" value="0"> Nein</label></fieldset>
</form></body></html>`)
	a := newAnswerer(&fakeOracle{answers: map[string]string{"Hast du eine Arbeitserlaubnis?": "Yes, I have one"}})
	f := fieldsOf(t, p)[0]

	e := a.Handle(context.Background(), p, f, false)
	require.NotNil(t, e)
	assert.Equal(t, "Ja", e.Answer)
	assert.True(t, f.Controls[0].Checked())
}

const minHTML = `<html><body><form>
<div data-testid="question"><label for="hours">Wie viele Stunden pro Woche kannst du arbeiten?</label><input id="hours" type="number">
<div id="hours-feedback" class="invalid-feedback"></div></div></form></body></html>`

func minimumPage(t *testing.T, min float64, message string) *htmldom.Page {
	t.Helper()
	p := htmldom.MustNew("https://www.stepstone.de/application/1", minHTML)
	p.OnChange = func(p *htmldom.Page, el *htmldom.Element) {
		fb := p.ByID("hours-feedback").(*htmldom.Element).Selection()
		n, ok := form.ParseNumber(el.Value())
		v := 0.0
		if ok {
			v, _ = strconv.ParseFloat(n, 64)
		}
		if v < min {
			fb.SetText(message)
		} else {
			fb.SetText("")
		}
	}
	return p
}

func TestHandle_MinimumCorrection(t *testing.T) {
	tests := []struct {
		name     string
		min      float64
		message  string
		oracle   string
		want     string
		original string
	}{
		{"german feedback", 30, "Bitte gib mindestens 30 an.", "25", "30", "25"},
		{"english feedback with units", 20, "Please enter at least 20", "17 hours", "20", "17 hours"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := minimumPage(t, tt.min, tt.message)
			a := newAnswerer(&fakeOracle{answers: map[string]string{"Wie viele Stunden pro Woche kannst du arbeiten?": tt.oracle}})
			f := fieldsOf(t, p)[0]

			e := a.Handle(context.Background(), p, f, false)
			require.NotNil(t, e)
			assert.Equal(t, tt.want, p.ByID("hours").Value())
			assert.True(t, e.WasCorrected)
			assert.Equal(t, tt.original, e.OriginalAnswer)
			assert.Equal(t, tt.want, e.Answer)
			assert.Empty(t, e.ValidationNote)
		})
	}
}

func TestHandle_FallbackOnOracleFailure(t *testing.T) {
	p := htmldom.MustNew("https://www.stepstone.de/application/1", `<html><body><form>
<div data-testid="question"><label for="k8s">How much experience with Kubernetes?</label>
<select id="k8s"><option value="">Select</option><option>None</option><option>Some</option><option>A lot</option></select></div>
<div data-testid="question"><label for="move">Would you relocate?</label>
<select id="move"><option value="">Select</option><option>Maybe</option><option>Yes</option><option>No</option></select></div>
<div data-testid="question"><label for="lic">Driving licence class</label>
<select id="lic"><option value="">Select</option><option>B</option><option>C</option></select></div>
<div data-testid="question"><label for="gh">GitHub profile</label><input id="gh"></div>
</form></body></html>`)
	a := newAnswerer(&fakeOracle{err: errors.New("oracle transport failed")})
	fields := fieldsOf(t, p)

	var entries []*models.QAEntry
	for _, f := range fields {
		entries = append(entries, a.Handle(context.Background(), p, f, false))
	}

	assert.Equal(t, "Some", entries[0].Answer)
	assert.Equal(t, "Yes", entries[1].Answer)
	assert.Equal(t, "B", entries[2].Answer)
	for _, e := range entries[:3] {
		assert.Equal(t, models.SourceFallback, e.Source)
		assert.InDelta(t, 0.5, e.Confidence, 1e-9)
	}

	assert.Empty(t, entries[3].Answer)
	assert.Equal(t, "no answer available", entries[3].ValidationNote)
	assert.Empty(t, p.ByID("gh").Value())
}

func TestCollector_ReplacesByQuestion(t *testing.T) {
	c := NewCollector()
	c.Add(&models.QAEntry{Question: "a", Answer: "1"})
	c.Add(&models.QAEntry{Question: "b", Answer: "2"})
	c.Add(&models.QAEntry{Question: "a", Answer: "3"})
	c.Add(nil)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "3", entries[0].Answer)
	assert.Equal(t, 2, c.Len())

	c.Reset()
	assert.Zero(t, c.Len())
}

func TestCollector_KeepsEarlierCorrection(t *testing.T) {
	q := "Wie viele Stunden?"
	c := NewCollector()
	c.Add(&models.QAEntry{Question: q, Answer: "20", WasCorrected: true, OriginalAnswer: "17", CorrectionReason: "Mindestens 20"})
	c.Add(&models.QAEntry{Question: q, Answer: "25"})

	got := c.Entries()[0]
	assert.Equal(t, "25", got.Answer)
	assert.True(t, got.WasCorrected)
	assert.Equal(t, "17", got.OriginalAnswer)
	assert.Equal(t, "Mindestens 20", got.CorrectionReason)

	c.Add(&models.QAEntry{Question: q, Answer: "30", WasCorrected: true, OriginalAnswer: "25", CorrectionReason: "Höchstens 30"})
	got = c.Entries()[0]
	assert.Equal(t, "25", got.OriginalAnswer, "a newer correction wins")
	assert.Equal(t, "Höchstens 30", got.CorrectionReason)
}
