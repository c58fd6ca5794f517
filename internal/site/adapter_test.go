package site

import (
	"testing"

	"go-autoapply/internal/dom/htmldom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stepFixture = `<html><body><form data-testid="application-form">
<div data-testid="question"><label for="first">Vorname</label><input id="first" value="Max"></div>
<div data-testid="question"><label for="years">Wie viele Jahre Berufserfahrung?</label>
  <input id="years" type="number" min="1"><div id="years-feedback" class="invalid-feedback"></div></div>
<fieldset><legend>Pendeln?</legend>
  <div><input type="radio" name="commute" id="c-yes" value="ja"><label for="c-yes">Ja</label></div>
  <div><input type="radio" name="commute" id="c-no" value="nein"><label for="c-no">Nein</label></div>
</fieldset>
<div class="wrapper"><span>Decoration only</span></div>
<button type="button" disabled>Weiter</button>
<button type="button" data-testid="next-step">Weiter</button>
<button type="submit">Bewerbung senden</button>
</form></body></html>`

func TestLookup(t *testing.T) {
	a, err := Lookup("StepStone")
	require.NoError(t, err)
	assert.Equal(t, "stepstone", string(a.Site))

	_, err = Lookup("indeed")
	assert.Error(t, err)
}

func TestFindQuestionContainers(t *testing.T) {
	a := StepStone()
	page := htmldom.MustNew("https://www.stepstone.de/application/1", stepFixture)

	groups := a.FindQuestionContainers(page)
	require.Len(t, groups, 3)
	assert.Equal(t, "question", groups[0].Attr("data-testid"))
	assert.Equal(t, "question", groups[1].Attr("data-testid"))
	assert.Equal(t, "fieldset", groups[2].Tag(), "radio options must not split the group")
}

func TestFindQuestionContainers_DescendantLabelFallback(t *testing.T) {
	a := StepStone()
	page := htmldom.MustNew("https://www.stepstone.de/application/1", `<html><body><form>
<fieldset><div><span><label for="x">Motivation</label></span></div><textarea id="x"></textarea></fieldset>
</form></body></html>`)

	groups := a.FindQuestionContainers(page)
	require.Len(t, groups, 1)
	assert.Equal(t, "fieldset", groups[0].Tag())
}

func TestFindQuestionContainers_Empty(t *testing.T) {
	page := htmldom.MustNew("https://www.stepstone.de", `<html><body><p>Nothing here</p></body></html>`)
	assert.Empty(t, StepStone().FindQuestionContainers(page))
}

func TestFind_RulesSkipDisabledAndKeepOrder(t *testing.T) {
	a := StepStone()
	page := htmldom.MustNew("https://www.stepstone.de/application/1", stepFixture)

	next := a.Find(page, a.NextStep)
	require.NotNil(t, next)
	assert.Equal(t, "next-step", next.Attr("data-testid"))

	submit := a.Find(page, a.FinalSubmit)
	require.NotNil(t, submit)
	assert.Equal(t, "Bewerbung senden", submit.Text())

	assert.Nil(t, a.Find(page, a.ContinueApplication))
}

func TestShouldSkip(t *testing.T) {
	a := StepStone()
	for _, q := range []string{"Vorname", "E-Mail-Adresse", "Telefonnummer", "Ländervorwahl", "Phone country code"} {
		assert.True(t, a.ShouldSkip(q), q)
	}
	for _, q := range []string{"Wie viele Jahre Berufserfahrung?", "Gehaltsvorstellung"} {
		assert.False(t, a.ShouldSkip(q), q)
	}
}

func TestMatchConfirmation(t *testing.T) {
	a := StepStone()
	url := "https://www.stepstone.de/application/confirmation/success?applicationId=XYZ&x=1"

	id, ok := a.MatchConfirmation(url)
	require.True(t, ok)
	assert.Equal(t, "XYZ", id)

	again, ok := a.MatchConfirmation(url)
	require.True(t, ok)
	assert.Equal(t, id, again)

	_, ok = a.MatchConfirmation("https://www.stepstone.de/application/confirmation/success")
	assert.False(t, ok)
	_, ok = a.MatchConfirmation("https://www.stepstone.de/application/step/2?applicationId=XYZ")
	assert.False(t, ok)
}

func TestIsOnSiteAndInApplication(t *testing.T) {
	a := StepStone()
	assert.True(t, a.IsOnSite("https://www.stepstone.de/stellenangebote--x.html"))
	assert.True(t, a.IsOnSite("about:blank"))
	assert.False(t, a.IsOnSite("https://careers.example.com/apply"))
	assert.False(t, a.IsOnSite("https://stepstone.de.evil.com/"))

	assert.True(t, a.InApplication("https://www.stepstone.de/application/123/step/1"))
	assert.False(t, a.InApplication("https://www.stepstone.de/jobs"))
}

func TestFeedbackFor(t *testing.T) {
	a := StepStone()
	page := htmldom.MustNew("https://www.stepstone.de/application/1", stepFixture)
	groups := a.FindQuestionContainers(page)
	require.Len(t, groups, 3)

	input := page.ByID("years")
	fb := a.FeedbackFor(page, groups[1], input)
	require.NotNil(t, fb)
	assert.Equal(t, "years-feedback", fb.Attr("id"))

	lone := htmldom.MustNew("https://www.stepstone.de/application/1", `<html><body><form>
<div data-testid="question"><label for="q">Q</label><input id="q"></div></form></body></html>`)
	assert.Nil(t, a.FeedbackFor(lone, a.FindQuestionContainers(lone)[0], lone.ByID("q")))
}

func TestFeedbackFor_GrandparentSkipsOtherQuestions(t *testing.T) {
	a := StepStone()
	page := htmldom.MustNew("https://www.stepstone.de/application/1", `<html><body><form>
<div class="section"><div class="row">
  <div data-testid="question"><label for="hours">Stunden pro Woche</label><input id="hours"></div>
  <div data-testid="question"><label for="years">Jahre</label><input id="years"><span role="alert">Mindestens 3</span></div>
</div></div>
<div class="section"><div class="row">
  <div data-testid="question"><label for="city">Wohnort</label><input id="city"></div>
</div><div role="alert">Bitte ausfüllen</div></div>
</form></body></html>`)
	groups := a.FindQuestionContainers(page)
	require.Len(t, groups, 3)

	assert.Nil(t, a.FeedbackFor(page, groups[0], page.ByID("hours")), "a sibling question's message is not ours")

	own := a.FeedbackFor(page, groups[1], page.ByID("years"))
	require.NotNil(t, own)
	assert.Equal(t, "Mindestens 3", own.Text())

	shared := a.FeedbackFor(page, groups[2], page.ByID("city"))
	require.NotNil(t, shared)
	assert.Equal(t, "Bitte ausfüllen", shared.Text())
}
