package htmldom

import (
	"context"
	"testing"

	"go-autoapply/internal/dom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `<html><body>
<form>
  <div class="q"><label for="exp">Years</label><input id="exp" type="number"></div>
  <div class="q"><label for="cv">Cover</label><textarea id="cv"></textarea></div>
  <select id="sal"><option value="">--</option><option value="mr">Herr</option><option value="ms">Frau</option></select>
  <input type="radio" name="r" id="r1" value="yes"><input type="radio" name="r" id="r2" value="no">
  <input type="checkbox" id="c1">
  <input type="hidden" id="h" value="x">
  <div style="display: none"><input id="invisible"></div>
  <button id="next">Weiter</button>
</form></body></html>`

func TestPage_WriteAndReadBack(t *testing.T) {
	ctx := context.Background()
	p := MustNew("https://example.test/apply", fixture)

	exp := p.ByID("exp")
	require.NotNil(t, exp)
	require.NoError(t, exp.Fill(ctx, "5"))
	assert.Equal(t, "5", p.ByID("exp").Value())

	cv := p.ByID("cv")
	require.NoError(t, cv.Fill(ctx, "Hello <world>"))
	assert.Equal(t, "Hello <world>", p.ByID("cv").Value())

	sal := p.ByID("sal")
	assert.Equal(t, "", sal.Value())
	require.NoError(t, sal.SelectOption(ctx, "Herr"))
	assert.Equal(t, "mr", p.ByID("sal").Value())
	assert.Error(t, sal.SelectOption(ctx, "Dr."))
}

func TestPage_RadioAndCheckbox(t *testing.T) {
	ctx := context.Background()
	p := MustNew("https://example.test", fixture)

	require.NoError(t, p.ByID("r1").Click(ctx))
	require.NoError(t, p.ByID("r2").Click(ctx))
	assert.False(t, p.ByID("r1").Checked())
	assert.True(t, p.ByID("r2").Checked())

	c := p.ByID("c1")
	require.NoError(t, c.Click(ctx))
	assert.True(t, p.ByID("c1").Checked())
	require.NoError(t, c.Click(ctx))
	assert.False(t, p.ByID("c1").Checked())
}

func TestPage_Visibility(t *testing.T) {
	p := MustNew("https://example.test", fixture)
	assert.True(t, p.ByID("exp").Visible())
	assert.False(t, p.ByID("h").Visible())
	assert.False(t, p.ByID("invisible").Visible())
}

func TestPage_HooksAndNavigation(t *testing.T) {
	ctx := context.Background()
	p := MustNew("https://example.test/step1", fixture)
	changes := 0
	p.OnChange = func(*Page, *Element) { changes++ }
	p.OnClick = func(p *Page, el *Element) error {
		if el.Attr("id") == "next" {
			return p.Navigate("https://example.test/step2", `<html><body><p id="done">ok</p></body></html>`)
		}
		return nil
	}

	require.NoError(t, p.ByID("exp").Fill(ctx, "1"))
	assert.Equal(t, 1, changes)

	next := dom.First(p, "button")
	require.NotNil(t, next)
	require.NoError(t, next.Click(ctx))
	assert.Equal(t, "https://example.test/step2", p.URL())
	assert.Equal(t, "ok", p.ByID("done").Text())
	assert.Nil(t, p.ByID("exp"))
}

func TestPage_ParentChain(t *testing.T) {
	p := MustNew("https://example.test", fixture)
	input := p.ByID("exp")
	form := dom.Closest(input, "form")
	require.NotNil(t, form)
	assert.Equal(t, "form", form.Tag())
	assert.Nil(t, dom.Closest(input, "table"))
}
