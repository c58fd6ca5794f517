package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/config"
	"go-autoapply/internal/dom"
)

func TestLoadCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name":"li_at","value":"abc","domain":".linkedin.com","path":"/","expires":1893456000,"httpOnly":true,"secure":true,"sameSite":"None"},
		{"name":"sid","value":"x","domain":".stepstone.de","expirationDate":1893456000,"sameSite":"lax"},
		{"name":"","value":"dropped","domain":".stepstone.de"}
	]`), 0644))

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "li_at", cookies[0].Name)
	assert.Equal(t, ".linkedin.com", *cookies[0].Domain)
	assert.True(t, *cookies[0].HttpOnly)
	assert.Equal(t, playwright.SameSiteAttributeNone, cookies[0].SameSite)

	assert.Equal(t, "/", *cookies[1].Path)
	assert.Equal(t, 1893456000.0, *cookies[1].Expires)
	assert.Equal(t, playwright.SameSiteAttributeLax, cookies[1].SameSite)
	assert.Nil(t, cookies[1].Secure)
}

func TestLoadCookies_Errors(t *testing.T) {
	_, err := LoadCookies(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0644))
	_, err = LoadCookies(bad)
	assert.Error(t, err)
}

const formFixture = `<html><body><form>
<div class="q"><label for="years">Jahre</label><input id="years" type="number"></div>
<div class="q"><label for="start">Start</label><input id="start" type="date"></div>
<select id="salutation"><option value="">Bitte wählen</option><option value="mr">Herr</option></select>
<input id="agree" type="checkbox">
<button id="next" type="button" onclick="this.textContent='clicked'">Weiter</button>
</form></body></html>`

// Requires installed browsers; run without -short.
func TestPage_AgainstFixture(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	ctx := context.Background()
	pm, err := NewPlaywright(ctx, config.BrowserConfig{Headless: true}, arbor.NewLogger())
	if err != nil {
		t.Skipf("playwright unavailable: %v", err)
	}
	defer pm.Close()

	page, opener, err := pm.Session(nil)
	require.NoError(t, err)
	require.NotNil(t, opener)

	require.NoError(t, page.Raw().Route("**/*", func(route playwright.Route) {
		route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(200),
			ContentType: playwright.String("text/html"),
			Body:        formFixture,
		})
	}))
	require.NoError(t, page.Goto(ctx, "https://www.stepstone.de/application/1"))
	assert.Equal(t, "https://www.stepstone.de/application/1", page.URL())

	years := page.ByID("years")
	require.NotNil(t, years)
	assert.Equal(t, "input", years.Tag())
	assert.Equal(t, "number", years.Attr("type"))
	require.NoError(t, years.Fill(ctx, "5"))
	assert.Equal(t, "5", years.Value())

	container := years.Parent()
	require.NotNil(t, container)
	assert.Equal(t, "q", container.Attr("class"))
	assert.True(t, container.Contains(years))
	assert.False(t, years.Contains(container))
	assert.True(t, dom.First(container, "input").Same(years))
	assert.Len(t, container.Children(), 2)

	start := page.ByID("start")
	require.NoError(t, start.SetValue(ctx, "2026-12-16"))
	assert.Equal(t, "2026-12-16", start.Value())

	sel := page.ByID("salutation")
	require.NoError(t, sel.SelectOption(ctx, "mr"))
	assert.Equal(t, "mr", sel.Value())

	agree := page.ByID("agree")
	require.NoError(t, agree.SetChecked(ctx, true))
	assert.True(t, agree.Checked())

	next := page.ByID("next")
	assert.True(t, next.Visible())
	require.NoError(t, next.Click(ctx))
	assert.Equal(t, "clicked", next.Text())

	assert.Nil(t, page.ByID("missing"))
	require.NoError(t, page.Close(ctx))
	require.NoError(t, page.Close(ctx))
}
