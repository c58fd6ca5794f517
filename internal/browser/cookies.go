package browser

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/playwright-community/playwright-go"
)

// Cookie is one entry of a JSON cookie export.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
	// ExpirationDate is the extension export's name for Expires.
	ExpirationDate float64 `json:"expirationDate"`
}

// LoadCookies reads a cookie export and converts it for a browser context.
func LoadCookies(path string) ([]playwright.OptionalCookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse cookies %s: %w", path, err)
	}

	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" || c.Domain == "" {
			continue
		}
		out = append(out, c.ToPlaywright())
	}
	return out, nil
}

func (c Cookie) ToPlaywright() playwright.OptionalCookie {
	path := c.Path
	if path == "" {
		path = "/"
	}
	pc := playwright.OptionalCookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: playwright.String(c.Domain),
		Path:   playwright.String(path),
	}
	switch {
	case c.Expires > 0:
		pc.Expires = playwright.Float(c.Expires)
	case c.ExpirationDate > 0:
		pc.Expires = playwright.Float(c.ExpirationDate)
	}
	if c.HTTPOnly {
		pc.HttpOnly = playwright.Bool(true)
	}
	if c.Secure {
		pc.Secure = playwright.Bool(true)
	}

	switch c.SameSite {
	case "Lax", "lax":
		pc.SameSite = playwright.SameSiteAttributeLax
	case "Strict", "strict":
		pc.SameSite = playwright.SameSiteAttributeStrict
	case "None", "none", "no_restriction":
		pc.SameSite = playwright.SameSiteAttributeNone
	}
	return pc
}
