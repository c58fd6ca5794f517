package browser

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"go-autoapply/internal/dom"
)

// Element adapts an element handle.
type Element struct {
	h playwright.ElementHandle
}

func wrap(handles []playwright.ElementHandle) []dom.Element {
	out := make([]dom.Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &Element{h: h})
	}
	return out
}

func (e *Element) evalString(expr string, arg ...any) string {
	v, err := e.h.Evaluate(expr, arg...)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (e *Element) evalBool(expr string, arg ...any) bool {
	v, err := e.h.Evaluate(expr, arg...)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (e *Element) Tag() string {
	return e.evalString("e => e.tagName.toLowerCase()")
}

func (e *Element) Attr(name string) string {
	v, err := e.h.GetAttribute(name)
	if err != nil {
		return ""
	}
	return v
}

func (e *Element) HasAttr(name string) bool {
	return e.evalBool("(e, n) => e.hasAttribute(n)", name)
}

func (e *Element) Text() string {
	t, err := e.h.TextContent()
	if err != nil {
		return ""
	}
	return dom.CollapseSpace(t)
}

func (e *Element) Value() string {
	v, err := e.h.InputValue()
	if err != nil {
		return ""
	}
	return v
}

func (e *Element) Checked() bool {
	c, err := e.h.IsChecked()
	return err == nil && c
}

func (e *Element) Visible() bool {
	v, err := e.h.IsVisible()
	return err == nil && v
}

func (e *Element) Parent() dom.Element {
	js, err := e.h.EvaluateHandle("e => e.parentElement")
	if err != nil {
		return nil
	}
	h := js.AsElement()
	if h == nil {
		return nil
	}
	return &Element{h: h}
}

func (e *Element) Children() []dom.Element {
	return e.QueryAll(":scope > *")
}

func (e *Element) QueryAll(selector string) []dom.Element {
	handles, err := e.h.QuerySelectorAll(selector)
	if err != nil {
		return nil
	}
	return wrap(handles)
}

func (e *Element) Same(other dom.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil {
		return false
	}
	return e.evalBool("(e, o) => e === o", o.h)
}

func (e *Element) Contains(other dom.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil {
		return false
	}
	return e.evalBool("(e, o) => e !== o && e.contains(o)", o.h)
}

func (e *Element) Fill(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.h.Fill(value)
}

// SetValue assigns through the DOM so inputs with custom pickers (date
// fields) receive the ISO value untouched.
func (e *Element) SetValue(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := e.h.Evaluate(`(e, v) => {
		e.focus();
		e.value = v;
		e.dispatchEvent(new Event('input', { bubbles: true }));
		e.dispatchEvent(new Event('change', { bubbles: true }));
		e.blur();
	}`, value)
	return err
}

func (e *Element) SelectOption(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := e.h.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}})
	return err
}

func (e *Element) SetChecked(ctx context.Context, checked bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.h.SetChecked(checked)
}

func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.h.Click()
}
