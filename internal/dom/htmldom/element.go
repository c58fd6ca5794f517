package htmldom

import (
	"context"
	"fmt"
	"strings"

	"go-autoapply/internal/dom"

	"github.com/PuerkitoBio/goquery"
)

// Element is a single node of a Page.
type Element struct {
	page *Page
	sel  *goquery.Selection
}

// Selection exposes the underlying goquery node to hooks.
func (e *Element) Selection() *goquery.Selection { return e.sel }

func (e *Element) Tag() string {
	return goquery.NodeName(e.sel)
}

func (e *Element) Attr(name string) string {
	v, _ := e.sel.Attr(name)
	return v
}

func (e *Element) HasAttr(name string) bool {
	_, ok := e.sel.Attr(name)
	return ok
}

func (e *Element) Text() string {
	return dom.CollapseSpace(e.sel.Text())
}

func (e *Element) Value() string {
	switch e.Tag() {
	case "textarea":
		return e.sel.Text()
	case "select":
		opts := e.sel.Find("option")
		selected := opts.FilterFunction(func(_ int, s *goquery.Selection) bool {
			_, ok := s.Attr("selected")
			return ok
		})
		if selected.Length() == 0 {
			selected = opts.First()
		}
		if selected.Length() == 0 {
			return ""
		}
		return optionValue(selected.First())
	case "input":
		v, ok := e.sel.Attr("value")
		if !ok && (e.Attr("type") == "checkbox" || e.Attr("type") == "radio") {
			return "on"
		}
		return v
	}
	return ""
}

func (e *Element) Checked() bool {
	return e.HasAttr("checked")
}

// Visible treats hidden inputs, the hidden attribute and inline display:none
// on the node or any ancestor as invisible.
func (e *Element) Visible() bool {
	if e.Tag() == "input" && e.Attr("type") == "hidden" {
		return false
	}
	for cur := e.sel; cur.Length() > 0; cur = cur.Parent() {
		if _, ok := cur.Attr("hidden"); ok {
			return false
		}
		style, _ := cur.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func (e *Element) Parent() dom.Element {
	parent := e.sel.Parent()
	if parent.Length() == 0 {
		return nil
	}
	return &Element{page: e.page, sel: parent}
}

func (e *Element) Children() []dom.Element {
	return wrapAll(e.page, e.sel.Children())
}

func (e *Element) QueryAll(selector string) []dom.Element {
	return wrapAll(e.page, e.sel.Find(selector))
}

func (e *Element) Same(other dom.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil || len(o.sel.Nodes) == 0 || len(e.sel.Nodes) == 0 {
		return false
	}
	return o.sel.Nodes[0] == e.sel.Nodes[0]
}

func (e *Element) Contains(other dom.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil || len(o.sel.Nodes) == 0 || len(e.sel.Nodes) == 0 {
		return false
	}
	self := e.sel.Nodes[0]
	for n := o.sel.Nodes[0].Parent; n != nil; n = n.Parent {
		if n == self {
			return true
		}
	}
	return false
}

func (e *Element) Fill(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch e.Tag() {
	case "textarea":
		e.sel.SetText(value)
	case "input":
		e.sel.SetAttr("value", value)
	default:
		return fmt.Errorf("cannot fill <%s>", e.Tag())
	}
	e.page.changed(e)
	return nil
}

func (e *Element) SetValue(ctx context.Context, value string) error {
	return e.Fill(ctx, value)
}

func (e *Element) SelectOption(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Tag() != "select" {
		return fmt.Errorf("cannot select on <%s>", e.Tag())
	}
	opts := e.sel.Find("option")
	match := opts.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return optionValue(s) == value
	})
	if match.Length() == 0 {
		match = opts.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return dom.CollapseSpace(s.Text()) == value
		})
	}
	if match.Length() == 0 {
		return fmt.Errorf("no option %q", value)
	}
	opts.RemoveAttr("selected")
	match.First().SetAttr("selected", "selected")
	e.page.changed(e)
	return nil
}

func (e *Element) SetChecked(ctx context.Context, checked bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	typ := e.Attr("type")
	if e.Tag() != "input" || (typ != "checkbox" && typ != "radio") {
		return fmt.Errorf("cannot check <%s type=%q>", e.Tag(), typ)
	}
	if !checked {
		e.sel.RemoveAttr("checked")
		e.page.changed(e)
		return nil
	}
	if typ == "radio" {
		if name := e.Attr("name"); name != "" {
			e.page.doc.Find("input[type=radio]").Each(func(_ int, s *goquery.Selection) {
				if n, _ := s.Attr("name"); n == name {
					s.RemoveAttr("checked")
				}
			})
		}
	}
	e.sel.SetAttr("checked", "checked")
	e.page.changed(e)
	return nil
}

// Click applies the default behavior for checkboxes, radios and labels, then
// runs the page's OnClick hook.
func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch e.Tag() {
	case "input":
		switch e.Attr("type") {
		case "checkbox":
			if err := e.SetChecked(ctx, !e.Checked()); err != nil {
				return err
			}
		case "radio":
			if err := e.SetChecked(ctx, true); err != nil {
				return err
			}
		}
	case "label":
		if target := e.labelTarget(); target != nil {
			return target.Click(ctx)
		}
	}
	if e.page.OnClick != nil {
		return e.page.OnClick(e.page, e)
	}
	return nil
}

func (e *Element) labelTarget() *Element {
	if id := e.Attr("for"); id != "" {
		if el, ok := e.page.ByID(id).(*Element); ok && el != nil {
			return el
		}
	}
	inner := e.sel.Find("input").First()
	if inner.Length() == 0 {
		return nil
	}
	return &Element{page: e.page, sel: inner}
}

func optionValue(s *goquery.Selection) string {
	if v, ok := s.Attr("value"); ok {
		return v
	}
	return dom.CollapseSpace(s.Text())
}
