// Package dom is the narrow view of a web page the form engine works
// against. Reads never fail: a vanished node or a dead page yields zero
// values. Writes return errors.
package dom

import "context"

// Element is one node of the current document.
type Element interface {
	Tag() string
	Attr(name string) string
	HasAttr(name string) bool
	// Text is the rendered text, whitespace-collapsed.
	Text() string
	// Value is the current value of an input, textarea or select.
	Value() string
	Checked() bool
	Visible() bool
	Parent() Element
	Children() []Element
	QueryAll(selector string) []Element
	// Same reports whether other is the same node.
	Same(other Element) bool
	// Contains reports whether other is a strict descendant.
	Contains(other Element) bool

	// Fill focuses, clears, assigns and dispatches input/change.
	Fill(ctx context.Context, value string) error
	// SetValue assigns without clearing first and dispatches input/change.
	SetValue(ctx context.Context, value string) error
	SelectOption(ctx context.Context, value string) error
	SetChecked(ctx context.Context, checked bool) error
	Click(ctx context.Context) error
}

// Page is one browsing context.
type Page interface {
	URL() string
	QueryAll(selector string) []Element
	ByID(id string) Element
}

// First returns the first match or nil.
func First(root interface{ QueryAll(string) []Element }, selector string) Element {
	els := root.QueryAll(selector)
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

// Closest walks up from el (inclusive) to the first ancestor with the tag.
func Closest(el Element, tag string) Element {
	for cur := el; cur != nil; cur = cur.Parent() {
		if cur.Tag() == tag {
			return cur
		}
	}
	return nil
}

// IsWritable reports whether el is a control the form engine can answer.
func IsWritable(el Element) bool {
	switch el.Tag() {
	case "textarea", "select":
		return !el.HasAttr("disabled")
	case "input":
		switch el.Attr("type") {
		case "hidden", "submit", "button", "reset", "image", "file":
			return false
		}
		return !el.HasAttr("disabled")
	}
	return false
}

// WritableSelector matches every control IsWritable may accept.
const WritableSelector = "input, textarea, select"
