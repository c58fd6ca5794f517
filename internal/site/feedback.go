package site

import "go-autoapply/internal/dom"

// FeedbackFor locates the validation-feedback element of a control: by the
// control's id first, then inside the question container, then inside the
// container's grandparent. Grandparent feedback that sits inside another
// question belongs to that question and is passed over. It returns nil when
// the site renders none.
func (a *Adapter) FeedbackFor(page dom.Page, container, control dom.Element) dom.Element {
	if control != nil {
		if id := control.Attr("id"); id != "" {
			for _, suffix := range []string{"-feedback", "-error"} {
				if el := page.ByID(id + suffix); el != nil {
					return el
				}
			}
		}
		if id := control.Attr("aria-errormessage"); id != "" {
			if el := page.ByID(id); el != nil {
				return el
			}
		}
	}
	if container == nil {
		return nil
	}
	if el := a.firstFeedback(container, nil); el != nil {
		return el
	}
	parent := container.Parent()
	if parent == nil {
		return nil
	}
	grand := parent.Parent()
	if grand == nil {
		return nil
	}
	others := a.FindQuestionContainers(page)
	return a.firstFeedback(grand, func(el dom.Element) bool {
		for _, o := range others {
			if o.Same(container) || o.Contains(container) {
				continue
			}
			if o.Contains(el) {
				return false
			}
		}
		return true
	})
}

// firstFeedback prefers a feedback element that currently shows text. keep,
// when set, filters the candidates.
func (a *Adapter) firstFeedback(root dom.Element, keep func(dom.Element) bool) dom.Element {
	var empty dom.Element
	for _, sel := range a.ValidationFeedback {
		for _, el := range root.QueryAll(sel) {
			if keep != nil && !keep(el) {
				continue
			}
			if el.Visible() && el.Text() != "" {
				return el
			}
			if empty == nil {
				empty = el
			}
		}
	}
	return empty
}
