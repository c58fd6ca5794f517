// Package form reads question containers into field descriptors and writes
// answers back through each control's native input protocol.
package form

import (
	"strings"

	"go-autoapply/internal/dom"
	"go-autoapply/internal/models"
)

// Field is a described question together with the live controls behind it.
type Field struct {
	Descriptor models.FieldDescriptor
	Container  dom.Element
	// Controls holds the single control, or one control per option for
	// radio and checkbox groups (parallel to Descriptor.Options).
	Controls []dom.Element
}

// Primary is the control that owns the question's id and feedback.
func (f *Field) Primary() dom.Element {
	if len(f.Controls) == 0 {
		return nil
	}
	return f.Controls[0]
}

const maxQuestionLen = 300

// Describe builds the field for one question container. ok is false when the
// container holds no writable control.
func Describe(page dom.Page, container dom.Element) (*Field, bool) {
	var controls []dom.Element
	for _, c := range container.QueryAll(dom.WritableSelector) {
		if dom.IsWritable(c) {
			controls = append(controls, c)
		}
	}
	if len(controls) == 0 {
		return nil, false
	}

	f := &Field{Container: container}
	kind, group := classify(controls)
	f.Descriptor.Kind = kind
	f.Controls = group

	primary := group[0]
	f.Descriptor.InputID = primary.Attr("id")
	f.Descriptor.Question = questionText(page, container, primary, kind.Grouped())
	f.Descriptor.Constraints = constraints(primary, f.Descriptor.Question)

	switch kind {
	case models.KindSelect:
		for _, o := range primary.QueryAll("option") {
			val := o.Attr("value")
			if !o.HasAttr("value") {
				val = o.Text()
			}
			if strings.TrimSpace(val) == "" || o.HasAttr("disabled") {
				continue
			}
			f.Descriptor.Options = append(f.Descriptor.Options, models.Option{Text: o.Text(), Value: val})
		}
	case models.KindRadioGroup, models.KindCheckboxGroup:
		for _, c := range group {
			f.Descriptor.Options = append(f.Descriptor.Options, models.Option{
				Text:  optionLabel(page, c),
				Value: c.Attr("value"),
			})
			if c.HasAttr("required") {
				f.Descriptor.Constraints.Required = true
			}
		}
	}
	f.Descriptor.Prefilled = !IsEmpty(f)
	f.Descriptor.Question = strings.TrimSpace(strings.TrimSuffix(f.Descriptor.Question, "*"))
	return f, true
}

// classify picks the control kind and the controls that make it up.
func classify(controls []dom.Element) (models.ControlKind, []dom.Element) {
	var radios, checks []dom.Element
	for _, c := range controls {
		if c.Tag() != "input" {
			continue
		}
		switch c.Attr("type") {
		case "radio":
			radios = append(radios, c)
		case "checkbox":
			checks = append(checks, c)
		}
	}
	switch {
	case len(radios) > 0:
		return models.KindRadioGroup, radios
	case len(checks) > 1:
		return models.KindCheckboxGroup, checks
	}

	for _, c := range controls {
		switch c.Tag() {
		case "select":
			return models.KindSelect, []dom.Element{c}
		case "textarea":
			return models.KindLongText, []dom.Element{c}
		}
	}
	if len(checks) == 1 && len(controls) == 1 {
		return models.KindCheckbox, checks
	}

	for _, c := range controls {
		if c.Tag() != "input" {
			continue
		}
		switch c.Attr("type") {
		case "number":
			return models.KindNumber, []dom.Element{c}
		case "date":
			return models.KindDate, []dom.Element{c}
		case "email":
			return models.KindEmail, []dom.Element{c}
		case "tel":
			return models.KindTelephone, []dom.Element{c}
		case "checkbox", "radio":
			continue
		default:
			return models.KindText, []dom.Element{c}
		}
	}
	return models.KindCheckbox, checks
}

// questionText assembles candidates from the visible label, the accessible
// name and nearby legends, keeps the longest coherent one and appends the
// described-by helper text.
func questionText(page dom.Page, container, control dom.Element, grouped bool) string {
	var candidates []string

	for _, c := range container.Children() {
		if c.Tag() == "label" || c.Tag() == "legend" {
			candidates = append(candidates, c.Text())
			break
		}
	}
	if id := control.Attr("id"); id != "" && !grouped {
		for _, l := range container.QueryAll("label") {
			if l.Attr("for") == id {
				candidates = append(candidates, l.Text())
				break
			}
		}
	}
	if !grouped {
		if label := dom.Closest(control, "label"); label != nil {
			candidates = append(candidates, label.Text())
		}
		candidates = append(candidates, control.Attr("aria-label"))
	}
	candidates = append(candidates, idrefText(page, control.Attr("aria-labelledby")))
	if fs := dom.Closest(container, "fieldset"); fs != nil {
		if legend := dom.First(fs, "legend"); legend != nil {
			candidates = append(candidates, legend.Text())
		}
	}
	if len(candidates) == 0 || longest(candidates) == "" {
		if l := dom.First(container, "label"); l != nil {
			candidates = append(candidates, l.Text())
		}
	}

	question := longest(candidates)
	if helper := idrefText(page, control.Attr("aria-describedby")); helper != "" && !strings.Contains(question, helper) {
		if len(question)+len(helper) < maxQuestionLen {
			question = question + " " + helper
		}
	}
	return dom.CollapseSpace(question)
}

func longest(candidates []string) string {
	best := ""
	for _, c := range candidates {
		c = dom.CollapseSpace(c)
		if len(c) > maxQuestionLen {
			continue
		}
		if len(c) > len(best) {
			best = c
		}
	}
	return best
}

func idrefText(page dom.Page, ids string) string {
	var parts []string
	for _, id := range strings.Fields(ids) {
		if el := page.ByID(id); el != nil {
			if t := el.Text(); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

func optionLabel(page dom.Page, control dom.Element) string {
	if id := control.Attr("id"); id != "" {
		for _, l := range page.QueryAll("label") {
			if l.Attr("for") == id {
				return l.Text()
			}
		}
	}
	if label := dom.Closest(control, "label"); label != nil {
		return label.Text()
	}
	if v := control.Attr("aria-label"); v != "" {
		return v
	}
	return control.Attr("value")
}

func constraints(control dom.Element, question string) models.Constraints {
	return models.Constraints{
		Required: control.HasAttr("required") || control.Attr("aria-required") == "true" || strings.HasSuffix(strings.TrimSpace(question), "*"),
		Min:      control.Attr("min"),
		Max:      control.Attr("max"),
		Step:     control.Attr("step"),
		Pattern:  control.Attr("pattern"),
	}
}

// IsEmpty reports whether the field currently holds no answer.
func IsEmpty(f *Field) bool {
	switch f.Descriptor.Kind {
	case models.KindRadioGroup, models.KindCheckboxGroup, models.KindCheckbox:
		for _, c := range f.Controls {
			if c.Checked() {
				return false
			}
		}
		return true
	default:
		p := f.Primary()
		return p == nil || strings.TrimSpace(p.Value()) == ""
	}
}
