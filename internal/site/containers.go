package site

import (
	"strings"

	"go-autoapply/internal/dom"
)

// FindQuestionContainers returns the smallest groups holding a label and at
// least one writable control. Containers with a direct-child label win; when
// none qualify, any container with a descendant label is accepted.
func (a *Adapter) FindQuestionContainers(root interface{ QueryAll(string) []dom.Element }) []dom.Element {
	// one grouped query keeps candidates in document order
	var candidates []dom.Element
	for _, el := range root.QueryAll(strings.Join(a.QuestionContainers, ", ")) {
		if !containsSame(candidates, el) {
			candidates = append(candidates, el)
		}
	}

	groups := filterContainers(root, candidates, hasDirectLabel)
	if len(groups) == 0 {
		groups = filterContainers(root, candidates, hasAnyLabel)
	}
	return innermost(groups)
}

func filterContainers(root interface{ QueryAll(string) []dom.Element }, candidates []dom.Element, labelled func(dom.Element) bool) []dom.Element {
	var out []dom.Element
	for _, el := range candidates {
		if !el.Visible() || !labelled(el) || !hasWritable(el) {
			continue
		}
		if splitsGroup(root, el) {
			continue
		}
		out = append(out, el)
	}
	return out
}

func hasDirectLabel(el dom.Element) bool {
	for _, c := range el.Children() {
		switch c.Tag() {
		case "label", "legend":
			return true
		}
	}
	return false
}

func hasAnyLabel(el dom.Element) bool {
	return len(el.QueryAll("label, legend")) > 0
}

func hasWritable(el dom.Element) bool {
	for _, c := range el.QueryAll(dom.WritableSelector) {
		if dom.IsWritable(c) {
			return true
		}
	}
	return false
}

// splitsGroup reports whether el holds only part of a named radio or
// checkbox group, i.e. it wraps a single option rather than the question.
func splitsGroup(root interface{ QueryAll(string) []dom.Element }, el dom.Element) bool {
	inside := map[string]int{}
	for _, c := range el.QueryAll("input[type=radio], input[type=checkbox]") {
		if name := c.Attr("name"); name != "" {
			inside[name]++
		}
	}
	if len(inside) == 0 {
		return false
	}
	total := map[string]int{}
	for _, c := range root.QueryAll("input[type=radio], input[type=checkbox]") {
		if name := c.Attr("name"); inside[name] > 0 {
			total[name]++
		}
	}
	for name, n := range inside {
		if total[name] > n {
			return true
		}
	}
	return false
}

// innermost drops every group that contains another group.
func innermost(groups []dom.Element) []dom.Element {
	out := make([]dom.Element, 0, len(groups))
	for i, g := range groups {
		outer := false
		for j, other := range groups {
			if i != j && g.Contains(other) {
				outer = true
				break
			}
		}
		if !outer {
			out = append(out, g)
		}
	}
	return out
}

func containsSame(list []dom.Element, el dom.Element) bool {
	for _, x := range list {
		if x.Same(el) {
			return true
		}
	}
	return false
}
