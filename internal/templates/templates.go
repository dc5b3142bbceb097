// Package templates orders and filters the project template catalogue.
package templates

import (
	"sort"
	"strings"

	"cwmanager/pkg/types"
)

// Sort orders list by label, case-insensitively, in place. Ties keep their
// original order.
func Sort(list []types.Template) {
	sort.SliceStable(list, func(i, j int) bool {
		return strings.ToLower(list[i].Label) < strings.ToLower(list[j].Label)
	})
}

// Filter returns the templates whose label, description, language, project
// type or source contains text, ignoring case. Empty text matches everything.
func Filter(list []types.Template, text string) []types.Template {
	text = strings.ToLower(strings.TrimSpace(text))
	out := make([]types.Template, 0, len(list))
	for _, t := range list {
		if text == "" || matches(t, text) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t types.Template, text string) bool {
	for _, f := range []string{t.Label, t.Description, t.Language, t.ProjectType, t.Source} {
		if strings.Contains(strings.ToLower(f), text) {
			return true
		}
	}
	return false
}
