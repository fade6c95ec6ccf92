package templates

import (
	"regexp"
	"sort"
)

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// Substitute replaces {name} placeholders with values from vars.
// Placeholders with no value are left as written, so a table entry that
// names an unknown term renders visibly instead of collapsing to "".
func Substitute(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := vars[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// Placeholders returns the distinct placeholder names in tmpl, sorted.
func Placeholders(tmpl string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}
