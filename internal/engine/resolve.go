package engine

import (
	"strings"
)

// ResolvePattern substitutes caller-supplied dynamic parameters into a
// validation pattern. Every occurrence of {{name}} is replaced verbatim with
// the parameter's value; placeholders without a matching parameter are left
// unsubstituted, in which case validation simply runs against the literal
// placeholder text.
func ResolvePattern(pattern string, params map[string]string) string {
	for name, value := range params {
		pattern = strings.ReplaceAll(pattern, "{{"+name+"}}", value)
	}
	return pattern
}
