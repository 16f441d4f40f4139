package hquery

import (
	"fmt"
	"strings"
)

// replace substitutes {placeholder} occurrences in a template string with
// the given parameter values; used by QueryError.Error and QueryError.Localize.
func replace(template string, params map[string]any) string {
	for key, value := range params {
		placeholder := "{" + key + "}"
		template = strings.ReplaceAll(template, placeholder, fmt.Sprint(value))
	}
	return template
}
