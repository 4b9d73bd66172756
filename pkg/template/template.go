// Package template resolves {name} placeholders against execution state for
// dynamic node configuration.
package template

import (
	"regexp"
	"strings"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render substitutes every {name} placeholder in input. Names resolve against
// the execution state first and the trigger data snapshot second,
// case-sensitively, in a single pass: substituted values are never scanned
// again. Unresolved placeholders are left verbatim.
func Render(input string, execution *models.Execution) string {
	if !strings.Contains(input, "{") {
		return input
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := match[1 : len(match)-1]

		value, ok := execution.StateValue(name)
		if !ok {
			return match
		}

		return models.Stringify(value)
	})
}

// RenderMap renders every string value of a configuration map, leaving other
// value types untouched. Nested maps are not descended into; node configs are
// flat.
func RenderMap(config map[string]any, execution *models.Execution) map[string]any {
	rendered := make(map[string]any, len(config))

	for k, v := range config {
		if s, ok := v.(string); ok {
			rendered[k] = Render(s, execution)

			continue
		}

		rendered[k] = v
	}

	return rendered
}
