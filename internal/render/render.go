// Package render expands templated SQL into executable SQL text.
//
// Two placeholder forms are supported: {{ name }} substitutes a coerced
// parameter value, and {{ ref('dep.name') }} expands to the dependency
// name verbatim after checking it against the spec's depends_on list.
// Rendering is pure: identical inputs always produce identical output.
package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)
	refRe         = regexp.MustCompile(`^ref\(\s*['"]([^'"]+)['"]\s*\)$`)
)

// Renderer renders spec SQL templates. The zero value is usable.
type Renderer struct{}

// New creates a renderer.
func New() *Renderer {
	return &Renderer{}
}

// CoerceParams coerces the supplied raw values against the spec's
// parameter definitions. Declared parameters missing from the input
// fall back to their defaults; a required parameter with neither is an
// error. Supplied keys without a definition pass through untouched.
func (r *Renderer) CoerceParams(spec *core.Spec, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(spec.Parameters)+len(raw))

	for _, def := range spec.Parameters {
		v, err := def.Coerce(raw[def.Name])
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[def.Name] = v
		}
	}
	for name, v := range raw {
		if _, declared := spec.Parameter(name); !declared {
			out[name] = v
		}
	}
	return out, nil
}

// Render expands every placeholder in sql using the coerced parameter
// map and the spec's dependency list.
func (r *Renderer) Render(sql string, spec *core.Spec, params map[string]any) (string, error) {
	var renderErr error

	rendered := placeholderRe.ReplaceAllStringFunc(sql, func(match string) string {
		if renderErr != nil {
			return match
		}
		inner := strings.TrimSpace(placeholderRe.FindStringSubmatch(match)[1])

		if m := refRe.FindStringSubmatch(inner); m != nil {
			dep := m[1]
			if !spec.HasDependency(dep) {
				renderErr = &core.RenderError{
					Message: fmt.Sprintf("ref(%q) is not declared in depends_on of %s", dep, spec.Name),
				}
				return match
			}
			return dep
		}

		if v, ok := params[inner]; ok {
			return formatValue(v)
		}
		renderErr = &core.RenderError{
			Message: fmt.Sprintf("parameter %q is not supplied and has no default in %s", inner, spec.Name),
		}
		return match
	})

	if renderErr != nil {
		return "", renderErr
	}
	return rendered, nil
}

// formatValue renders a coerced value as SQL-embeddable text. String
// values are injected bare: templates supply their own quoting.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(core.DateLayout)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = formatListElement(e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatListElement quotes string elements so a list renders directly
// into an IN (...) clause.
func formatListElement(v any) string {
	switch t := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	default:
		return formatValue(v)
	}
}
