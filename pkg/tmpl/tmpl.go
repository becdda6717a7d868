// Package tmpl interpolates {{ expression }} placeholders in component
// markup. Expressions are parsed into a restricted AST and evaluated
// against an explicit data map, so templates can read state and call
// functions the component exposes but nothing else.
package tmpl

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{([\s\S]*?)\}\}`)

// Parse replaces every {{ expr }} placeholder in markup with the
// stringified result of evaluating expr against data. A placeholder
// whose expression fails to parse or evaluate renders as the empty
// string; the failure is logged, not raised, so one bad binding does
// not take down the whole render.
func Parse(markup string, data map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(markup, func(m string) string {
		expr := strings.TrimSpace(m[2 : len(m)-2])
		if expr == "" {
			return ""
		}
		v, err := Evaluate(expr, data)
		if err != nil {
			slog.Debug("template expression failed", "expr", expr, "error", err)
			return ""
		}
		return Stringify(v)
	})
}

// Evaluate parses and evaluates a single expression against data.
func Evaluate(expr string, data map[string]any) (any, error) {
	n, err := parseExpr(expr)
	if err != nil {
		return nil, err
	}
	return n.eval(data)
}

// Stringify renders a value the way a template placeholder would show
// it. Reactive cells are unwrapped to their current value, nil renders
// empty, and whole-number floats drop the trailing ".0".
func Stringify(v any) string {
	v = unwrap(v)
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return Stringify(float64(x))
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}
	if f, ok := toNumber(v); ok {
		if _, isBool := v.(bool); !isBool {
			return Stringify(f)
		}
	}
	return fmt.Sprintf("%v", v)
}
