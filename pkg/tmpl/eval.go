package tmpl

import (
	"fmt"
	"reflect"
	"strings"
)

// Valuer is the structural shape of a reactive cell. Member access of
// "value" on a Valuer unwraps the current value, which keeps templates
// written against cells working without this package importing the
// cell type.
type Valuer interface {
	ValueAny() any
}

func (n *litNode) eval(map[string]any) (any, error) { return n.v, nil }

func (n *identNode) eval(data map[string]any) (any, error) {
	if data == nil {
		return nil, nil
	}
	return data[n.name], nil
}

func (n *memberNode) eval(data map[string]any) (any, error) {
	obj, err := n.obj.eval(data)
	if err != nil {
		return nil, err
	}
	return member(obj, n.name)
}

func member(obj any, name string) (any, error) {
	if obj == nil {
		return nil, fmt.Errorf("tmpl: property %q of nil", name)
	}
	if v, ok := obj.(Valuer); ok && name == "value" {
		return v.ValueAny(), nil
	}
	if m, ok := obj.(map[string]any); ok {
		return m[name], nil
	}
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("tmpl: property %q of nil", name)
		}
		// Methods on the pointer receiver are visible before deref.
		if m := rv.MethodByName(exportName(name)); m.IsValid() {
			return m.Interface(), nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Map {
		mv := rv.MapIndex(reflect.ValueOf(name))
		if !mv.IsValid() {
			return nil, nil
		}
		return mv.Interface(), nil
	}
	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName(exportName(name)); f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	}
	if m := rv.MethodByName(exportName(name)); m.IsValid() {
		return m.Interface(), nil
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.String || rv.Kind() == reflect.Array {
		if name == "length" {
			return float64(rv.Len()), nil
		}
	}
	return nil, fmt.Errorf("tmpl: no property %q on %T", name, obj)
}

// exportName maps a template-side lowerCamel name onto the exported Go
// identifier, so "fullName" reaches field FullName.
func exportName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func (n *indexNode) eval(data map[string]any) (any, error) {
	obj, err := n.obj.eval(data)
	if err != nil {
		return nil, err
	}
	idx, err := n.index.eval(data)
	if err != nil {
		return nil, err
	}
	if s, ok := idx.(string); ok {
		return member(obj, s)
	}
	f, ok := toNumber(idx)
	if !ok {
		return nil, fmt.Errorf("tmpl: non-numeric index %v", idx)
	}
	i := int(f)
	rv := reflect.ValueOf(obj)
	if v, okv := obj.(Valuer); okv {
		rv = reflect.ValueOf(v.ValueAny())
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		if i < 0 || i >= rv.Len() {
			return nil, nil
		}
		if rv.Kind() == reflect.String {
			return string(rv.String()[i]), nil
		}
		return rv.Index(i).Interface(), nil
	}
	return nil, fmt.Errorf("tmpl: cannot index %T", obj)
}

func (n *callNode) eval(data map[string]any) (any, error) {
	fn, err := n.callee.eval(data)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(data)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return callFunc(fn, args)
}

func callFunc(fn any, args []any) (any, error) {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("tmpl: %T is not callable", fn)
	}
	rt := rv.Type()
	if !rt.IsVariadic() && rt.NumIn() != len(args) {
		return nil, fmt.Errorf("tmpl: call expects %d args, got %d", rt.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var want reflect.Type
		if rt.IsVariadic() && i >= rt.NumIn()-1 {
			want = rt.In(rt.NumIn() - 1).Elem()
		} else {
			want = rt.In(i)
		}
		av, err := coerceArg(a, want)
		if err != nil {
			return nil, err
		}
		in[i] = av
	}
	out := rv.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	}
	// A trailing error return is surfaced, extra values dropped.
	if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
		return nil, err
	}
	return out[0].Interface(), nil
}

func coerceArg(a any, want reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(want), nil
	}
	av := reflect.ValueOf(a)
	if av.Type().AssignableTo(want) {
		return av, nil
	}
	if av.Type().ConvertibleTo(want) {
		return av.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("tmpl: cannot pass %T where %s expected", a, want)
}

func (n *unaryNode) eval(data map[string]any) (any, error) {
	v, err := n.x.eval(data)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "!":
		return !truthy(v), nil
	case "-":
		f, ok := toNumber(v)
		if !ok {
			return nil, fmt.Errorf("tmpl: cannot negate %T", v)
		}
		return -f, nil
	}
	return nil, fmt.Errorf("tmpl: unknown unary %q", n.op)
}

func (n *binaryNode) eval(data map[string]any) (any, error) {
	// Logic operators short-circuit and return the operand itself.
	if n.op == "||" || n.op == "&&" {
		l, err := n.l.eval(data)
		if err != nil {
			return nil, err
		}
		if n.op == "||" {
			if truthy(l) {
				return l, nil
			}
			return n.r.eval(data)
		}
		if !truthy(l) {
			return l, nil
		}
		return n.r.eval(data)
	}
	l, err := n.l.eval(data)
	if err != nil {
		return nil, err
	}
	r, err := n.r.eval(data)
	if err != nil {
		return nil, err
	}
	l = unwrap(l)
	r = unwrap(r)
	switch n.op {
	case "==":
		return looseEqual(l, r), nil
	case "!=":
		return !looseEqual(l, r), nil
	}
	if n.op == "+" {
		// String concatenation wins whenever either side is a string.
		ls, lok := l.(string)
		rs, rok := r.(string)
		if lok || rok {
			if !lok {
				ls = Stringify(l)
			}
			if !rok {
				rs = Stringify(r)
			}
			return ls + rs, nil
		}
	}
	lf, lok := toNumber(l)
	rf, rok := toNumber(r)
	if !lok || !rok {
		return nil, fmt.Errorf("tmpl: operator %q needs numbers, got %T and %T", n.op, l, r)
	}
	switch n.op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		return lf / rf, nil
	case "%":
		if int64(rf) == 0 {
			return nil, fmt.Errorf("tmpl: modulo by zero")
		}
		return float64(int64(lf) % int64(rf)), nil
	case "<":
		return lf < rf, nil
	case ">":
		return lf > rf, nil
	case "<=":
		return lf <= rf, nil
	case ">=":
		return lf >= rf, nil
	}
	return nil, fmt.Errorf("tmpl: unknown operator %q", n.op)
}

func (n *condNode) eval(data map[string]any) (any, error) {
	c, err := n.cond.eval(data)
	if err != nil {
		return nil, err
	}
	if truthy(c) {
		return n.then.eval(data)
	}
	return n.els.eval(data)
}

func unwrap(v any) any {
	if val, ok := v.(Valuer); ok {
		return val.ValueAny()
	}
	return v
}

func truthy(v any) bool {
	v = unwrap(v)
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := toNumber(v); ok {
		return f != 0
	}
	return true
}

func toNumber(v any) (float64, bool) {
	v = unwrap(v)
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func looseEqual(l, r any) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	if ls, ok := l.(string); ok {
		if rs, ok := r.(string); ok {
			return ls == rs
		}
	}
	lf, lok := toNumber(l)
	rf, rok := toNumber(r)
	if lok && rok {
		return lf == rf
	}
	return reflect.DeepEqual(l, r)
}
