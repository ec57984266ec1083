// evalserial.go — argument/result serialization for Frame.evaluate_expression
// (spec.md §4.4's "Argument/result serialization for evaluate"): a
// type-tagged JSON form where primitives use single-letter keys, and
// NaN/±Infinity/negative-zero survive the round trip. A reference cycle
// through a pointer is cut: the repeated pointer serializes as null, so the
// cycle is not rebuilt by Parse.
//
// Grounded on the teacher's internal/util response/JSON handling idiom of a
// dedicated marshal/unmarshal pair per wire shape (now removed from this
// tree — see DESIGN.md — but its "one type, two directions" shape is kept
// here for the evaluate value envelope).
package evalserial

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// WireValue is one node of the type-tagged JSON tree. Exactly one of its
// fields (aside from H, which augments O/A for handle carriage) is set for
// any given node.
type WireValue struct {
	// V carries a sentinel for values JSON numbers can't represent directly:
	// "undefined", "null", "NaN", "Infinity", "-Infinity", "-0".
	V string `json:"v,omitempty"`

	N *float64     `json:"n,omitempty"`
	S *string      `json:"s,omitempty"`
	B *bool        `json:"b,omitempty"`
	O []ObjectPair `json:"o,omitempty"`
	A []WireValue  `json:"a,omitempty"`

	// H references an entry in the sibling handles array, used for
	// JSHandle/ElementHandle arguments this package does not itself resolve.
	H *int `json:"h,omitempty"`

	// ID is the wire slot for an object/array node's reference id. Serialize
	// never sets it (a pointer cycle is cut at the repeated pointer, which
	// serializes as null) and Parse ignores it. Omitted from the wire form
	// when zero.
	ID int `json:"id,omitempty"`
}

// ObjectPair is one key/value entry of an "o"-tagged object node.
type ObjectPair struct {
	K string    `json:"k"`
	V WireValue `json:"v"`
}

// maxDepth bounds circular-reference detection, per spec §4.4's allowance
// that "an implementer may limit circular detection to a depth or
// visitor-set".
const maxDepth = 50

// Serialize converts a plain Go value (as produced by json.Unmarshal into
// interface{}, or hand-built maps/slices/primitives) into the driver's
// type-tagged wire form.
func Serialize(value interface{}) (WireValue, error) {
	return serializeValue(value, make(map[uintptr]bool), 0)
}

func serializeValue(value interface{}, seen map[uintptr]bool, depth int) (WireValue, error) {
	if depth > maxDepth {
		return WireValue{}, fmt.Errorf("evalserial: exceeded max nesting depth %d", maxDepth)
	}

	if value == nil {
		return WireValue{V: "null"}, nil
	}

	switch v := value.(type) {
	case bool:
		b := v
		return WireValue{B: &b}, nil
	case string:
		s := v
		return WireValue{S: &s}, nil
	case float64:
		return serializeFloat(v), nil
	case float32:
		return serializeFloat(float64(v)), nil
	case int:
		f := float64(v)
		return WireValue{N: &f}, nil
	case int64:
		f := float64(v)
		return WireValue{N: &f}, nil
	case []interface{}:
		return serializeSlice(v, seen, depth)
	case map[string]interface{}:
		return serializeMap(v, seen, depth)
	}

	return serializeReflect(value, seen, depth)
}

func serializeFloat(f float64) WireValue {
	switch {
	case math.IsNaN(f):
		return WireValue{V: "NaN"}
	case math.IsInf(f, 1):
		return WireValue{V: "Infinity"}
	case math.IsInf(f, -1):
		return WireValue{V: "-Infinity"}
	case f == 0 && math.Signbit(f):
		return WireValue{V: "-0"}
	default:
		n := f
		return WireValue{N: &n}
	}
}

func serializeSlice(v []interface{}, seen map[uintptr]bool, depth int) (WireValue, error) {
	out := make([]WireValue, 0, len(v))
	for _, elem := range v {
		wv, err := serializeValue(elem, seen, depth+1)
		if err != nil {
			return WireValue{}, err
		}
		out = append(out, wv)
	}
	return WireValue{A: out}, nil
}

func serializeMap(v map[string]interface{}, seen map[uintptr]bool, depth int) (WireValue, error) {
	out := make([]ObjectPair, 0, len(v))
	for k, val := range v {
		wv, err := serializeValue(val, seen, depth+1)
		if err != nil {
			return WireValue{}, err
		}
		out = append(out, ObjectPair{K: k, V: wv})
	}
	return WireValue{O: out}, nil
}

// serializeReflect handles struct/pointer/slice/map values built with
// concrete Go types (rather than interface{} trees from json.Unmarshal),
// detecting reference cycles by pointer identity.
func serializeReflect(value interface{}, seen map[uintptr]bool, depth int) (WireValue, error) {
	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return WireValue{V: "null"}, nil
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return WireValue{V: "null"}, nil // cycle: break rather than recurse forever
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		return serializeValue(rv.Elem().Interface(), seen, depth+1)
	case reflect.Slice, reflect.Array:
		elems := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elems[i] = rv.Index(i).Interface()
		}
		return serializeSlice(elems, seen, depth)
	case reflect.Map:
		m := make(map[string]interface{}, rv.Len())
		for _, key := range rv.MapKeys() {
			m[fmt.Sprint(key.Interface())] = rv.MapIndex(key).Interface()
		}
		return serializeMap(m, seen, depth)
	case reflect.Struct:
		return serializeStructFields(rv, seen, depth)
	default:
		return WireValue{}, fmt.Errorf("evalserial: unsupported argument type %T", value)
	}
}

// serializeStructFields converts a struct's exported fields into an
// "o"-tagged node, recursing through serializeValue (rather than
// encoding/json) so the shared `seen` cycle-guard covers fields reachable
// through pointers.
func serializeStructFields(rv reflect.Value, seen map[uintptr]bool, depth int) (WireValue, error) {
	t := rv.Type()
	out := make([]ObjectPair, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		name, skip := jsonFieldName(field)
		if skip {
			continue
		}
		wv, err := serializeValue(rv.Field(i).Interface(), seen, depth+1)
		if err != nil {
			return WireValue{}, err
		}
		out = append(out, ObjectPair{K: name, V: wv})
	}
	return WireValue{O: out}, nil
}

func jsonFieldName(field reflect.StructField) (name string, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	if tag == "" {
		return field.Name, false
	}
	name = strings.Split(tag, ",")[0]
	if name == "" {
		name = field.Name
	}
	return name, false
}

// Parse converts a WireValue back into a plain Go value suitable for the
// caller to type-assert or re-marshal into a user-requested type.
func Parse(wv WireValue) (interface{}, error) {
	switch {
	case wv.V != "":
		return parseSentinel(wv.V)
	case wv.N != nil:
		return *wv.N, nil
	case wv.S != nil:
		return *wv.S, nil
	case wv.B != nil:
		return *wv.B, nil
	case wv.O != nil:
		out := make(map[string]interface{}, len(wv.O))
		for _, pair := range wv.O {
			val, err := Parse(pair.V)
			if err != nil {
				return nil, err
			}
			out[pair.K] = val
		}
		return out, nil
	case wv.A != nil:
		out := make([]interface{}, len(wv.A))
		for i, elem := range wv.A {
			val, err := Parse(elem)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	default:
		return nil, nil
	}
}

func parseSentinel(v string) (interface{}, error) {
	switch v {
	case "null", "undefined":
		return nil, nil
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	case "-0":
		return math.Copysign(0, -1), nil
	default:
		return nil, fmt.Errorf("evalserial: unknown sentinel %q", v)
	}
}
