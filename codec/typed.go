package codec

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Typed is a msgpack Codec[any] that records the Go type of every value so
// Decode returns the same type that was encoded: an int comes back as int,
// []float64 as []float64. []any and map[string]any are tagged element by
// element, so nested containers keep their element types too.
//
// Builtin scalars, their slices and a few common maps are known out of the box.
// Register application types (structs, named types) with Register; values of
// unregistered types decode loosely, like Msgpack.
//
// The zero value is ready to use.
type Typed struct{}

var _ Codec[any] = Typed{}

const (
	tagNil   = "nil"
	tagLoose = ""
	tagList  = "[]interface {}"
	tagDict  = "map[string]interface {}"
)

var (
	typesMu sync.RWMutex
	types   = map[string]reflect.Type{}
)

func init() {
	for _, v := range []any{
		false, "", []byte(nil),
		int(0), int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0),
		float32(0), float64(0),
		[]bool(nil), []string(nil),
		[]int(nil), []int8(nil), []int16(nil), []int32(nil), []int64(nil),
		[]uint(nil), []uint16(nil), []uint32(nil), []uint64(nil),
		[]float32(nil), []float64(nil),
		[][]float64(nil), [][]int(nil),
		map[string]string(nil), map[string]int(nil), map[string]float64(nil), map[string]bool(nil),
		time.Time{}, time.Duration(0),
	} {
		registerType(reflect.TypeOf(v))
	}
}

// Register makes T round-trip through Typed with its own type.
func Register[T any]() {
	registerType(reflect.TypeFor[T]())
}

func registerType(t reflect.Type) {
	typesMu.Lock()
	types[typeName(t)] = t
	typesMu.Unlock()
}

func lookupType(name string) (reflect.Type, bool) {
	typesMu.RLock()
	t, ok := types[name]
	typesMu.RUnlock()
	return t, ok
}

// typeName qualifies named types by package path so equal names from
// different packages do not collide.
func typeName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func (Typed) Encode(v any) ([]byte, error) {
	return msgpack.Marshal(tagValue(v))
}

// tagValue turns v into a [tag, payload] pair.
func tagValue(v any) []any {
	switch x := v.(type) {
	case nil:
		return []any{tagNil, nil}
	case []any:
		if x == nil {
			return []any{tagList, nil}
		}
		elems := make([]any, len(x))
		for i, e := range x {
			elems[i] = tagValue(e)
		}
		return []any{tagList, elems}
	case map[string]any:
		if x == nil {
			return []any{tagDict, nil}
		}
		fields := make(map[string]any, len(x))
		for k, e := range x {
			fields[k] = tagValue(e)
		}
		return []any{tagDict, fields}
	}
	name := typeName(reflect.TypeOf(v))
	if _, ok := lookupType(name); !ok {
		return []any{tagLoose, v}
	}
	return []any{name, v}
}

func (Typed) Decode(b []byte) (any, error) {
	return untag(b)
}

func untag(b []byte) (any, error) {
	var pair []msgpack.RawMessage
	if err := msgpack.Unmarshal(b, &pair); err != nil {
		return nil, err
	}
	if len(pair) != 2 {
		return nil, fmt.Errorf("typed: want [tag, value], got %d elements", len(pair))
	}
	var name string
	if err := msgpack.Unmarshal(pair[0], &name); err != nil {
		return nil, fmt.Errorf("typed: tag: %w", err)
	}
	raw := pair[1]

	switch name {
	case tagNil:
		return nil, nil
	case tagLoose:
		return Msgpack[any]{}.Decode(raw)
	case tagList:
		if isNil(raw) {
			return []any(nil), nil
		}
		var elems []msgpack.RawMessage
		if err := msgpack.Unmarshal(raw, &elems); err != nil {
			return nil, err
		}
		out := make([]any, len(elems))
		for i, e := range elems {
			v, err := untag(e)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case tagDict:
		if isNil(raw) {
			return map[string]any(nil), nil
		}
		var fields map[string]msgpack.RawMessage
		if err := msgpack.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		out := make(map[string]any, len(fields))
		for k, e := range fields {
			v, err := untag(e)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}

	t, ok := lookupType(name)
	if !ok {
		return nil, fmt.Errorf("typed: unregistered type %q", name)
	}
	ptr := reflect.New(t)
	if err := msgpack.Unmarshal(raw, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("typed: %s: %w", name, err)
	}
	return ptr.Elem().Interface(), nil
}

func isNil(raw []byte) bool {
	return len(raw) == 1 && raw[0] == msgpcode.Nil
}
