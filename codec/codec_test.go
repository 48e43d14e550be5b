package codec

import (
	"reflect"
	"strings"
	"testing"
)

func TestMsgpackLooseDecoding(t *testing.T) {
	c := Msgpack[any]{}
	b, err := c.Encode(map[string]any{
		"n":      int8(3),
		"big":    int64(1 << 40),
		"ratio":  0.25,
		"pixels": []uint16{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"n":      int64(3),
		"big":    int64(1 << 40),
		"ratio":  0.25,
		"pixels": []any{int64(1), int64(2), int64(3)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v\nwant %#v", got, want)
	}
}

func TestCBORMapsDecodeWithStringKeys(t *testing.T) {
	c := MustCBOR[any](true)
	b, err := c.Encode(map[string]any{"calibration": map[string]any{"scale": 0.5}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("top-level map type %T", got)
	}
	inner, ok := m["calibration"].(map[string]any)
	if !ok || inner["scale"] != 0.5 {
		t.Fatalf("nested map %#v", m["calibration"])
	}
}

func TestCBORDeterministicIsStable(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	a, _ := c.Encode(map[string]int{"a": 1, "b": 2, "c": 3})
	b, _ := c.Encode(map[string]int{"c": 3, "b": 2, "a": 1})
	if string(a) != string(b) {
		t.Fatalf("deterministic encoding differs")
	}
}

func TestProtobufValue(t *testing.T) {
	c := Protobuf{}
	b, err := c.Encode(map[string]any{"title": "scan", "shape": []any{512, 512}, "ok": true})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{"title": "scan", "shape": []any{512.0, 512.0}, "ok": true}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}

	if _, err := c.Encode(make(chan int)); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := c.Decode([]byte{0xff, 0xff}); err == nil {
		t.Fatalf("expected error for garbage")
	}
}

func TestJSONNumbersAreFloat(t *testing.T) {
	c := JSON[any]{}
	b, _ := c.Encode([]int{1, 2})
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, []any{1.0, 2.0}) {
		t.Fatalf("got %#v", got)
	}
}

func TestLimitCodec(t *testing.T) {
	c := LimitCodec[string]{Inner: String{}, MaxDecode: 4}
	if _, err := c.Decode([]byte("12345")); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected size error, got %v", err)
	}
	if v, err := c.Decode([]byte("1234")); err != nil || v != "1234" {
		t.Fatalf("got %q %v", v, err)
	}

	unlimited := LimitCodec[[]byte]{Inner: Bytes{}}
	big := make([]byte, 1<<16)
	if v, err := unlimited.Decode(big); err != nil || len(v) != len(big) {
		t.Fatalf("unlimited decode failed: %v", err)
	}
}

type roi struct {
	X, Y, W, H int
	Label      string
}

func TestTypedKeepsGoTypes(t *testing.T) {
	Register[roi]()
	c := Typed{}
	cases := map[string]any{
		"int":     42,
		"uint16":  uint16(7),
		"float32": float32(1.25),
		"floats":  []float64{0.5, 1.5},
		"bytes":   []byte("raw"),
		"nil":     nil,
		"struct":  roi{X: 1, Y: 2, W: 3, H: 4, Label: "peak"},
		"nested":  map[string]any{"rois": []any{roi{Label: "a"}, 3, nil}, "scale": map[string]float64{"x": 0.1}},
		"empty":   []any{},
		"nilList": []any(nil),
	}
	for name, v := range cases {
		b, err := c.Encode(v)
		if err != nil {
			t.Fatalf("%s encode: %v", name, err)
		}
		got, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%s decode: %v", name, err)
		}
		if !reflect.DeepEqual(got, v) {
			t.Fatalf("%s: got %#v (%T) want %#v (%T)", name, got, got, v, v)
		}
	}
}

func TestTypedUnregisteredDecodesLoosely(t *testing.T) {
	type local struct{ N int }
	c := Typed{}
	b, err := c.Encode(local{N: 3})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{"N": int64(3)}) {
		t.Fatalf("got %#v", got)
	}
}

func TestTypedRejectsForeignPayload(t *testing.T) {
	c := Typed{}
	plain, _ := Msgpack[any]{}.Encode("not tagged")
	if _, err := c.Decode(plain); err == nil {
		t.Fatalf("expected error for untagged payload")
	}
	bogus, _ := Msgpack[any]{}.Encode([]any{"no/such.Type", 1})
	if _, err := c.Decode(bogus); err == nil {
		t.Fatalf("expected error for unknown tag")
	}
}
