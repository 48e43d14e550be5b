package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Protobuf stores any value as a google.protobuf.Value message.
// Only JSON-shaped values are accepted (nil, bool, numbers, strings, []any,
// map[string]any and the slices/maps structpb.NewValue understands); numbers
// decode as float64.
type Protobuf struct{}

var _ Codec[any] = Protobuf{}

func (Protobuf) Encode(v any) ([]byte, error) {
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(pv)
}

func (Protobuf) Decode(b []byte) (any, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return nil, err
	}
	return pv.AsInterface(), nil
}
