// Package codec converts cache values to the byte payloads stores persist.
//
// Stores that keep heterogeneous values per key use Codec[any]. Typed, the
// default, tags each value with its Go type so it decodes to the type it was
// stored as. The plain JSON, Msgpack, CBOR and Protobuf codecs carry no Go type:
// decoding into any gives their widest numeric type and []any / map[string]any.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Default is the codec stores use for any values when none is configured.
func Default() Codec[any] { return Typed{} }
