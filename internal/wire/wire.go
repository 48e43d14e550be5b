package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version   byte = 1
	flagDirty byte = 1 << 0

	hdrLen = 4 + 1 + 1 + 4
)

var (
	ErrCorrupt = errors.New("spillcache: corrupt entry")
	magic4     = [...]byte{'S', 'P', 'L', 'C'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry: magic(4) | ver(1) | flags(1) | vlen(u32 be) | payload(vlen)
func EncodeEntry(dirty bool, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	var flags byte
	if dirty {
		flags |= flagDirty
	}
	buf.WriteByte(flags)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeEntry validates b and returns its dirty flag and payload.
// payload aliases b.
func DecodeEntry(b []byte) (dirty bool, payload []byte, err error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || b[5]&^flagDirty != 0 {
		return false, nil, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(b[6:hdrLen]))
	if vlen < 0 || vlen != len(b)-hdrLen {
		return false, nil, ErrCorrupt
	}
	return b[5]&flagDirty != 0, b[hdrLen:], nil
}

// WithDirty returns a copy of the entry b with its dirty flag replaced.
func WithDirty(b []byte, dirty bool) ([]byte, error) {
	if _, _, err := DecodeEntry(b); err != nil {
		return nil, err
	}
	out := append([]byte(nil), b...)
	if dirty {
		out[5] |= flagDirty
	} else {
		out[5] &^= flagDirty
	}
	return out, nil
}
