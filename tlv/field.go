package tlv

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Has reports whether tag was present in the decoded blob.
func (r Records) Has(tag byte) bool {
	_, ok := r[tag]
	return ok
}

func (r Records) Bytes(tag byte) ([]byte, error) {
	v, ok := r[tag]
	if !ok {
		return nil, fmt.Errorf("%w: T=%d", ErrMissingField, tag)
	}
	return v, nil
}

func (r Records) Text(tag byte) (string, error) {
	v, err := r.Bytes(tag)
	return string(v), err
}

func (r Records) Uint8(tag byte) (uint8, error) {
	v, err := r.fixed(tag, 1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func (r Records) Bool(tag byte) (bool, error) {
	v, err := r.Uint8(tag)
	return v != 0, err
}

func (r Records) Uint16(tag byte) (uint16, error) {
	v, err := r.fixed(tag, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(v), nil
}

func (r Records) Uint32(tag byte) (uint32, error) {
	v, err := r.fixed(tag, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v), nil
}

func (r Records) Float32(tag byte) (float32, error) {
	v, err := r.Uint32(tag)
	return math.Float32frombits(v), err
}

// Nested decodes the value of tag as a TLV blob of its own.
func (r Records) Nested(tag byte) (Records, error) {
	v, err := r.Bytes(tag)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

func (r Records) fixed(tag byte, size int) ([]byte, error) {
	v, err := r.Bytes(tag)
	if err != nil {
		return nil, err
	}
	if len(v) != size {
		return nil, fmt.Errorf("%w: T=%d want %d bytes, got %d", ErrMalformedField, tag, size, len(v))
	}
	return v, nil
}

func Uint8(tag, v byte) Pair {
	return Pair{Tag: tag, Value: []byte{v}}
}

func Bool(tag byte, v bool) Pair {
	if v {
		return Uint8(tag, 1)
	}
	return Uint8(tag, 0)
}

func Uint16(tag byte, v uint16) Pair {
	return Pair{Tag: tag, Value: binary.LittleEndian.AppendUint16(nil, v)}
}

func Uint32(tag byte, v uint32) Pair {
	return Pair{Tag: tag, Value: binary.LittleEndian.AppendUint32(nil, v)}
}

func Float32(tag byte, v float32) Pair {
	return Uint32(tag, math.Float32bits(v))
}

func String(tag byte, v string) Pair {
	return Pair{Tag: tag, Value: []byte(v)}
}
