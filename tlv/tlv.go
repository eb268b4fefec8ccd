// Package tlv implements the 8-bit Type-Length-Value encoding used by the
// HomeKit camera control characteristics.
//
// A record is one tag byte, one length byte and up to 255 value bytes. Values
// longer than 255 bytes are written as consecutive records with the same tag
// and are joined back together on decode.
package tlv

import (
	"encoding/base64"
	"errors"
	"fmt"
)

const maxChunk = 255

var (
	ErrMalformedTLV   = errors.New("tlv: malformed record")
	ErrMalformedField = errors.New("tlv: malformed field")
	ErrMissingField   = fmt.Errorf("%w: missing", ErrMalformedField)
)

// Pair is a single tag and its (possibly long) value.
type Pair struct {
	Tag   byte
	Value []byte
}

// Records maps a tag to its reassembled value.
type Records map[byte][]byte

// Decode parses a blob into Records. Consecutive records sharing a tag are
// concatenated; a later, non-adjacent record with the same tag replaces the
// earlier value.
func Decode(b []byte) (Records, error) {
	records := Records{}

	var last byte
	var haveLast bool

	for len(b) > 0 {
		if len(b) < 2 {
			return nil, fmt.Errorf("%w: dangling byte %#02x", ErrMalformedTLV, b[0])
		}

		t, l := b[0], int(b[1])
		if len(b) < 2+l {
			return nil, fmt.Errorf("%w: T=%d L=%d but %d bytes left", ErrMalformedTLV, t, l, len(b)-2)
		}

		v := b[2 : 2+l]
		b = b[2+l:]

		if haveLast && last == t {
			records[t] = append(records[t], v...)
		} else {
			records[t] = append([]byte{}, v...)
		}

		last, haveLast = t, true
	}

	return records, nil
}

func DecodeBase64(s string) (Records, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTLV, err)
	}
	return Decode(b)
}

// Encode writes pairs in call order.
func Encode(pairs ...Pair) []byte {
	var n int
	for _, p := range pairs {
		n += len(p.Value) + 2*(len(p.Value)/maxChunk+1)
	}

	b := make([]byte, 0, n)
	for _, p := range pairs {
		b = appendPair(b, p)
	}
	return b
}

func EncodeBase64(pairs ...Pair) string {
	return base64.StdEncoding.EncodeToString(Encode(pairs...))
}

func appendPair(b []byte, p Pair) []byte {
	v := p.Value
	for len(v) > maxChunk {
		b = append(b, p.Tag, maxChunk)
		b = append(b, v[:maxChunk]...)
		v = v[maxChunk:]
	}
	b = append(b, p.Tag, byte(len(v)))
	return append(b, v...)
}
