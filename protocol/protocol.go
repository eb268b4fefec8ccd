// Package protocol holds the tag and value tables of the camera RTP stream
// management characteristics.
//
// Record tags are plain byte constants, ready to hand to package tlv. Enumerated
// values are typed: each type has a String method and a Parse function which
// rejects bytes outside the table with ErrUnknownTag. Types that appear in the
// configuration also decode from their names.
package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownTag = errors.New("protocol: unknown tag")

func parse[T ~byte](names map[T]string, kind string, b byte) (T, error) {
	if _, ok := names[T(b)]; !ok {
		return 0, fmt.Errorf("%w: %s %#02x", ErrUnknownTag, kind, b)
	}
	return T(b), nil
}

func lookup[T ~byte](names map[T]string, kind, s string) (T, error) {
	for v, n := range names {
		if strings.EqualFold(n, s) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %s %q", ErrUnknownTag, kind, s)
}

func name[T ~byte](names map[T]string, v T) string {
	if s, ok := names[v]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%#02x)", byte(v))
}
