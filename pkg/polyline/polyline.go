// Package polyline encodes and decodes geometry in Google's encoded
// polyline format at 5-decimal precision.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
)

// ErrMalformed is returned when an encoded string ends mid-value or holds
// an unpaired coordinate.
var ErrMalformed = errors.New("malformed polyline")

const factor = 1e5

// Encode encodes a line string. Points are (lng, lat) as in orb; the
// output is in the standard lat-first order.
func Encode(ls orb.LineString) string {
	if len(ls) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(ls)*8)
	var prevLat, prevLng int
	for _, p := range ls {
		lat := int(math.Round(p.Lat() * factor))
		lng := int(math.Round(p.Lon() * factor))

		buf = appendValue(buf, lat-prevLat)
		buf = appendValue(buf, lng-prevLng)

		prevLat, prevLng = lat, lng
	}
	return string(buf)
}

// Decode decodes an encoded polyline. The empty string decodes to an
// empty line string.
func Decode(encoded string) (orb.LineString, error) {
	if encoded == "" {
		return orb.LineString{}, nil
	}

	var (
		ls       orb.LineString
		lat, lng int
		i        int
	)
	for i < len(encoded) {
		dLat, next, err := readValue(encoded, i)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, ErrMalformed
		}
		dLng, next, err := readValue(encoded, next)
		if err != nil {
			return nil, err
		}
		i = next

		lat += dLat
		lng += dLng
		ls = append(ls, orb.Point{float64(lng) / factor, float64(lat) / factor})
	}
	return ls, nil
}

// Line encodes the straight line between two points.
func Line(from, to orb.Point) string {
	return Encode(orb.LineString{from, to})
}

func readValue(encoded string, i int) (value, next int, err error) {
	var result, shift int
	for {
		if i >= len(encoded) {
			return 0, 0, ErrMalformed
		}
		b := int(encoded[i]) - 63
		i++
		if b < 0 || b > 0x3f {
			return 0, 0, ErrMalformed
		}
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), i, nil
	}
	return result >> 1, i, nil
}

func appendValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}
	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}
