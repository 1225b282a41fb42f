package tnscore

import "encoding/binary"

// longLengthSentinel is the byte that introduces a 4-byte big-endian
// length for columns too long for the 1-byte form.
const longLengthSentinel = 0xFE

// maxShortColumnLength is the largest value length the 1-byte length form
// can carry directly.
const maxShortColumnLength = longLengthSentinel - 1

// FrameColumn applies the wire length-prefix convention to a raw column
// value: a nil or empty value frames as a single 0x00 (null) byte; a short
// value frames as a 1-byte length followed by the value; a long value
// frames as the 0xFE sentinel, a 4-byte big-endian length, then the value.
func FrameColumn(value []byte) []byte {
	if len(value) == 0 {
		return []byte{0x00}
	}
	if len(value) <= maxShortColumnLength {
		out := make([]byte, 1+len(value))
		out[0] = byte(len(value))
		copy(out[1:], value)
		return out
	}
	out := make([]byte, 1+4+len(value))
	out[0] = longLengthSentinel
	binary.BigEndian.PutUint32(out[1:5], uint32(len(value)))
	copy(out[5:], value)
	return out
}

// UnframeColumn strips the wire length-prefix from a framed column,
// returning the raw value bytes, or nil for a null column.
func UnframeColumn(framed []byte) []byte {
	if len(framed) == 0 {
		return nil
	}
	switch framed[0] {
	case 0x00:
		return nil
	case longLengthSentinel:
		if len(framed) < 5 {
			return nil
		}
		n := int(binary.BigEndian.Uint32(framed[1:5]))
		if len(framed) < 5+n {
			return framed[5:]
		}
		return framed[5 : 5+n]
	default:
		n := int(framed[0])
		if len(framed) < 1+n {
			return framed[1:]
		}
		return framed[1 : 1+n]
	}
}
