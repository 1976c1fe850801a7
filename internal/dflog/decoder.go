package dflog

import (
	"encoding/binary"
	"math"
)

// fieldDecoder decodes one fixed-width field. ok is false only when the
// raw bytes decode to a value the format defines as invalid (currently
// just NaN floats); the record is aborted in that case.
type fieldDecoder struct {
	size   int
	decode func(raw []byte) (value any, ok bool)
}

func scaled(size int, divisor float64, signed bool) fieldDecoder {
	return fieldDecoder{size: size, decode: func(raw []byte) (any, bool) {
		var iv int64
		switch size {
		case 2:
			u := binary.LittleEndian.Uint16(raw)
			if signed {
				iv = int64(int16(u))
			} else {
				iv = int64(u)
			}
		case 4:
			u := binary.LittleEndian.Uint32(raw)
			if signed {
				iv = int64(int32(u))
			} else {
				iv = int64(u)
			}
		}
		return float64(iv) / divisor, true
	}}
}

func stringField(size int) fieldDecoder {
	return fieldDecoder{size: size, decode: func(raw []byte) (any, bool) {
		return trimNUL(raw), true
	}}
}

// fieldDecoders is the format-alphabet dispatch table. An unmapped
// format character aborts the record rather than falling back to a
// guessed width.
var fieldDecoders = map[byte]fieldDecoder{
	'b': {size: 1, decode: func(raw []byte) (any, bool) { return int64(int8(raw[0])), true }},
	'B': {size: 1, decode: func(raw []byte) (any, bool) { return int64(raw[0]), true }},
	'h': {size: 2, decode: func(raw []byte) (any, bool) { return int64(int16(binary.LittleEndian.Uint16(raw))), true }},
	'H': {size: 2, decode: func(raw []byte) (any, bool) { return int64(binary.LittleEndian.Uint16(raw)), true }},
	'i': {size: 4, decode: func(raw []byte) (any, bool) { return int64(int32(binary.LittleEndian.Uint32(raw))), true }},
	'I': {size: 4, decode: func(raw []byte) (any, bool) { return int64(binary.LittleEndian.Uint32(raw)), true }},
	'q': {size: 8, decode: func(raw []byte) (any, bool) { return int64(binary.LittleEndian.Uint64(raw)), true }},
	'Q': {size: 8, decode: func(raw []byte) (any, bool) { return binary.LittleEndian.Uint64(raw), true }},
	'f': {size: 4, decode: func(raw []byte) (any, bool) {
		v := math.Float32frombits(binary.LittleEndian.Uint32(raw))
		if math.IsNaN(float64(v)) {
			return nil, false
		}
		return float64(v), true
	}},
	'n': stringField(4),
	'N': stringField(16),
	'Z': stringField(64),
	'c': scaled(2, 100.0, true),
	'C': scaled(2, 100.0, false),
	'e': scaled(4, 100.0, true),
	'E': scaled(4, 100.0, false),
	'L': scaled(4, 1e7, true),
	'M': {size: 1, decode: func(raw []byte) (any, bool) { return int64(int8(raw[0])), true }},
}

// decodeRecord decodes raw against desc's on-wire format string,
// producing one NameValuePair per format character. aborted is true when
// an unknown format character or an invalid field value (a NaN float)
// stops decoding partway through; the caller records a diagnostic and
// drops the whole record rather than emitting a partial row.
func decodeRecord(desc TypeDescriptor, raw []byte) (values []NameValuePair, aborted bool, reason string) {
	values = make([]NameValuePair, 0, len(desc.Format))
	offset := 0
	for i := 0; i < len(desc.Format); i++ {
		c := desc.Format[i]
		fd, ok := fieldDecoders[c]
		if !ok {
			return nil, true, "unknown format character '" + string(c) + "' decoding " + desc.Name
		}
		if offset+fd.size > len(raw) {
			return nil, true, "truncated record decoding " + desc.Name
		}
		v, ok := fd.decode(raw[offset : offset+fd.size])
		if !ok {
			return nil, true, "corrupt data element decoding " + desc.Name
		}
		values = append(values, NameValuePair{Label: desc.labelAt(i), Value: v})
		offset += fd.size
	}
	return values, false, ""
}
