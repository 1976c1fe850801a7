package dflog

import (
	"encoding/binary"
	"errors"
	"math"
)

// memSource is a ByteSource over an in-memory buffer, used to build
// synthetic streams for tests.
type memSource struct {
	data []byte
	pos  int
}

func newMemSource(data []byte) *memSource {
	return &memSource{data: data}
}

func (m *memSource) Read(p []byte) (int, error) {
	if m.pos >= len(m.data) {
		return 0, nil
	}
	n := copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

func (m *memSource) AtEnd() bool     { return m.pos >= len(m.data) }
func (m *memSource) Position() int64 { return int64(m.pos) }
func (m *memSource) Size() int64     { return int64(len(m.data)) }

// recordingSink captures every call made to it, in order, for assertions.
type recordingSink struct {
	types      []addTypeCall
	rows       []addRowCall
	allHaveTS  bool
	tsLabel    string
	tsDivisor  float64
	failAddRow bool
	err        string
	started    bool
	ended      bool
}

type addTypeCall struct {
	name   string
	id     byte
	length int
	format string
	labels []string
}

type addRowCall struct {
	typeName string
	values   []NameValuePair
	tsLabel  string
}

func (s *recordingSink) StartTransaction() error { s.started = true; return nil }
func (s *recordingSink) EndTransaction() error   { s.ended = true; return nil }

func (s *recordingSink) AddType(name string, id byte, length int, format string, labels []string) error {
	s.types = append(s.types, addTypeCall{name, id, length, format, append([]string(nil), labels...)})
	return nil
}

func (s *recordingSink) AddRow(typeName string, values []NameValuePair, tsLabel string) error {
	if s.failAddRow {
		s.err = "sink write failed"
		return errors.New(s.err)
	}
	cp := append([]NameValuePair(nil), values...)
	s.rows = append(s.rows, addRowCall{typeName, cp, tsLabel})
	return nil
}

func (s *recordingSink) SetAllRowsHaveTime(flag bool, tsLabel string, divisor float64) {
	s.allHaveTS = flag
	s.tsLabel = tsLabel
	s.tsDivisor = divisor
}

func (s *recordingSink) GetError() string { return s.err }

// recordingCallbacks captures progress/error notifications.
type recordingCallbacks struct {
	errors []string
}

func (c *recordingCallbacks) OnProgress(position, total int64) {}
func (c *recordingCallbacks) OnError(message string)           { c.errors = append(c.errors, message) }

func header(typeCode byte) []byte {
	return []byte{syncByte1, syncByte2, typeCode}
}

func fmtBody(id byte, length int, name, format, labels string) []byte {
	b := make([]byte, fmtBodySize)
	b[0] = id
	b[1] = byte(length)
	copy(b[2:2+fmtNameSize], name)
	copy(b[2+fmtNameSize:2+fmtNameSize+fmtFormatSize], format)
	copy(b[2+fmtNameSize+fmtFormatSize:], labels)
	return b
}

func fmtRecord(id byte, length int, name, format, labels string) []byte {
	rec := append([]byte{}, header(fmtMessageType)...)
	rec = append(rec, fmtBody(id, length, name, format, labels)...)
	return rec
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func f32le(v float32) []byte {
	return u32le(math.Float32bits(v))
}

func dataRecord(typeCode byte, body []byte) []byte {
	rec := append([]byte{}, header(typeCode)...)
	rec = append(rec, body...)
	return rec
}
