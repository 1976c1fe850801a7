package dflog

import "io"

// framer turns a ByteSource into a stream of candidate record headers,
// scanning past corrupt bytes one at a time and refilling its buffer in
// fixed-size chunks. It never holds more than one refill's worth of
// lookahead plus whatever a single unfinished record still needs.
type framer struct {
	source ByteSource
	buf    []byte
	pos    int
	eof    bool

	noMessageBytes int
}

func newFramer(source ByteSource) *framer {
	return &framer{source: source}
}

func (f *framer) remaining() int {
	return len(f.buf) - f.pos
}

// atEOF reports whether the source is exhausted and the framer has
// nothing left worth attempting to parse.
func (f *framer) atEOF() bool {
	return f.eof && f.remaining() <= MinHeaderSize
}

// refill drops everything already consumed except the trailing
// MinHeaderSize bytes (which may hold the start of a header whose body
// wasn't fully buffered yet), restarts the cursor at those bytes, and
// appends the next chunk from the source. Once the source is exhausted
// it leaves the buffer and cursor untouched, so a record cut short at the
// end of the stream is scanned past instead of being retried forever.
func (f *framer) refill() error {
	if f.eof {
		return nil
	}
	if f.pos >= MinHeaderSize {
		drop := f.pos - MinHeaderSize
		f.buf = append([]byte(nil), f.buf[drop:]...)
		f.pos = 0
	}
	chunk := make([]byte, refillChunkSize)
	n, err := f.source.Read(chunk)
	if n > 0 {
		f.buf = append(f.buf, chunk[:n]...)
	}
	if err != nil && err != io.EOF {
		return err
	}
	if err == io.EOF || f.source.AtEnd() {
		f.eof = true
	}
	return nil
}

// tryReadHeader looks at the next MinHeaderSize bytes. If they match the
// sync pattern, it consumes all three and returns the message type code.
// Otherwise it consumes exactly one byte and counts it as a
// no-message-bytes incident, so the caller resumes scanning one byte
// further along.
func (f *framer) tryReadHeader() (byte, bool) {
	b0, b1, b2 := f.buf[f.pos], f.buf[f.pos+1], f.buf[f.pos+2]
	if b0 == syncByte1 && b1 == syncByte2 {
		f.pos += 3
		return b2, true
	}
	f.pos++
	f.noMessageBytes++
	return 0, false
}

// tryConsume takes n bytes from the current position without advancing
// it when there isn't enough buffered data yet — the caller is expected
// to refill and retry, which will re-present the still-unconsumed header.
func (f *framer) tryConsume(n int) ([]byte, bool) {
	if f.remaining() < n {
		return nil, false
	}
	b := f.buf[f.pos : f.pos+n]
	f.pos += n
	return b, true
}
