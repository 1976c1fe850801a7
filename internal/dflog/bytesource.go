package dflog

import "os"

// ByteSource is the pull side the Framer reads from. It is deliberately
// narrower than io.Reader so the parser can report progress against a
// known total without a separate seek/stat round-trip mid-stream.
type ByteSource interface {
	Read(p []byte) (int, error)
	AtEnd() bool
	Position() int64
	Size() int64
}

type fileByteSource struct {
	f    *os.File
	pos  int64
	size int64
}

// NewFileByteSource wraps an already-open file. The file's current
// offset is treated as position zero.
func NewFileByteSource(f *os.File) (ByteSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &fileByteSource{f: f, size: info.Size()}, nil
}

func (s *fileByteSource) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *fileByteSource) AtEnd() bool {
	return s.pos >= s.size
}

func (s *fileByteSource) Position() int64 {
	return s.pos
}

func (s *fileByteSource) Size() int64 {
	return s.size
}
