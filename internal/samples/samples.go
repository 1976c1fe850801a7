// Package samples builds deterministic DataFlash byte streams covering
// the parser's well-formed and corrupted-input scenarios, so a caller
// can exercise flashgatectl end to end without a real vehicle log.
package samples

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
)

const (
	syncByte1      byte = 0xA3
	syncByte2      byte = 0x95
	fmtMessageType byte = 0x80

	// File names exposed for generator consumers.
	WellFormedLogFileName    = "sample_wellformed.bin"
	GarbageResyncLogFileName = "sample_garbage_resync.bin"
	DuplicateFMTLogFileName  = "sample_duplicate_fmt.bin"
	NaNFloatLogFileName      = "sample_nan_float.bin"
)

// fmtRecord builds one 89-byte FMT record: a 3-byte header followed by
// the fixed 86-byte body (1B id, 1B length, 4B name, 16B format, 64B
// labels).
func fmtRecord(id byte, length byte, name, format, labels string) []byte {
	body := make([]byte, 86)
	body[0] = id
	body[1] = length
	copy(body[2:6], name)
	copy(body[6:22], format)
	copy(body[22:86], labels)
	rec := []byte{syncByte1, syncByte2, fmtMessageType}
	return append(rec, body...)
}

func header(typeCode byte) []byte {
	return []byte{syncByte1, syncByte2, typeCode}
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func le32f(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

// attRecord builds one ATT-shaped data record: an 8-byte TimeUS
// timestamp followed by a 4-byte Roll float, matching the "Qf" format
// declared by attFMT.
func attRecord(timeUS uint64, roll float32) []byte {
	rec := header(1)
	rec = append(rec, le64(timeUS)...)
	rec = append(rec, le32f(roll)...)
	return rec
}

var attFMT = fmtRecord(1, 15, "ATT", "Qf", "TimeUS,Roll")

// BuildWellFormedLog constructs a minimal, entirely valid stream: one
// FMT declaration followed by three ATT rows with strictly increasing
// timestamps.
func BuildWellFormedLog() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(attFMT)
	buf.Write(attRecord(1_000_000, 0.1))
	buf.Write(attRecord(1_100_000, 0.2))
	buf.Write(attRecord(1_200_000, 0.3))
	return buf.Bytes(), nil
}

// BuildGarbageResyncLog interleaves non-sync bytes before a valid
// record, exercising the framer's one-byte-at-a-time resync.
func BuildGarbageResyncLog() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(attFMT)
	buf.Write([]byte{0x00, 0xFF, 0x12, 0x34, 0x56})
	buf.Write(attRecord(1_000_000, 0.1))
	return buf.Bytes(), nil
}

// BuildDuplicateFMTLog declares the same type id twice, exercising the
// registry's doubled-entry rejection.
func BuildDuplicateFMTLog() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(attFMT)
	buf.Write(fmtRecord(1, 15, "ATT", "Qf", "TimeUS,Roll"))
	buf.Write(attRecord(1_000_000, 0.1))
	return buf.Bytes(), nil
}

// BuildNaNFloatLog emits one row whose float field is NaN, exercising
// the decoder's NaN-quarantine abort.
func BuildNaNFloatLog() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(attFMT)
	buf.Write(attRecord(1_000_000, float32(math.NaN())))
	buf.Write(attRecord(1_100_000, 0.2))
	return buf.Bytes(), nil
}

// WriteFiles materializes all four generated samples under dir,
// skipping any file whose content already matches (so repeated runs
// don't touch mtimes needlessly).
func WriteFiles(dir string) error {
	generators := []struct {
		name  string
		build func() ([]byte, error)
	}{
		{WellFormedLogFileName, BuildWellFormedLog},
		{GarbageResyncLogFileName, BuildGarbageResyncLog},
		{DuplicateFMTLogFileName, BuildDuplicateFMTLog},
		{NaNFloatLogFileName, BuildNaNFloatLog},
	}
	for _, g := range generators {
		data, err := g.build()
		if err != nil {
			return err
		}
		if err := writeFileIfChanged(filepath.Join(dir, g.name), data); err != nil {
			return err
		}
	}
	return nil
}

func writeFileIfChanged(path string, data []byte) error {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return nil
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
