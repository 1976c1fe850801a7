package samples_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"flashgate/internal/dflog"
	"flashgate/internal/samples"
	"flashgate/internal/sink/ndjson"
)

type discardCallbacks struct{}

func (discardCallbacks) OnProgress(int64, int64) {}
func (discardCallbacks) OnError(string)          {}

func parseBytes(t *testing.T, data []byte) dflog.Status {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bin")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open sample: %v", err)
	}
	defer f.Close()
	src, err := dflog.NewFileByteSource(f)
	if err != nil {
		t.Fatalf("NewFileByteSource: %v", err)
	}
	sink := ndjson.NewSink(ndjson.NewWriter(io.Discard))
	parser := dflog.NewParser(sink, discardCallbacks{})
	status, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return status
}

func TestBuildWellFormedLogParsesCleanly(t *testing.T) {
	data, err := samples.BuildWellFormedLog()
	if err != nil {
		t.Fatalf("BuildWellFormedLog: %v", err)
	}
	status := parseBytes(t, data)
	if status.ValidRows != 3 {
		t.Fatalf("ValidRows = %d, want 3", status.ValidRows)
	}
	if len(status.CorruptFmt) != 0 || len(status.CorruptData) != 0 || len(status.CorruptTime) != 0 {
		t.Fatalf("unexpected corruption in well-formed log: %+v", status)
	}
}

func TestBuildGarbageResyncLogRecordsNoMessageBytes(t *testing.T) {
	data, err := samples.BuildGarbageResyncLog()
	if err != nil {
		t.Fatalf("BuildGarbageResyncLog: %v", err)
	}
	status := parseBytes(t, data)
	if status.ValidRows != 1 {
		t.Fatalf("ValidRows = %d, want 1", status.ValidRows)
	}
	if status.NoMessageBytes != 5 {
		t.Fatalf("NoMessageBytes = %d, want 5", status.NoMessageBytes)
	}
}

func TestBuildDuplicateFMTLogRecordsCorruptFmt(t *testing.T) {
	data, err := samples.BuildDuplicateFMTLog()
	if err != nil {
		t.Fatalf("BuildDuplicateFMTLog: %v", err)
	}
	status := parseBytes(t, data)
	if len(status.CorruptFmt) != 1 {
		t.Fatalf("CorruptFmt = %+v, want 1 entry", status.CorruptFmt)
	}
	if status.ValidRows != 1 {
		t.Fatalf("ValidRows = %d, want 1", status.ValidRows)
	}
}

func TestBuildNaNFloatLogRecordsCorruptData(t *testing.T) {
	data, err := samples.BuildNaNFloatLog()
	if err != nil {
		t.Fatalf("BuildNaNFloatLog: %v", err)
	}
	status := parseBytes(t, data)
	if len(status.CorruptData) != 1 {
		t.Fatalf("CorruptData = %+v, want 1 entry", status.CorruptData)
	}
	if status.ValidRows != 1 {
		t.Fatalf("ValidRows = %d, want 1 (the non-NaN row)", status.ValidRows)
	}
}

func TestWriteFilesIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	if err := samples.WriteFiles(dir); err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}
	info1, err := os.Stat(filepath.Join(dir, samples.WellFormedLogFileName))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if err := samples.WriteFiles(dir); err != nil {
		t.Fatalf("WriteFiles (second run): %v", err)
	}
	info2, err := os.Stat(filepath.Join(dir, samples.WellFormedLogFileName))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info1.ModTime() != info2.ModTime() {
		t.Fatal("expected unchanged file to keep its original mtime")
	}
}
