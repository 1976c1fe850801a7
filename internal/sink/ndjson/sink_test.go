package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"flashgate/internal/dflog"
)

func TestSinkStreamsTypeAndRowEvents(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(NewWriter(&buf))

	if err := sink.AddType("ATT", 1, 15, "Qf", []string{"TimeUS", "Roll"}); err != nil {
		t.Fatalf("AddType: %v", err)
	}
	values := []dflog.NameValuePair{{Label: "TimeUS", Value: uint64(1000)}, {Label: "Roll", Value: 1.5}}
	if err := sink.AddRow("ATT", values, "TimeUS"); err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	sink.SetAllRowsHaveTime(true, "TimeUS", 1e6)

	scanner := bufio.NewScanner(&buf)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 NDJSON lines, got %d", len(lines))
	}

	var typ typeEvent
	if err := json.Unmarshal([]byte(lines[0]), &typ); err != nil {
		t.Fatalf("unmarshal type event: %v", err)
	}
	if typ.Kind != "type" || typ.Name != "ATT" || typ.Format != "Qf" {
		t.Fatalf("unexpected type event: %+v", typ)
	}

	var row rowEvent
	if err := json.Unmarshal([]byte(lines[1]), &row); err != nil {
		t.Fatalf("unmarshal row event: %v", err)
	}
	if row.Kind != "row" || row.Type != "ATT" || row.Fields["Roll"] != 1.5 {
		t.Fatalf("unexpected row event: %+v", row)
	}

	var meta metaEvent
	if err := json.Unmarshal([]byte(lines[2]), &meta); err != nil {
		t.Fatalf("unmarshal meta event: %v", err)
	}
	if !meta.AllRowsHaveTS || meta.TimestampLabel != "TimeUS" || meta.Divisor != 1e6 {
		t.Fatalf("unexpected meta event: %+v", meta)
	}
}
