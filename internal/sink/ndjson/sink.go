package ndjson

import "flashgate/internal/dflog"

// typeEvent is emitted once per message type the parser registers,
// before any of its rows.
type typeEvent struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	ID     byte     `json:"id"`
	Length int      `json:"length"`
	Format string   `json:"format"`
	Labels []string `json:"labels"`
}

// rowEvent is emitted once per decoded data row.
type rowEvent struct {
	Kind           string         `json:"kind"`
	Type           string         `json:"type"`
	TimestampLabel string         `json:"timestampLabel"`
	Fields         map[string]any `json:"fields"`
}

// metaEvent is emitted once at the end of the transaction, describing
// the timestamp convention that applied to the whole log.
type metaEvent struct {
	Kind           string  `json:"kind"`
	AllRowsHaveTS  bool    `json:"allRowsHaveTimestamp"`
	TimestampLabel string  `json:"timestampLabel"`
	Divisor        float64 `json:"divisor"`
}

// Sink is a dflog.Sink that streams every type declaration and data row
// as one NDJSON object apiece.
type Sink struct {
	w   *Writer
	err string
}

// NewSink wraps w as a dflog.Sink.
func NewSink(w *Writer) *Sink {
	return &Sink{w: w}
}

func (s *Sink) StartTransaction() error { return nil }
func (s *Sink) EndTransaction() error   { return nil }

func (s *Sink) AddType(name string, id byte, length int, format string, labels []string) error {
	if err := s.w.WriteObject(typeEvent{Kind: "type", Name: name, ID: id, Length: length, Format: format, Labels: labels}); err != nil {
		s.err = err.Error()
		return err
	}
	return nil
}

func (s *Sink) AddRow(typeName string, values []dflog.NameValuePair, timestampLabel string) error {
	fields := make(map[string]any, len(values))
	for _, v := range values {
		fields[v.Label] = v.Value
	}
	if err := s.w.WriteObject(rowEvent{Kind: "row", Type: typeName, TimestampLabel: timestampLabel, Fields: fields}); err != nil {
		s.err = err.Error()
		return err
	}
	return nil
}

func (s *Sink) SetAllRowsHaveTime(flag bool, timestampLabel string, divisor float64) {
	_ = s.w.WriteObject(metaEvent{Kind: "meta", AllRowsHaveTS: flag, TimestampLabel: timestampLabel, Divisor: divisor})
}

func (s *Sink) GetError() string { return s.err }
