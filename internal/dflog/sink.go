package dflog

// Sink is the destination for a parsed log. The parser borrows it for the
// duration of one Parse call; it does not own its lifecycle.
type Sink interface {
	StartTransaction() error
	EndTransaction() error
	AddType(name string, id byte, length int, format string, labels []string) error
	AddRow(typeName string, values []NameValuePair, timestampLabel string) error
	SetAllRowsHaveTime(flag bool, timestampLabel string, divisor float64)
	GetError() string
}

// Callbacks receives progress and error notifications while a Parse call
// is in flight.
type Callbacks interface {
	OnProgress(position, total int64)
	OnError(message string)
}
