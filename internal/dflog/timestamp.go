package dflog

// timestampState tracks discovery of the log's active timestamp
// convention and the running monotonic clock used to backfill rows that
// don't carry it directly.
type timestampState struct {
	active      *TimestampConvention
	deferred    []TypeDescriptor
	lastValidTS uint64
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int64:
		if n < 0 {
			return 0
		}
		return uint64(n)
	case float64:
		if n < 0 {
			return 0
		}
		return uint64(n)
	default:
		return 0
	}
}
