package dflog

import "strings"

// TypeDescriptor is the parsed shape of an FMT record: the schema for one
// message type appearing later in the stream.
type TypeDescriptor struct {
	ID     byte
	Length int
	Name   string
	Format string
	Labels []string

	// HasTimestamp and TimestampIndex describe whether this descriptor's
	// own fields already carry the log's active timestamp convention.
	HasTimestamp   bool
	TimestampIndex int
}

// isValid mirrors the acceptance rule applied to a freshly parsed FMT
// record before it is allowed into the registry. STRT is special-cased:
// legacy logs emit it with an empty format string and no labels. The
// FMT self-descriptor is special-cased too: some producers emit it with
// a format/labels arity mismatch, and the reference parser tolerates
// that rather than rejecting the bootstrap record itself.
func (d TypeDescriptor) isValid() bool {
	if d.ID == unsetID || d.Length <= 0 || d.Name == "" {
		return false
	}
	if d.ID == fmtMessageType {
		return len(d.Format) > 0 && len(d.Labels) > 0
	}
	if d.Name == strtMessageName {
		return len(d.Format) == len(d.Labels)
	}
	return len(d.Format) > 0 && len(d.Format) == len(d.Labels)
}

// labelAt returns the label for format position i, or "NoLabel" when the
// FMT record's label list is shorter than its format string.
func (d TypeDescriptor) labelAt(i int) string {
	if i < len(d.Labels) {
		return d.Labels[i]
	}
	return "NoLabel"
}

// replaceLabel renames every occurrence of from to to. Used for the GPS
// TimeMS/GPSTimeMS rewrite.
func (d TypeDescriptor) replaceLabel(from, to string) TypeDescriptor {
	labels := make([]string, len(d.Labels))
	for i, l := range d.Labels {
		if l == from {
			l = to
		}
		labels[i] = l
	}
	d.Labels = labels
	return d
}

// finalized returns a copy of d with HasTimestamp/TimestampIndex set
// according to whether one of d's own labels matches conv's name.
func (d TypeDescriptor) finalized(conv TimestampConvention) TypeDescriptor {
	for i, l := range d.Labels {
		if l == conv.Name {
			d.HasTimestamp = true
			d.TimestampIndex = i
			return d
		}
	}
	d.HasTimestamp = false
	d.TimestampIndex = -1
	return d
}

// withSyntheticTimestamp returns the shape reported to the sink for a
// descriptor that never carries the active timestamp on the wire: the
// convention's field is prepended so every forwarded row looks uniform.
func (d TypeDescriptor) withSyntheticTimestamp(conv TimestampConvention) TypeDescriptor {
	d.Format = "Q" + d.Format
	d.Labels = append([]string{conv.Name}, d.Labels...)
	d.Length += 8
	d.HasTimestamp = true
	d.TimestampIndex = 0
	return d
}

// TimestampConvention is one of the fixed candidate timestamp fields the
// log may use: a field name and the divisor turning its raw integer value
// into seconds.
type TimestampConvention struct {
	Name    string
	Divisor float64
}

// timestampCandidates is the fixed, ordered set of timestamp conventions
// recognized by the parser. The first FMT record whose labels contain one
// of these names decides the active convention for the whole log.
var timestampCandidates = []TimestampConvention{
	{Name: "TimeUS", Divisor: 1e6},
	{Name: "TimeMS", Divisor: 1e3},
}

func discoverActiveTimestamp(d TypeDescriptor) (TimestampConvention, bool) {
	for _, cand := range timestampCandidates {
		for _, l := range d.Labels {
			if l == cand.Name {
				return cand, true
			}
		}
	}
	return TimestampConvention{}, false
}

// NameValuePair is one decoded field: its label and its scalar value,
// which is one of int64, uint64, float64 or string.
type NameValuePair struct {
	Label string
	Value any
}

// VehicleKind is the coarse airframe classification inferred from PARM
// (and, as a supplement, MSG) rows.
type VehicleKind int

const (
	VehicleGeneric VehicleKind = iota
	VehicleQuadrotor
	VehicleFixedWing
	VehicleGroundRover
	VehicleSubmarine
	VehicleAirship
)

func (k VehicleKind) String() string {
	switch k {
	case VehicleQuadrotor:
		return "Quadrotor"
	case VehicleFixedWing:
		return "FixedWing"
	case VehicleGroundRover:
		return "GroundRover"
	case VehicleSubmarine:
		return "Submarine"
	case VehicleAirship:
		return "Airship"
	default:
		return "Generic"
	}
}

func trimNUL(b []byte) string {
	if i := indexNUL(b); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

func splitLabels(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
