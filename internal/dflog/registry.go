package dflog

// registry holds the on-wire TypeDescriptor for every message type seen
// so far, keyed by its type code. It never stores an augmented (synthetic
// timestamp) shape — that view exists only transiently for the sink.
type registry struct {
	byID map[byte]TypeDescriptor
}

func newRegistry() *registry {
	return &registry{byID: make(map[byte]TypeDescriptor)}
}

func (r *registry) get(id byte) (TypeDescriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

func (r *registry) has(id byte) bool {
	_, ok := r.byID[id]
	return ok
}

func (r *registry) put(desc TypeDescriptor) {
	r.byID[desc.ID] = desc
}

// parseFMTBody decodes the fixed 86-byte FMT record body. Callers must
// ensure body is exactly fmtBodySize long.
func parseFMTBody(body []byte) TypeDescriptor {
	i := 0
	id := body[i]
	i += fmtIDSize
	length := int(body[i])
	i += fmtLengthSize
	name := trimNUL(body[i : i+fmtNameSize])
	i += fmtNameSize
	format := trimNUL(body[i : i+fmtFormatSize])
	i += fmtFormatSize
	labels := splitLabels(trimNUL(body[i : i+fmtLabelsSize]))

	return TypeDescriptor{
		ID:     id,
		Length: length,
		Name:   name,
		Format: format,
		Labels: labels,
	}
}
