package dflog

// Wire-format constants for the DataFlash binary log framing and the
// bootstrap FMT record that describes every other message type.
const (
	syncByte1 = 0xA3
	syncByte2 = 0x95

	// headerSize is the length in bytes of the 2-byte sync pattern plus
	// the 1-byte message type code that precedes every record.
	headerSize = 3

	// MinHeaderSize is the number of trailing bytes retained across a
	// buffer refill so a header split across two reads is never missed.
	MinHeaderSize = headerSize

	// refillChunkSize is how much is pulled from the source on each
	// buffer refill.
	refillChunkSize = 8192

	// fmtMessageType is the reserved message type code for the FMT
	// bootstrap record that declares a TypeDescriptor.
	fmtMessageType byte = 0x80

	fmtIDSize     = 1
	fmtLengthSize = 1
	fmtNameSize   = 4
	fmtFormatSize = 16
	fmtLabelsSize = 64

	// fmtBodySize is the fixed size of an FMT record's body, following
	// the 3-byte header: id, length, name, format, labels.
	fmtBodySize = fmtIDSize + fmtLengthSize + fmtNameSize + fmtFormatSize + fmtLabelsSize

	unsetID byte = 0xFF

	strtMessageName = "STRT"
	gpsMessageName  = "GPS"
	parmMessageName = "PARM"
	msgMessageName  = "MSG"
)
