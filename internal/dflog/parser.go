// Package dflog implements a streaming, single-pass parser for the
// DataFlash .bin flight-log format: a self-describing binary log where an
// in-band FMT record declares the schema for every other message type
// that follows it.
package dflog

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"flashgate/internal/common"
)

// Parser drives one pass over a DataFlash stream, forwarding decoded rows
// to a caller-supplied Sink. A Parser is single-use: create a new one per
// Parse call if you need to parse another stream.
type Parser struct {
	sink      Sink
	callbacks Callbacks

	registry *registry
	ts       timestampState
	status   Status

	messageCounter int
	timeErrorLogs  int

	stopFlag int32
}

// NewParser constructs a Parser that forwards decoded rows to sink and
// progress/error notifications to callbacks. Neither is copied; the
// caller retains ownership.
func NewParser(sink Sink, callbacks Callbacks) *Parser {
	return &Parser{
		sink:      sink,
		callbacks: callbacks,
		registry:  newRegistry(),
	}
}

// Stop requests cooperative cancellation. The current record is always
// finished before Parse observes the request.
func (p *Parser) Stop() {
	atomic.StoreInt32(&p.stopFlag, 1)
}

func (p *Parser) stopped() bool {
	return atomic.LoadInt32(&p.stopFlag) != 0
}

// Parse consumes source to completion (or until Stop is called, or a
// fatal sink error occurs) and returns the accumulated Status. A non-nil
// error is either a fatal sink failure, for which callbacks.OnError has
// already been called with the sink's message, or a read error from
// source, which is returned as-is. Once the transaction has started, it
// is ended on every return path; a failure of that EndTransaction call
// after an earlier error is ignored.
func (p *Parser) Parse(source ByteSource) (Status, error) {
	if p.sink == nil || p.callbacks == nil {
		common.Logf("dflog: parser constructed with nil sink or nil callbacks, skipping parse")
		return p.status, nil
	}

	if err := p.sink.StartTransaction(); err != nil {
		msg := p.sink.GetError()
		p.callbacks.OnError(msg)
		return p.status, errors.New(msg)
	}

	fr := newFramer(source)
	for !fr.atEOF() && !p.stopped() {
		p.callbacks.OnProgress(source.Position(), source.Size())
		if err := fr.refill(); err != nil {
			_ = p.sink.EndTransaction()
			return p.status, err
		}

		for fr.remaining() > MinHeaderSize && !p.stopped() {
			typeCode, ok := fr.tryReadHeader()
			if !ok {
				continue
			}

			if typeCode == fmtMessageType {
				body, ok := fr.tryConsume(fmtBodySize)
				if !ok {
					break
				}
				if err := p.handleFMT(body); err != nil {
					_ = p.sink.EndTransaction()
					return p.status, err
				}
				continue
			}

			desc, found := p.registry.get(typeCode)
			if !found {
				p.status.corruptData(p.messageCounter,
					fmt.Sprintf("read data without a valid format descriptor for type code %d", typeCode))
				continue
			}

			bodyLen := desc.Length - headerSize
			if bodyLen < 0 {
				bodyLen = 0
			}
			raw, ok := fr.tryConsume(bodyLen)
			if !ok {
				break
			}
			if err := p.handleData(desc, raw); err != nil {
				_ = p.sink.EndTransaction()
				return p.status, err
			}
		}
	}

	p.status.NoMessageBytes = fr.noMessageBytes

	if err := p.sink.EndTransaction(); err != nil {
		msg := p.sink.GetError()
		p.callbacks.OnError(msg)
		return p.status, errors.New(msg)
	}
	if p.ts.active != nil {
		p.sink.SetAllRowsHaveTime(true, p.ts.active.Name, p.ts.active.Divisor)
	}
	return p.status, nil
}

// handleFMT parses one FMT record body and either stores it immediately
// (once a timestamp convention is active) or defers it until one is
// discovered.
func (p *Parser) handleFMT(body []byte) error {
	desc := parseFMTBody(body)
	if desc.Name == gpsMessageName {
		desc = desc.replaceLabel("TimeMS", "GPSTimeMS")
	}

	if p.ts.active != nil {
		desc = desc.finalized(*p.ts.active)
		return p.storeDescriptor(desc)
	}

	if conv, ok := discoverActiveTimestamp(desc); ok {
		p.ts.active = &conv
		deferred := p.ts.deferred
		p.ts.deferred = nil
		for _, d := range deferred {
			if err := p.storeDescriptor(d.finalized(conv)); err != nil {
				return err
			}
		}
		return p.storeDescriptor(desc.finalized(conv))
	}

	p.ts.deferred = append(p.ts.deferred, desc)
	return nil
}

// storeDescriptor validates and registers desc, forwarding its shape to
// the sink unless it is the bootstrap FMT descriptor itself (which
// describes the framing, not a data row).
func (p *Parser) storeDescriptor(desc TypeDescriptor) error {
	if !desc.isValid() {
		p.status.corruptFmt(desc.Name, fmt.Sprintf("corrupt or missing format data for message type 0x%X", desc.ID))
		return nil
	}
	if p.registry.has(desc.ID) {
		p.status.corruptFmt(desc.Name, fmt.Sprintf("%s format data: doubled entry found, keeping the first one", desc.Name))
		return nil
	}

	p.registry.put(desc)

	if desc.ID == fmtMessageType {
		return nil
	}

	forward := desc
	if !forward.HasTimestamp {
		if p.ts.active == nil {
			return nil
		}
		forward = forward.withSyntheticTimestamp(*p.ts.active)
	}

	if err := p.sink.AddType(forward.Name, forward.ID, forward.Length, forward.Format, forward.Labels); err != nil {
		msg := p.sink.GetError()
		p.callbacks.OnError(msg)
		return errors.New(msg)
	}
	return nil
}

// handleData decodes one data record against its already-registered
// descriptor and emits it as a row, unless decoding aborts partway
// through.
func (p *Parser) handleData(desc TypeDescriptor, raw []byte) error {
	values, aborted, reason := decodeRecord(desc, raw)
	if aborted {
		p.status.corruptData(p.messageCounter, reason)
		return nil
	}
	return p.emitRow(desc, values)
}

// emitRow attaches the active timestamp — either read from the record
// itself or backfilled from the last valid value — enforces monotonicity,
// and forwards the row to the sink.
func (p *Parser) emitRow(desc TypeDescriptor, values []NameValuePair) error {
	if p.ts.active == nil {
		return nil
	}
	tsName := p.ts.active.Name

	if desc.HasTimestamp {
		raw := toUint64(values[desc.TimestampIndex].Value)
		if raw >= p.ts.lastValidTS {
			p.ts.lastValidTS = raw
		} else {
			p.recordTimeError(raw)
			values[desc.TimestampIndex].Value = p.ts.lastValidTS
		}
	} else {
		values = append([]NameValuePair{{Label: tsName, Value: p.ts.lastValidTS}}, values...)
	}

	if err := p.sink.AddRow(desc.Name, values, tsName); err != nil {
		msg := p.sink.GetError()
		p.callbacks.OnError(msg)
		return errors.New(msg)
	}
	p.messageCounter++
	p.status.validRow()

	switch desc.Name {
	case parmMessageName:
		p.applyVehicleHeuristicFromParam(values)
	case msgMessageName:
		p.applyVehicleHeuristicFromMessage(values)
	}
	return nil
}

func (p *Parser) recordTimeError(raw uint64) {
	switch {
	case p.timeErrorLogs < 50:
		common.Logf("dflog: time not increasing, last=%d new=%d", p.ts.lastValidTS, raw)
	case p.timeErrorLogs == 50:
		common.Logf("dflog: suppressing further time-not-increasing warnings")
	}
	p.timeErrorLogs++
	p.status.corruptTime(p.messageCounter, fmt.Sprintf("log time is not increasing: last=%d new=%d", p.ts.lastValidTS, raw))
}

// applyVehicleHeuristicFromParam classifies the airframe from
// characteristic parameter names, matching the heuristic ArduPilot
// ground stations use before a GCS-specific message ever appears.
func (p *Parser) applyVehicleHeuristicFromParam(values []NameValuePair) {
	if p.status.VehicleKind != VehicleGeneric {
		return
	}
	for _, nv := range values {
		if nv.Label != "Name" {
			continue
		}
		name, _ := nv.Value.(string)
		switch name {
		case "RATE_RLL_P", "H_SWASH_PLATE", "ATC_RAT_RLL_P":
			p.status.VehicleKind = VehicleQuadrotor
		case "PTCH2SRV_P":
			p.status.VehicleKind = VehicleFixedWing
		case "SKID_STEER_OUT":
			p.status.VehicleKind = VehicleGroundRover
		}
		return
	}
}

// applyVehicleHeuristicFromMessage supplements the PARM-based heuristic
// with the startup banner text ArduPilot writes to MSG, the same signal
// ground stations fall back on when no distinguishing parameter has been
// logged yet.
func (p *Parser) applyVehicleHeuristicFromMessage(values []NameValuePair) {
	if p.status.VehicleKind != VehicleGeneric {
		return
	}
	for _, nv := range values {
		if nv.Label != "Message" {
			continue
		}
		text, _ := nv.Value.(string)
		switch {
		case containsAny(text, "ArduCopter", "Copter"):
			p.status.VehicleKind = VehicleQuadrotor
		case containsAny(text, "ArduPlane", "Plane"):
			p.status.VehicleKind = VehicleFixedWing
		case containsAny(text, "APMrover2", "Rover"):
			p.status.VehicleKind = VehicleGroundRover
		case containsAny(text, "ArduSub"):
			p.status.VehicleKind = VehicleSubmarine
		case containsAny(text, "Blimp", "Antenna"):
			p.status.VehicleKind = VehicleAirship
		}
		return
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
