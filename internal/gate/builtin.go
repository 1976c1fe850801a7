package gate

import (
	"fmt"
	"time"

	"flashgate/internal/dflog"
)

// RegisterBuiltins wires the five domain checks a DataFlash acceptance
// gate ships with.
func (e *Engine) RegisterBuiltins() {
	e.Register("NoMessageBytesBelowThreshold", NoMessageBytesBelowThreshold)
	e.Register("FmtCorruptionAbsent", FmtCorruptionAbsent)
	e.Register("TimeMonotonic", TimeMonotonic)
	e.Register("VehicleKindDetected", VehicleKindDetected)
	e.Register("ActiveTimestampFound", ActiveTimestampFound)
}

func paramInt(rule Rule, key string, fallback int) int {
	v, ok := rule.Params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return fallback
	}
}

// NoMessageBytesBelowThreshold fails when the number of bytes discarded
// during resynchronization exceeds the rule's "maxBytes" threshold (an
// absolute byte count, default 4096) — a proxy for how corrupted the
// framing was.
func NoMessageBytesBelowThreshold(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	max := paramInt(rule, "maxBytes", 4096)
	d := Diagnostic{Ts: time.Now(), File: ctx.InputFile, RuleId: rule.RuleId, Refs: rule.Refs}
	if ctx.Status.NoMessageBytes > max {
		d.Severity = ERROR
		d.Message = fmt.Sprintf("resync discarded %d bytes, exceeding the %d byte threshold", ctx.Status.NoMessageBytes, max)
		return d, false, nil
	}
	d.Severity = INFO
	d.Message = fmt.Sprintf("resync discarded %d bytes", ctx.Status.NoMessageBytes)
	return d, false, nil
}

// FmtCorruptionAbsent fails when any FMT record was rejected or found
// to duplicate an already-registered type code.
func FmtCorruptionAbsent(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	d := Diagnostic{Ts: time.Now(), File: ctx.InputFile, RuleId: rule.RuleId, Refs: rule.Refs}
	if n := len(ctx.Status.CorruptFmt); n > 0 {
		d.Severity = ERROR
		d.Message = fmt.Sprintf("%d corrupt or duplicate FMT record(s) found, first: %s", n, ctx.Status.CorruptFmt[0].Message)
		return d, false, nil
	}
	d.Severity = INFO
	d.Message = "no corrupt FMT records"
	return d, false, nil
}

// TimeMonotonic fails when the count of non-increasing timestamps
// exceeds the rule's "maxViolations" threshold.
func TimeMonotonic(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	max := paramInt(rule, "maxViolations", 0)
	d := Diagnostic{Ts: time.Now(), File: ctx.InputFile, RuleId: rule.RuleId, Refs: rule.Refs}
	if n := len(ctx.Status.CorruptTime); n > max {
		d.Severity = ERROR
		d.Message = fmt.Sprintf("%d timestamp monotonicity violation(s), exceeding the allowed %d", n, max)
		return d, false, nil
	}
	d.Severity = INFO
	d.Message = fmt.Sprintf("%d timestamp monotonicity violation(s)", len(ctx.Status.CorruptTime))
	return d, false, nil
}

// VehicleKindDetected warns (without failing the gate) when the
// vehicle-kind heuristic never left its Generic default, which usually means the log is truncated before
// any classifying PARM or MSG row.
func VehicleKindDetected(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	d := Diagnostic{Ts: time.Now(), File: ctx.InputFile, RuleId: rule.RuleId, Refs: rule.Refs}
	if ctx.Status.VehicleKind == dflog.VehicleGeneric {
		d.Severity = WARN
		d.Message = "vehicle kind heuristic never resolved past Generic"
		return d, false, nil
	}
	d.Severity = INFO
	d.Message = "vehicle kind: " + ctx.Status.VehicleKind.String()
	return d, false, nil
}

// ActiveTimestampFound fails when the log produced zero valid rows, the
// simplest signal that no timestamp convention was ever discovered and
// the parser had nothing to forward.
func ActiveTimestampFound(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	d := Diagnostic{Ts: time.Now(), File: ctx.InputFile, RuleId: rule.RuleId, Refs: rule.Refs}
	if ctx.Status.ValidRows == 0 {
		d.Severity = ERROR
		d.Message = "no valid rows were produced; no active timestamp convention was discovered"
		return d, false, nil
	}
	d.Severity = INFO
	d.Message = fmt.Sprintf("%d valid rows produced", ctx.Status.ValidRows)
	return d, false, nil
}
