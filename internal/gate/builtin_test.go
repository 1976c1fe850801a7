package gate

import (
	"testing"

	"flashgate/internal/dflog"
)

func newEngineWithBuiltins() *Engine {
	rp := RulePack{RulePackId: "flashgate-default", Rules: []Rule{
		{RuleId: "no-message-bytes", Severity: ERROR, FixFunc: "NoMessageBytesBelowThreshold", Params: map[string]any{"maxBytes": float64(10)}},
		{RuleId: "fmt-corruption", Severity: ERROR, FixFunc: "FmtCorruptionAbsent"},
		{RuleId: "time-monotonic", Severity: ERROR, FixFunc: "TimeMonotonic"},
		{RuleId: "vehicle-kind", Severity: WARN, FixFunc: "VehicleKindDetected"},
		{RuleId: "active-timestamp", Severity: ERROR, FixFunc: "ActiveTimestampFound"},
	}}
	eng := NewEngine(rp)
	eng.RegisterBuiltins()
	return eng
}

func TestBuiltinRulesPassOnHealthyStatus(t *testing.T) {
	eng := newEngineWithBuiltins()
	status := &dflog.Status{ValidRows: 10, VehicleKind: dflog.VehicleQuadrotor, NoMessageBytes: 3}
	diags, err := eng.Eval(&Context{InputFile: "in.bin", Status: status})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	rep := eng.MakeAcceptance()
	if !rep.Summary.Pass {
		t.Fatalf("expected pass, got diagnostics: %+v", diags)
	}
}

func TestBuiltinRulesFailOnCorruptedStatus(t *testing.T) {
	eng := newEngineWithBuiltins()
	status := &dflog.Status{
		ValidRows:      0,
		NoMessageBytes: 500,
		CorruptFmt:     []dflog.FmtIncident{{TypeName: "ATT", Message: "doubled entry"}},
		CorruptTime:    []dflog.TimeIncident{{MessageCounter: 5, Message: "not increasing"}},
	}
	eng.Eval(&Context{InputFile: "in.bin", Status: status})
	rep := eng.MakeAcceptance()
	if rep.Summary.Pass {
		t.Fatalf("expected fail")
	}
	if rep.Summary.Errors < 3 {
		t.Fatalf("expected at least 3 errors, got %d", rep.Summary.Errors)
	}
}
