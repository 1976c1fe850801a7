package report

import (
	"os"
	"path/filepath"
	"testing"

	"flashgate/internal/dflog"
	"flashgate/internal/gate"
)

func sampleReport() gate.AcceptanceReport {
	var rep gate.AcceptanceReport
	rep.Summary.Total = 2
	rep.Summary.Errors = 1
	rep.Summary.Warnings = 1
	rep.Summary.Pass = false
	rep.Findings = []gate.Diagnostic{
		{RuleId: "TimeMonotonic", Severity: gate.ERROR, Message: "timestamps went backwards"},
		{RuleId: "VehicleKindDetected", Severity: gate.WARN, Message: "vehicle kind stayed Generic"},
	}
	return rep
}

func sampleStatus() dflog.Status {
	return dflog.Status{
		ValidRows:      42,
		CorruptFmt:     []dflog.FmtIncident{{TypeName: "ATT", Message: "duplicate id"}},
		NoMessageBytes: 5,
		VehicleKind:    dflog.VehicleQuadrotor,
	}
}

func TestSaveAndLoadAcceptanceJSONRoundTrip(t *testing.T) {
	rep := sampleReport()
	out := filepath.Join(t.TempDir(), "acceptance.json")
	if err := SaveAcceptanceJSON(rep, out); err != nil {
		t.Fatalf("SaveAcceptanceJSON: %v", err)
	}
	loaded, err := LoadAcceptanceJSON(out)
	if err != nil {
		t.Fatalf("LoadAcceptanceJSON: %v", err)
	}
	if loaded.Summary.Total != 2 || loaded.Summary.Errors != 1 || len(loaded.Findings) != 2 {
		t.Fatalf("unexpected round-tripped report: %+v", loaded)
	}
}

func TestSaveAndLoadStatusJSONRoundTrip(t *testing.T) {
	status := sampleStatus()
	out := filepath.Join(t.TempDir(), "status.json")
	if err := SaveStatusJSON(status, out); err != nil {
		t.Fatalf("SaveStatusJSON: %v", err)
	}
	loaded, err := LoadStatusJSON(out)
	if err != nil {
		t.Fatalf("LoadStatusJSON: %v", err)
	}
	if loaded.ValidRows != status.ValidRows || len(loaded.CorruptFmt) != 1 || loaded.VehicleKind != dflog.VehicleQuadrotor {
		t.Fatalf("unexpected round-tripped status: %+v", loaded)
	}
}

func TestSavePDFWritesFile(t *testing.T) {
	rep := sampleReport()
	out := filepath.Join(t.TempDir(), "report.pdf")
	if err := SavePDF(rep, sampleStatus(), "", out, LangEnglish); err != nil {
		t.Fatalf("SavePDF: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat pdf: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("pdf output is empty")
	}
}

func TestSavePDFTurkishLocale(t *testing.T) {
	rep := sampleReport()
	out := filepath.Join(t.TempDir(), "report_tr.pdf")
	if err := SavePDF(rep, sampleStatus(), "", out, LangTurkish); err != nil {
		t.Fatalf("SavePDF: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("stat pdf: %v", err)
	}
}

func TestSavePDFEmbedsManifestQR(t *testing.T) {
	rep := sampleReport()
	withoutQR := filepath.Join(t.TempDir(), "no_qr.pdf")
	if err := SavePDF(rep, sampleStatus(), "", withoutQR, LangEnglish); err != nil {
		t.Fatalf("SavePDF (no QR): %v", err)
	}
	withoutInfo, err := os.Stat(withoutQR)
	if err != nil {
		t.Fatalf("stat pdf: %v", err)
	}

	withQR := filepath.Join(t.TempDir(), "with_qr.pdf")
	if err := SavePDF(rep, sampleStatus(), "deadbeefcafef00d", withQR, LangEnglish); err != nil {
		t.Fatalf("SavePDF (with QR): %v", err)
	}
	withInfo, err := os.Stat(withQR)
	if err != nil {
		t.Fatalf("stat pdf: %v", err)
	}

	if withInfo.Size() <= withoutInfo.Size() {
		t.Fatalf("expected embedding a QR code to grow the PDF: without=%d with=%d", withoutInfo.Size(), withInfo.Size())
	}
}

func TestSavePDFRejectsInvalidManifestHash(t *testing.T) {
	rep := sampleReport()
	out := filepath.Join(t.TempDir(), "report.pdf")
	if err := SavePDF(rep, sampleStatus(), "   ", out, LangEnglish); err == nil {
		t.Fatal("expected error for blank manifest hash")
	}
}

func TestTranslatorLocalizesKnownKeyAndEchoesUnknownKey(t *testing.T) {
	tr := NewTranslator(LangTurkish)
	if got := tr.T("report.summary"); got == "" || got == "report.summary" {
		t.Fatalf("expected a localized summary label, got %q", got)
	}
	if got := tr.T("does.not.exist"); got != "does.not.exist" {
		t.Fatalf("expected key echoed back for unknown key, got %q", got)
	}
}

func TestParseLanguage(t *testing.T) {
	cases := map[string]Language{
		"":       LangEnglish,
		"en":     LangEnglish,
		"EN-US":  LangEnglish,
		"tr":     LangTurkish,
		"turkce": LangTurkish,
	}
	for input, want := range cases {
		got, err := ParseLanguage(input)
		if err != nil {
			t.Fatalf("ParseLanguage(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseLanguage(%q) = %s, want %s", input, got, want)
		}
	}
	if _, err := ParseLanguage("klingon"); err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestManifestHashToQREncodesNormalizedHash(t *testing.T) {
	png, err := ManifestHashToQR("deadBEEF00", 128)
	if err != nil {
		t.Fatalf("ManifestHashToQR: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("expected non-empty PNG bytes")
	}
}

func TestManifestHashToQRRejectsEmptyHash(t *testing.T) {
	if _, err := ManifestHashToQR("   ", 128); err == nil {
		t.Fatal("expected error for empty hash")
	}
}
