package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"flashgate/internal/dflog"
	"flashgate/internal/gate"
)

// SavePDF renders an acceptance report into a PDF document, in this
// order: title, summary table, a parse-status section summarizing
// status, findings list, and (when manifestHash is non-empty) an
// embedded QR code encoding the manifest's hash.
func SavePDF(rep gate.AcceptanceReport, status dflog.Status, manifestHash string, out string, lang Language) error {
	t := NewTranslator(lang)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(t.T("report.title"), false)
	pdf.SetAuthor("flashgatectl", false)
	pdf.SetCreator("flashgatectl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, t.T("report.title"))
	addSummarySection(pdf, rep, t)
	addStatusSection(pdf, status, t)
	addFindingsSection(pdf, rep.Findings, t)
	if manifestHash != "" {
		if err := addManifestQRSection(pdf, manifestHash, t); err != nil {
			return err
		}
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummarySection(pdf *gofpdf.Fpdf, rep gate.AcceptanceReport, t Translator) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, t.T("report.summary"))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: t.T("report.summary.total"), value: strconv.Itoa(rep.Summary.Total)},
		{label: t.T("report.summary.errors"), value: strconv.Itoa(rep.Summary.Errors)},
		{label: t.T("report.summary.warnings"), value: strconv.Itoa(rep.Summary.Warnings)},
		{label: t.T("report.summary.overall"), value: passLabel(rep.Summary.Pass, t)},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addStatusSection(pdf *gofpdf.Fpdf, status dflog.Status, t Translator) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, t.T("report.status"))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: t.T("report.status.validrows"), value: strconv.Itoa(status.ValidRows)},
		{label: t.T("report.status.corruptfmt"), value: strconv.Itoa(len(status.CorruptFmt))},
		{label: t.T("report.status.corruptdata"), value: strconv.Itoa(len(status.CorruptData))},
		{label: t.T("report.status.corrupttime"), value: strconv.Itoa(len(status.CorruptTime))},
		{label: t.T("report.status.nomessagebytes"), value: strconv.Itoa(status.NoMessageBytes)},
		{label: t.T("report.status.vehiclekind"), value: status.VehicleKind.String()},
	}
	for _, item := range items {
		pdf.CellFormat(60, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

// addManifestQRSection embeds a QR code encoding manifestHash so a
// printed report carries a scannable link back to the exact signed
// manifest it describes.
func addManifestQRSection(pdf *gofpdf.Fpdf, manifestHash string, t Translator) error {
	png, err := ManifestHashToQR(manifestHash, 256)
	if err != nil {
		return err
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, t.T("report.manifest"))
	pdf.Ln(9)

	imageName := "manifest-qr"
	pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions(imageName, pdf.GetX(), pdf.GetY(), 35, 35, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.Ln(38)

	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 4, manifestHash, "", "L", false)
	pdf.Ln(2)

	return nil
}

func addFindingsSection(pdf *gofpdf.Fpdf, findings []gate.Diagnostic, t Translator) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, t.T("report.findings"))
	pdf.Ln(9)

	if len(findings) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, t.T("report.findings.none"), "", "L", false)
		return
	}

	for i, d := range findings {
		pdf.SetFont("Helvetica", "B", 10)
		header := fmt.Sprintf("%d. %s (%s)", i+1, d.RuleId, severityLabel(d.Severity))
		pdf.MultiCell(0, 5, header, "", "L", false)

		if msg := strings.TrimSpace(d.Message); msg != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, msg, "", "L", false)
		}

		meta := findingMetadata(d)
		if meta != "" {
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 4, meta, "", "L", false)
		}

		if len(d.Refs) > 0 {
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 4, t.T("report.refs")+": "+strings.Join(d.Refs, ", "), "", "L", false)
		}

		pdf.Ln(2)
	}
}

func passLabel(pass bool, t Translator) string {
	if pass {
		return t.T("report.pass")
	}
	return t.T("report.fail")
}

func severityLabel(sev gate.Severity) string {
	if s := strings.TrimSpace(string(sev)); s != "" {
		return s
	}
	return "UNKNOWN"
}

func findingMetadata(d gate.Diagnostic) string {
	parts := make([]string, 0, 3)
	if !d.Ts.IsZero() {
		parts = append(parts, d.Ts.Format(time.RFC3339))
	}
	if d.File != "" {
		parts = append(parts, d.File)
	}
	if d.TimestampUs != nil {
		parts = append(parts, fmt.Sprintf("Timestamp %dus", *d.TimestampUs))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " - ")
}
