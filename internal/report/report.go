package report

import (
	"encoding/json"
	"os"

	"flashgate/internal/dflog"
	"flashgate/internal/gate"
)

func SaveAcceptanceJSON(rep gate.AcceptanceReport, out string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadAcceptanceJSON(path string) (gate.AcceptanceReport, error) {
	var rep gate.AcceptanceReport
	b, err := os.ReadFile(path)
	if err != nil {
		return rep, err
	}
	err = json.Unmarshal(b, &rep)
	return rep, err
}

// SaveStatusJSON persists a parse Status so it can be fed into SavePDF
// (or re-inspected) without re-parsing the source log.
func SaveStatusJSON(status dflog.Status, out string) error {
	b, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

// LoadStatusJSON reads back a Status written by SaveStatusJSON.
func LoadStatusJSON(path string) (dflog.Status, error) {
	var status dflog.Status
	b, err := os.ReadFile(path)
	if err != nil {
		return status, err
	}
	err = json.Unmarshal(b, &status)
	return status, err
}
