package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeSampleLog(t *testing.T, path string) {
	t.Helper()
	var stream []byte
	fmtRec := []byte{0xA3, 0x95, 0x80}
	body := make([]byte, 86)
	body[0] = 1
	body[1] = byte(15)
	copy(body[2:6], "ATT")
	copy(body[6:22], "Qf")
	copy(body[22:86], "TimeUS,Roll")
	fmtRec = append(fmtRec, body...)
	stream = append(stream, fmtRec...)

	dataRec := []byte{0xA3, 0x95, 1}
	ts := make([]byte, 8)
	ts[0] = 1
	dataRec = append(dataRec, ts...)
	dataRec = append(dataRec, 0, 0, 0x40, 0x3f) // small positive float
	stream = append(stream, dataRec...)

	if err := os.WriteFile(path, stream, 0644); err != nil {
		t.Fatalf("write sample log: %v", err)
	}
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	s, err := NewServer(Options{StorageDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	mux, err := NewRouter(s)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return s, mux
}

func TestHealthz(t *testing.T) {
	_, mux := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUploadThenParseThenStatus(t *testing.T) {
	_, mux := newTestServer(t)

	dir := t.TempDir()
	logPath := filepath.Join(dir, "sample.bin")
	writeSampleLog(t, logPath)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "sample.bin")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	data, _ := os.ReadFile(logPath)
	fw.Write(data)
	mw.Close()

	uploadReq := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	uploadReq.Header.Set("Content-Type", mw.FormDataContentType())
	uploadRec := httptest.NewRecorder()
	mux.ServeHTTP(uploadRec, uploadReq)
	if uploadRec.Code != http.StatusOK {
		t.Fatalf("upload status = %d body=%s", uploadRec.Code, uploadRec.Body.String())
	}

	var uploadResp struct {
		Files []ArtifactRef `json:"files"`
	}
	if err := json.Unmarshal(uploadRec.Body.Bytes(), &uploadResp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if len(uploadResp.Files) != 1 {
		t.Fatalf("expected 1 uploaded file, got %d", len(uploadResp.Files))
	}
	artifactID := uploadResp.Files[0].ID

	parseReq := httptest.NewRequest(http.MethodPost, "/parse?artifactId="+artifactID, nil)
	parseRec := httptest.NewRecorder()
	mux.ServeHTTP(parseRec, parseReq)
	if parseRec.Code != http.StatusOK {
		t.Fatalf("parse status = %d body=%s", parseRec.Code, parseRec.Body.String())
	}

	scanner := bufio.NewScanner(parseRec.Body)
	var jobID string
	var sawType, sawRow, sawMeta bool
	for scanner.Scan() {
		var envelope struct {
			Kind string `json:"kind"`
			ID   any    `json:"id"` // job ids are strings, type ids are numeric message codes
		}
		if err := json.Unmarshal(scanner.Bytes(), &envelope); err != nil {
			t.Fatalf("decode ndjson line: %v", err)
		}
		switch envelope.Kind {
		case "job":
			jobID, _ = envelope.ID.(string)
		case "type":
			sawType = true
		case "row":
			sawRow = true
		case "meta":
			sawMeta = true
		}
	}
	if jobID == "" || !sawType || !sawRow || !sawMeta {
		t.Fatalf("incomplete ndjson stream: job=%q type=%v row=%v meta=%v", jobID, sawType, sawRow, sawMeta)
	}

	statusReq := httptest.NewRequest(http.MethodGet, "/status/"+jobID, nil)
	statusRec := httptest.NewRecorder()
	mux.ServeHTTP(statusRec, statusReq)
	if statusRec.Code != http.StatusOK {
		t.Fatalf("status code = %d body=%s", statusRec.Code, statusRec.Body.String())
	}
	var job Job
	if err := json.Unmarshal(statusRec.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if job.Status != "done" {
		t.Fatalf("job.Status = %q, want done", job.Status)
	}
	if job.Result == nil || job.Result.ValidRows != 1 {
		t.Fatalf("unexpected job result: %+v", job.Result)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	_, mux := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/status/does-not-exist", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
