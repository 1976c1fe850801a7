package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"flashgate/internal/common"
	"flashgate/internal/dflog"
	"flashgate/internal/gate"
	"flashgate/internal/sink/ndjson"
)

// httpCallbacks adapts dflog.Callbacks to the daemon's metrics and error
// logging.
type httpCallbacks struct {
	metrics *common.Metrics
}

func (c *httpCallbacks) OnProgress(position, total int64) {
	if c.metrics != nil {
		c.metrics.SetBytes(position)
		c.metrics.SetTotalBytes(total)
	}
}

func (c *httpCallbacks) OnError(message string) {
	common.Logf("flashgated: parse error: %s", message)
}

// handleParse streams a parsed log back to the client as NDJSON: a
// leading job event carrying the id a client can later poll, followed by
// one type/row event per record and a trailing meta event.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	artifactID := r.URL.Query().Get("artifactId")
	art, ok := s.getArtifact(artifactID)
	if !ok {
		http.Error(w, "unknown artifactId", http.StatusNotFound)
		return
	}

	f, err := os.Open(art.Path)
	if err != nil {
		http.Error(w, fmt.Sprintf("open artifact: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	src, err := dflog.NewFileByteSource(f)
	if err != nil {
		http.Error(w, fmt.Sprintf("stat artifact: %v", err), http.StatusInternalServerError)
		return
	}

	job := s.jobs.create(art.Name)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	writer := newResponseNDJSONWriter(w)
	_ = writer.WriteObject(struct {
		Kind string `json:"kind"`
		ID   string `json:"id"`
	}{Kind: "job", ID: job.ID})

	sink := ndjson.NewSink(writer)
	metrics := common.NewMetrics()
	metrics.Start()
	parser := dflog.NewParser(sink, &httpCallbacks{metrics: metrics})
	status, err := parser.Parse(src)
	metrics.Stop()

	s.jobs.finish(job.ID, status, err)
}

// handleStatus returns the recorded outcome of a previously started
// parse job, optionally gated against the daemon's configured rule pack.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/status/")
	job, ok := s.jobs.get(id)
	if !ok {
		http.Error(w, "unknown job id", http.StatusNotFound)
		return
	}

	resp := struct {
		*Job
		Acceptance *gate.AcceptanceReport `json:"acceptance,omitempty"`
	}{Job: job}

	if job.Result != nil && s.rulePackPath != "" {
		if rep, err := s.evaluateGate(*job.Result, job.Input); err == nil {
			resp.Acceptance = &rep
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) evaluateGate(status dflog.Status, input string) (gate.AcceptanceReport, error) {
	rp, err := gate.LoadRulePack(s.rulePackPath)
	if err != nil {
		return gate.AcceptanceReport{}, err
	}
	eng := gate.NewEngine(rp)
	eng.RegisterBuiltins()
	if _, err := eng.Eval(&gate.Context{InputFile: input, Status: &status}); err != nil {
		return gate.AcceptanceReport{}, err
	}
	return eng.MakeAcceptance(), nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
