package server

import (
	"sync"

	"flashgate/internal/dflog"
)

// Job records the outcome of one parse request so a client can poll it
// after the streaming response has closed.
type Job struct {
	ID     string       `json:"id"`
	Status string       `json:"status"` // running|done|error
	Input  string       `json:"input"`
	Err    string       `json:"error,omitempty"`
	Result *dflog.Status `json:"result,omitempty"`
}

// JobStore is a concurrency-safe registry of in-flight and completed jobs.
type JobStore struct {
	mu      sync.RWMutex
	entries map[string]*Job
}

func (js *JobStore) create(input string) *Job {
	job := &Job{ID: randomID(), Status: "running", Input: input}
	js.mu.Lock()
	js.entries[job.ID] = job
	js.mu.Unlock()
	return job
}

func (js *JobStore) finish(id string, status dflog.Status, err error) {
	js.mu.Lock()
	defer js.mu.Unlock()
	job, ok := js.entries[id]
	if !ok {
		return
	}
	if err != nil {
		job.Status = "error"
		job.Err = err.Error()
		return
	}
	job.Status = "done"
	job.Result = &status
}

func (js *JobStore) get(id string) (*Job, bool) {
	js.mu.RLock()
	defer js.mu.RUnlock()
	job, ok := js.entries[id]
	return job, ok
}
