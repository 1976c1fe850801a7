package server

import (
	"net/http"

	"flashgate/internal/sink/ndjson"
)

// newResponseNDJSONWriter wraps an HTTP response writer for streaming
// parse output while the request is still in flight.
func newResponseNDJSONWriter(w http.ResponseWriter) *ndjson.Writer {
	return ndjson.NewWriter(w)
}
