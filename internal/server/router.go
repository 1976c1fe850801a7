package server

import "net/http"

// NewRouter wires HTTP routes to the server's handlers.
func NewRouter(s *Server) (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/parse", s.handleParse)
	mux.HandleFunc("/status/", s.handleStatus)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux, nil
}
