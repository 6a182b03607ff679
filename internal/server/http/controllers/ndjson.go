package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/rzbill/calclog/internal/logstore"
)

// ndjsonSink writes a long-poll stream as newline-delimited JSON.
type ndjsonSink struct {
	w       http.ResponseWriter
	enc     *json.Encoder
	started bool
}

func newNDJSONSink(w http.ResponseWriter) *ndjsonSink {
	return &ndjsonSink{w: w, enc: json.NewEncoder(w)}
}

// Start commits the streaming headers and status.
func (s *ndjsonSink) Start() error {
	h := s.w.Header()
	h.Set("Content-Type", "application/x-ndjson")
	h.Set("Cache-Control", "no-cache, no-store")
	h.Set("Connection", "keep-alive")
	h.Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
	return s.Flush()
}

// Send writes rec as one JSON line.
func (s *ndjsonSink) Send(rec logstore.Record) error {
	return s.enc.Encode(rec)
}

// Flush pushes buffered bytes to the client if the writer supports it.
func (s *ndjsonSink) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
