// Package transports provides the wire clients used by the calclog CLI.
package transports

import (
	"context"

	"github.com/rzbill/calclog/internal/logstore"
)

// SubmitResult is the server's answer to a submission.
type SubmitResult struct {
	Message string   `json:"message"`
	Output  *float64 `json:"output"`
	IsValid bool     `json:"isValid"`
}

// LogsTransport abstracts the request/response API of the server.
type LogsTransport interface {
	Submit(ctx context.Context, expression string) (SubmitResult, error)
	List(ctx context.Context, sinceID uint64) ([]logstore.Record, error)
	// Poll follows the long-poll stream; it returns nil when the stream ends
	// or the server has nothing above sinceID.
	Poll(ctx context.Context, sinceID uint64, onRecord func(logstore.Record) error) error
}

// StatusError carries a non-2xx reply.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "server returned status " + itoa(e.Code)
	}
	return e.Message + " (status " + itoa(e.Code) + ")"
}
