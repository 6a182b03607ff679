package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rzbill/calclog/internal/logstore"
)

// grpcAddrFromEnv returns the gRPC server address from CALCLOG_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("CALCLOG_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecord writes one record per line in a terminal-friendly form.
func printRecord(w io.Writer, rec logstore.Record) {
	out := "invalid"
	if rec.IsValid && rec.Output != nil {
		out = strconv.FormatFloat(*rec.Output, 'f', -1, 64)
	}
	fmt.Fprintf(w, "%d\t%s\t%s = %s\n", rec.ID, rec.CreatedOn.Format(time.RFC3339), rec.Expression, out)
}
