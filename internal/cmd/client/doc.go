// Package client provides the `calclog` command-line client.
//
// The CLI talks to the calclog HTTP API, its WebSocket push channel and
// the gRPC health service. It is meant for developers poking at a running
// server from a terminal.
//
// # Address configuration
//
// The HTTP base URL comes from the embedding binary via a BaseURLFunc; the
// standalone binary reads CALCLOG_HTTP (default http://127.0.0.1:5000). The
// gRPC address is read from CALCLOG_GRPC (default 127.0.0.1:50051).
//
// Usage
//
//	calclog logs submit '2 + 3 * 4'
//	calclog logs list --since-id 40
//	calclog logs poll
//
//	# push a client-evaluated record and print the next three broadcasts
//	calclog logs watch --send '1+1' --output 2 --limit 3
//
//	calclog health --grpc 127.0.0.1:50051
package client
