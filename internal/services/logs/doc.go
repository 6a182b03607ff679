// Package logsvc implements the calculator log's ingestion pipeline and its
// long-poll responder.
//
// Service validates and evaluates submissions, appends them to the store and
// publishes each committed record. Push-path submissions pass a dedup guard
// first. Responder serves the hybrid channel: a bounded snapshot streamed one
// record per tick.
//
// Example:
//
//	svc := logsvc.New(store, ev, hub, logsvc.Options{DedupWindow: 5 * time.Second})
//	res, err := svc.Submit(ctx, "3*4")
//	// res.Message == "Expression evaluated to 12"
package logsvc
