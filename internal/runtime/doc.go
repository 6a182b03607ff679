// Package runtime wires storage, evaluation and fan-out into a single-node
// calclog instance. It owns the Pebble database and exposes the log service,
// the long-poll responder and the broadcast hub to the transports.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg, Logger: logger})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	res, _ := rt.Logs().Submit(ctx, "3*4")
package runtime
