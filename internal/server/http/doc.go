// Package httpserver hosts the calculator log's HTTP surface: the REST
// endpoints, the long-poll stream, the WebSocket push channel, liveness and
// Prometheus metrics, behind a CORS allowlist.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":5000")
package httpserver
