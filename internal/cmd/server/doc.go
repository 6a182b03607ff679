// Package serverrun exposes the Run entrypoint used by the CLI to start the
// calclog runtime with its HTTP and gRPC servers, handling lifecycle and
// shutdown.
//
// Example:
//
//	cfg := config.Default()
//	config.FromEnv(&cfg)
//	_ = serverrun.Run(ctx, serverrun.Options{Config: cfg})
package serverrun
