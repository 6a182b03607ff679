// Package grpcserver hosts calclog's gRPC endpoint: the standard
// grpc.health.v1 service, reporting SERVING while the store is healthy and
// NOT_SERVING once shutdown begins.
//
// Example:
//
//	s := grpcserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
