// Package log provides calclog's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. It is backed by the standard library's
// log/slog, using its text or JSON handlers, so the slog ecosystem stays
// available while call sites program against the facade.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormat(log.FormatText),
//	    log.WithOutput(os.Stdout),
//	)
//	l = l.With(log.Component("http"))
//	l.Info("server started", log.Str("addr", ":5000"))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config (level, format,
// output target and redacted keys).
//
// # Interop
//
// Libraries that write through the standard library log package (Pebble does)
// can be routed into a Logger with RedirectStdLog.
package log
