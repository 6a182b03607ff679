package log

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Config declares how a process-wide logger is built.
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	// Output is stdout, stderr, null, or a file path (appended to).
	Output string   `json:"output" yaml:"output"`
	Redact []string `json:"redact" yaml:"redact"`
}

// ApplyConfig builds a Logger from cfg. A nil cfg yields the defaults.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var format Format
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		format = FormatText
	case "json":
		format = FormatJSON
	default:
		return nil, fmt.Errorf("log: invalid format %q; use text|json", cfg.Format)
	}
	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	return NewLogger(
		WithLevel(level),
		WithFormat(format),
		WithOutput(out),
		WithRedactions(cfg.Redact...),
	), nil
}

func openOutput(target string) (io.Writer, error) {
	switch strings.ToLower(target) {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "null", "none":
		return io.Discard, nil
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log: open output: %w", err)
	}
	return f, nil
}
