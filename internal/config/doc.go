// Package config provides loading and environment overlay for calclog
// configuration. It exposes a Default() baseline, JSON/YAML file loading and
// CALCLOG_* environment overrides.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/calclog.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
package config
