package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays CALCLOG_* environment variables onto cfg. PORT is honoured
// for the HTTP listener when CALCLOG_HTTP_ADDR is unset.
func FromEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTPAddr = ":" + v
	}
	if v := os.Getenv("CALCLOG_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("CALCLOG_GRPC_ADDR"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("CALCLOG_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CALCLOG_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	setInt("CALCLOG_FSYNC_INTERVAL_MS", &cfg.FsyncIntervalMs)
	setInt("CALCLOG_DEDUP_WINDOW_MS", &cfg.Logs.DedupWindowMs)
	setInt("CALCLOG_RECENT_LIMIT", &cfg.Logs.RecentLimit)
	setInt("CALCLOG_LONGPOLL_SEED_LIMIT", &cfg.Logs.LongPollSeedLimit)
	setInt("CALCLOG_LONGPOLL_INTERVAL_MS", &cfg.Logs.LongPollIntervalMs)
	setInt("CALCLOG_OBSERVER_BUFFER", &cfg.PushChannel.ObserverBuffer)
	if v := os.Getenv("CALCLOG_ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.AllowedOrigins = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, p)
			}
		}
	}
	if v := os.Getenv("CALCLOG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CALCLOG_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("CALCLOG_LOG_FILE"); v != "" {
		cfg.LogOutput = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
