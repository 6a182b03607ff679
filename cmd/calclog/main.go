package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/calclog/internal/cmd/client"
	serverrun "github.com/rzbill/calclog/internal/cmd/server"
	cfgpkg "github.com/rzbill/calclog/internal/config"
)

func main() {
	rootCmd := clientcmd.NewRoot(apiURL)
	rootCmd.Short = "Calculator log server and client"
	rootCmd.Long = "calclog evaluates arithmetic expressions, records every submission, and fans new records out to live observers."
	rootCmd.SilenceUsage = true

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start calclog server (HTTP, WebSocket and gRPC health)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := cfgpkg.Load(path)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)

			// Flags win over file and environment.
			flags := cmd.Flags()
			if flags.Changed("http") {
				cfg.HTTPAddr, _ = flags.GetString("http")
			}
			if flags.Changed("grpc") {
				cfg.GRPCAddr, _ = flags.GetString("grpc")
			}
			if flags.Changed("data-dir") {
				cfg.DataDir, _ = flags.GetString("data-dir")
			}
			if flags.Changed("fsync") {
				cfg.Fsync, _ = flags.GetString("fsync")
			}
			if flags.Changed("fsync-interval-ms") {
				cfg.FsyncIntervalMs, _ = flags.GetInt("fsync-interval-ms")
			}
			if flags.Changed("dedup-window-ms") {
				cfg.Logs.DedupWindowMs, _ = flags.GetInt("dedup-window-ms")
			}
			if flags.Changed("log-level") {
				cfg.LogLevel, _ = flags.GetString("log-level")
			}
			if flags.Changed("log-format") {
				cfg.LogFormat, _ = flags.GetString("log-format")
			}
			inMemory, _ := flags.GetBool("in-memory")

			if err := serverrun.Run(context.Background(), serverrun.Options{Config: cfg, InMemory: inMemory}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	serverStartCmd.Flags().String("config", os.Getenv("CALCLOG_CONFIG"), "Config file (.json, .yaml or .yml)")
	serverStartCmd.Flags().String("http", ":5000", "HTTP listen address (API and push channel)")
	serverStartCmd.Flags().String("grpc", ":50051", "gRPC health listen address")
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms")
	serverStartCmd.Flags().Int("dedup-window-ms", 5000, "Suppress repeated push submissions inside this window")
	serverStartCmd.Flags().String("log-level", "info", "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", "text", "Log format: text|json")
	serverStartCmd.Flags().Bool("in-memory", false, "Keep records in memory only")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("CALCLOG_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:5000"
}
