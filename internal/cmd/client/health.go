package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	transports "github.com/rzbill/calclog/internal/cmd/client/transports"
)

// NewHealthCommand probes the HTTP /healthz endpoint and the gRPC health service.
func NewHealthCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health over HTTP and gRPC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			skipGRPC, _ := cmd.Flags().GetBool("http-only")
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL()+"/healthz", nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			resp.Body.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "http:", resp.Status)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("http health: %s", resp.Status)
			}
			if skipGRPC {
				return nil
			}

			addr, _ := cmd.Flags().GetString("grpc")
			status, err := transports.NewGrpcHealth(transports.DialInsecure(addr)).Check(ctx, "")
			if err != nil {
				return fmt.Errorf("grpc health: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "grpc:", status)
			return nil
		},
	}
	cmd.Flags().String("grpc", grpcAddrFromEnv(), "gRPC address")
	cmd.Flags().Bool("http-only", false, "Skip the gRPC probe")
	cmd.Flags().Duration("timeout", 5*time.Second, "Overall probe timeout")
	return cmd
}
