package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the calclog client.
// It registers the logs and health command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "calclog",
		Short: "Calculator log client commands",
	}
	root.AddCommand(NewLogsCommand(baseURL))
	root.AddCommand(NewHealthCommand(baseURL))
	return root
}
